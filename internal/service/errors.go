package service

import (
	"errors"
	"fmt"

	"github.com/straye-as/commission-api/internal/domain"
	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when credentials do not match
	ErrUnauthorized = errors.New("unauthorized")

	// ErrFeedUnavailable is returned when the job feed cannot be read
	ErrFeedUnavailable = errors.New("job feed unavailable")
)

// NotFoundError names the missing resource. It matches ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a malformed or missing input. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ComputationError is a failed recompute for one attribution of a synced job.
type ComputationError struct {
	JobName    string
	Role       domain.Role
	UserID     int64
	CustomerID int64
	Err        error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("commission for %s (user %d, customer %d) on job %q: %v",
		e.Role, e.UserID, e.CustomerID, e.JobName, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// FeedError is a fatal failure reading the external job feed. It matches ErrFeedUnavailable.
type FeedError struct {
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("job feed: %v", e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

func (e *FeedError) Is(target error) bool {
	return target == ErrFeedUnavailable
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// storeError translates a repository error. Missing rows become NotFoundError,
// anything else a PersistenceError.
func storeError(op, resource string, id any, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return &PersistenceError{Op: op, Err: err}
}
