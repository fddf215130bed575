package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DTOs for API responses

type UserDTO struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         Role     `json:"role"`
	Permissions  []string `json:"permissions"`
	Phone        string   `json:"phone,omitempty"`
	HireDate     *string  `json:"hireDate,omitempty"` // YYYY-MM-DD
	TenureMonths int      `json:"tenureMonths"`
	CreatedAt    string   `json:"createdAt"` // ISO 8601
	UpdatedAt    string   `json:"updatedAt"` // ISO 8601
}

type CustomerDTO struct {
	ID                  int64            `json:"id"`
	Name                string           `json:"name"`
	Address             string           `json:"address,omitempty"`
	Phone               string           `json:"phone,omitempty"`
	SalesmanID          *int64           `json:"salesmanId"`
	SupplementerID      *int64           `json:"supplementerId"`
	ManagerID           *int64           `json:"managerId"`
	SupplementManagerID *int64           `json:"supplementManagerId"`
	ReferrerID          *int64           `json:"referrerId"`
	Status              string           `json:"status,omitempty"`
	InitialScopePrice   *decimal.Decimal `json:"initialScopePrice"`
	TotalJobPrice       *decimal.Decimal `json:"totalJobPrice"`
	LeadSource          LeadSource       `json:"leadSource,omitempty"`
	BuildDate           *string          `json:"buildDate,omitempty"` // YYYY-MM-DD
	LastUpdatedAt       string           `json:"lastUpdatedAt"`       // ISO 8601
	CreatedAt           string           `json:"createdAt"`           // ISO 8601
}

type TeamDTO struct {
	ID              int64   `json:"id"`
	ManagerID       int64   `json:"managerId"`
	SalesmanIDs     []int64 `json:"salesmanIds"`
	SupplementerIDs []int64 `json:"supplementerIds"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

type CommissionDueDTO struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"userId"`
	CustomerID       int64           `json:"customerId"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	BuildDate        *string         `json:"buildDate,omitempty"` // YYYY-MM-DD
	IsPaid           bool            `json:"isPaid"`
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
}

type CommissionPaymentDTO struct {
	ID               int64           `json:"id"`
	CommissionDueID  int64           `json:"commissionDueId"`
	UserID           int64           `json:"userId"`
	CustomerID       int64           `json:"customerId"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	PaidOn           string          `json:"paidOn"` // YYYY-MM-DD
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
}

type CommissionPreviewDTO struct {
	UserID     int64           `json:"userId"`
	CustomerID int64           `json:"customerId"`
	Role       Role            `json:"role"`
	Commission decimal.Decimal `json:"commission"`
}

type SyncErrorDTO struct {
	Type       SyncErrorType `json:"type"`
	JobName    string        `json:"jobName"`
	Role       Role          `json:"role,omitempty"`
	UserID     *int64        `json:"userId,omitempty"`
	CustomerID *int64        `json:"customerId,omitempty"`
	Message    string        `json:"message"`
}

type SyncResultDTO struct {
	Message            string         `json:"message"`
	CustomersProcessed int            `json:"customersProcessed"`
	Errors             []SyncErrorDTO `json:"errors,omitempty"`
	DurationMs         int64          `json:"durationMs"`
}

type LoginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expiresAt"` // ISO 8601
	User      UserDTO `json:"user"`
}

type IDResponse struct {
	ID int64 `json:"id"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Date is a calendar date in request bodies. It accepts YYYY-MM-DD or RFC 3339.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// TimePtr returns the date as *time.Time, or nil when d is nil or zero
func (d *Date) TimePtr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// NewDate returns the calendar date of t
func NewDate(t time.Time) *Date {
	return &Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Email       string   `json:"email" validate:"required,email,max=255"`
	Password    string   `json:"password" validate:"required,min=8"`
	Role        Role     `json:"role" validate:"required"`
	Permissions []string `json:"permissions"`
	Phone       string   `json:"phone" validate:"max=50"`
	HireDate    *Date    `json:"hireDate"`
}

type UpdateUserRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Email       *string  `json:"email" validate:"omitempty,email,max=255"`
	Password    *string  `json:"password" validate:"omitempty,min=8"`
	Role        *Role    `json:"role"`
	Permissions []string `json:"permissions"`
	Phone       *string  `json:"phone" validate:"omitempty,max=50"`
	HireDate    *Date    `json:"hireDate"`
}

type TeamRequest struct {
	ManagerID       int64   `json:"managerId" validate:"required,gt=0"`
	SalesmanIDs     []int64 `json:"salesmanIds" validate:"dive,gt=0"`
	SupplementerIDs []int64 `json:"supplementerIds" validate:"dive,gt=0"`
}

type UpsertDueRequest struct {
	UserID     int64 `json:"userId" validate:"required,gt=0"`
	CustomerID int64 `json:"customerId" validate:"required,gt=0"`
	BuildDate  *Date `json:"buildDate"`
}

type UpdateDueRequest struct {
	BuildDate *Date `json:"buildDate"`
}

type UpsertPaymentRequest struct {
	UserID          int64 `json:"userId" validate:"required,gt=0"`
	CustomerID      int64 `json:"customerId" validate:"required,gt=0"`
	CommissionDueID int64 `json:"commissionDueId" validate:"required,gt=0"`
	PaidOn          *Date `json:"paidOn"`
}

type UpdatePaymentRequest struct {
	PaidOn *Date `json:"paidOn"`
}

type MarkPaidRequest struct {
	PaidOn *Date `json:"paidOn"`
}

type PreviewRequest struct {
	UserID     int64 `json:"userId" validate:"required,gt=0"`
	CustomerID int64 `json:"customerId" validate:"required,gt=0"`
}
