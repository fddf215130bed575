package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/commission"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/logger"
	"github.com/straye-as/commission-api/internal/mapper"
	"github.com/straye-as/commission-api/internal/metrics"
	"github.com/straye-as/commission-api/internal/repository"
	"go.uber.org/zap"
)

// LedgerStore persists due and paid commissions
type LedgerStore interface {
	UpsertDue(ctx context.Context, userID, customerID int64, amount decimal.Decimal, buildDate *time.Time) (int64, error)
	UpsertPayment(ctx context.Context, userID, customerID int64, amount decimal.Decimal, paidOn time.Time, dueID int64) (int64, error)
	GetDueByID(ctx context.Context, id int64) (*domain.CommissionDue, error)
	GetPaymentByID(ctx context.Context, id int64) (*domain.CommissionPayment, error)
	UpdateDue(ctx context.Context, id int64, update repository.DueUpdate) (*domain.CommissionDue, error)
	UpdatePayment(ctx context.Context, id int64, update repository.PaymentUpdate) (*domain.CommissionPayment, error)
	DeleteDue(ctx context.Context, id int64) (*domain.CommissionDue, error)
	DeletePayment(ctx context.Context, id int64) (*domain.CommissionPayment, error)
	ListDue(ctx context.Context) ([]domain.CommissionDue, error)
	ListPaid(ctx context.Context) ([]domain.CommissionPayment, error)
}

// UserReader loads users by id
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// CustomerReader loads customers by id
type CustomerReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

// TeamDirectory finds the team a user manages or belongs to. A nil team
// with a nil error means the user is on no team.
type TeamDirectory interface {
	GetByMemberID(ctx context.Context, userID int64) (*domain.Team, error)
}

// CommissionService keeps the due and paid ledgers in line with the rule engine
type CommissionService struct {
	ledger    LedgerStore
	users     UserReader
	customers CustomerReader
	teams     TeamDirectory
	engine    *commission.Engine
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewCommissionService(
	ledger LedgerStore,
	users UserReader,
	customers CustomerReader,
	teams TeamDirectory,
	engine *commission.Engine,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CommissionService {
	return &CommissionService{
		ledger:    ledger,
		users:     users,
		customers: customers,
		teams:     teams,
		engine:    engine,
		metrics:   m,
		logger:    logger,
	}
}

// compute prices one (user, customer) pair against current data
func (s *CommissionService) compute(ctx context.Context, userID, customerID int64) (decimal.Decimal, domain.Role, error) {
	if userID <= 0 {
		return decimal.Zero, "", &ValidationError{Field: "userId", Message: "is required"}
	}
	if customerID <= 0 {
		return decimal.Zero, "", &ValidationError{Field: "customerId", Message: "is required"}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, "", storeError("load user", "user", userID, err)
	}
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return decimal.Zero, "", storeError("load customer", "customer", customerID, err)
	}
	team, err := s.teams.GetByMemberID(ctx, userID)
	if err != nil {
		return decimal.Zero, "", &PersistenceError{Op: "load team", Err: err}
	}

	amount := s.engine.Compute(user, customer, team)
	role := domain.ParseRole(string(user.Role))
	s.metrics.Computation(string(role))

	return amount, role, nil
}

// today returns the engine clock's current UTC calendar date
func (s *CommissionService) today() time.Time {
	now := s.engine.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// RecomputeAndUpsertDue prices the pair and writes its due row, leaving it unpaid.
// If the stored row is flagged paid after the write, its payment is re-synced too.
func (s *CommissionService) RecomputeAndUpsertDue(ctx context.Context, userID, customerID int64, buildDate *time.Time) (int64, error) {
	amount, role, err := s.compute(ctx, userID, customerID)
	if err != nil {
		return 0, err
	}

	dueID, err := s.ledger.UpsertDue(ctx, userID, customerID, amount, buildDate)
	if err != nil {
		return 0, &PersistenceError{Op: "upsert commission due", Err: err}
	}
	s.metrics.LedgerUpsert(metrics.LedgerDue)

	logger.WithCommission(s.logger, userID, customerID).Debug("Commission due upserted",
		zap.Int64("due_id", dueID),
		zap.String("role", string(role)),
		zap.String("amount", amount.StringFixed(2)),
	)

	due, err := s.ledger.GetDueByID(ctx, dueID)
	if err != nil {
		return 0, storeError("reload commission due", "commission due", dueID, err)
	}
	if due.IsPaid {
		paidOn := s.today()
		if buildDate != nil {
			paidOn = *buildDate
		}
		if _, err := s.RecomputeAndUpsertPayment(ctx, userID, customerID, paidOn, dueID); err != nil {
			return 0, err
		}
	}

	return dueID, nil
}

// RecomputeAndUpsertPayment prices the pair again and writes the payment row for dueID
func (s *CommissionService) RecomputeAndUpsertPayment(ctx context.Context, userID, customerID int64, paidOn time.Time, dueID int64) (int64, error) {
	if dueID <= 0 {
		return 0, &ValidationError{Field: "commissionDueId", Message: "is required"}
	}
	due, err := s.ledger.GetDueByID(ctx, dueID)
	if err != nil {
		return 0, storeError("load commission due", "commission due", dueID, err)
	}
	if due.UserID != userID || due.CustomerID != customerID {
		return 0, &ValidationError{
			Field:   "commissionDueId",
			Message: fmt.Sprintf("belongs to user %d and customer %d", due.UserID, due.CustomerID),
		}
	}

	amount, _, err := s.compute(ctx, userID, customerID)
	if err != nil {
		return 0, err
	}

	paymentID, err := s.ledger.UpsertPayment(ctx, userID, customerID, amount, paidOn, dueID)
	if err != nil {
		return 0, &PersistenceError{Op: "upsert commission payment", Err: err}
	}
	s.metrics.LedgerUpsert(metrics.LedgerPaid)

	return paymentID, nil
}

// MarkPaid records the payment for a due row, then flags the row paid.
// The flag is only set once the payment row exists. paidOn defaults to today.
func (s *CommissionService) MarkPaid(ctx context.Context, dueID int64, paidOn *time.Time) (*domain.CommissionPaymentDTO, error) {
	due, err := s.ledger.GetDueByID(ctx, dueID)
	if err != nil {
		return nil, storeError("load commission due", "commission due", dueID, err)
	}

	date := s.today()
	if paidOn != nil {
		date = *paidOn
	}

	paymentID, err := s.RecomputeAndUpsertPayment(ctx, due.UserID, due.CustomerID, date, dueID)
	if err != nil {
		return nil, err
	}

	isPaid := true
	if _, err := s.ledger.UpdateDue(ctx, dueID, repository.DueUpdate{IsPaid: &isPaid}); err != nil {
		return nil, storeError("mark commission due paid", "commission due", dueID, err)
	}

	logger.WithCommission(s.logger, due.UserID, due.CustomerID).Info("Commission marked as paid",
		zap.Int64("due_id", dueID),
		zap.Int64("payment_id", paymentID),
		zap.Time("paid_on", date),
	)

	return s.GetPayment(ctx, paymentID)
}

// Preview computes the commission without writing anything
func (s *CommissionService) Preview(ctx context.Context, req *domain.PreviewRequest) (*domain.CommissionPreviewDTO, error) {
	amount, role, err := s.compute(ctx, req.UserID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	return &domain.CommissionPreviewDTO{
		UserID:     req.UserID,
		CustomerID: req.CustomerID,
		Role:       role,
		Commission: amount,
	}, nil
}

// UpsertDue is the manual entry point for RecomputeAndUpsertDue
func (s *CommissionService) UpsertDue(ctx context.Context, req *domain.UpsertDueRequest) (*domain.CommissionDueDTO, error) {
	dueID, err := s.RecomputeAndUpsertDue(ctx, req.UserID, req.CustomerID, req.BuildDate.TimePtr())
	if err != nil {
		return nil, err
	}
	return s.GetDue(ctx, dueID)
}

// UpsertPayment is the manual entry point for RecomputeAndUpsertPayment. paidOn defaults to today.
func (s *CommissionService) UpsertPayment(ctx context.Context, req *domain.UpsertPaymentRequest) (*domain.CommissionPaymentDTO, error) {
	paidOn := s.today()
	if d := req.PaidOn.TimePtr(); d != nil {
		paidOn = *d
	}
	paymentID, err := s.RecomputeAndUpsertPayment(ctx, req.UserID, req.CustomerID, paidOn, req.CommissionDueID)
	if err != nil {
		return nil, err
	}
	return s.GetPayment(ctx, paymentID)
}

// UpdateDue recomputes the stored row from current data and resets it to unpaid
func (s *CommissionService) UpdateDue(ctx context.Context, id int64, req *domain.UpdateDueRequest) (*domain.CommissionDueDTO, error) {
	due, err := s.ledger.GetDueByID(ctx, id)
	if err != nil {
		return nil, storeError("load commission due", "commission due", id, err)
	}

	amount, _, err := s.compute(ctx, due.UserID, due.CustomerID)
	if err != nil {
		return nil, err
	}

	unpaid := false
	updated, err := s.ledger.UpdateDue(ctx, id, repository.DueUpdate{
		Amount:    &amount,
		BuildDate: req.BuildDate.TimePtr(),
		IsPaid:    &unpaid,
	})
	if err != nil {
		return nil, storeError("update commission due", "commission due", id, err)
	}

	dto := mapper.ToCommissionDueDTO(updated)
	return &dto, nil
}

// UpdatePayment recomputes the stored payment amount and optionally moves its date
func (s *CommissionService) UpdatePayment(ctx context.Context, id int64, req *domain.UpdatePaymentRequest) (*domain.CommissionPaymentDTO, error) {
	payment, err := s.ledger.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, storeError("load commission payment", "commission payment", id, err)
	}

	amount, _, err := s.compute(ctx, payment.UserID, payment.CustomerID)
	if err != nil {
		return nil, err
	}

	updated, err := s.ledger.UpdatePayment(ctx, id, repository.PaymentUpdate{
		Amount: &amount,
		PaidOn: req.PaidOn.TimePtr(),
	})
	if err != nil {
		return nil, storeError("update commission payment", "commission payment", id, err)
	}

	dto := mapper.ToCommissionPaymentDTO(updated)
	return &dto, nil
}

func (s *CommissionService) GetDue(ctx context.Context, id int64) (*domain.CommissionDueDTO, error) {
	due, err := s.ledger.GetDueByID(ctx, id)
	if err != nil {
		return nil, storeError("load commission due", "commission due", id, err)
	}
	dto := mapper.ToCommissionDueDTO(due)
	return &dto, nil
}

func (s *CommissionService) GetPayment(ctx context.Context, id int64) (*domain.CommissionPaymentDTO, error) {
	payment, err := s.ledger.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, storeError("load commission payment", "commission payment", id, err)
	}
	dto := mapper.ToCommissionPaymentDTO(payment)
	return &dto, nil
}

func (s *CommissionService) ListDue(ctx context.Context) ([]domain.CommissionDueDTO, error) {
	rows, err := s.ledger.ListDue(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list commissions due", Err: err}
	}
	dtos := make([]domain.CommissionDueDTO, len(rows))
	for i := range rows {
		dtos[i] = mapper.ToCommissionDueDTO(&rows[i])
	}
	return dtos, nil
}

func (s *CommissionService) ListPaid(ctx context.Context) ([]domain.CommissionPaymentDTO, error) {
	rows, err := s.ledger.ListPaid(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list commission payments", Err: err}
	}
	dtos := make([]domain.CommissionPaymentDTO, len(rows))
	for i := range rows {
		dtos[i] = mapper.ToCommissionPaymentDTO(&rows[i])
	}
	return dtos, nil
}

// DeleteDue removes a due row and returns it
func (s *CommissionService) DeleteDue(ctx context.Context, id int64) (*domain.CommissionDueDTO, error) {
	deleted, err := s.ledger.DeleteDue(ctx, id)
	if err != nil {
		return nil, storeError("delete commission due", "commission due", id, err)
	}
	s.logger.Info("Commission due deleted", zap.Int64("due_id", id))
	dto := mapper.ToCommissionDueDTO(deleted)
	return &dto, nil
}

// DeletePayment removes a payment row and returns it
func (s *CommissionService) DeletePayment(ctx context.Context, id int64) (*domain.CommissionPaymentDTO, error) {
	deleted, err := s.ledger.DeletePayment(ctx, id)
	if err != nil {
		return nil, storeError("delete commission payment", "commission payment", id, err)
	}
	s.logger.Info("Commission payment deleted", zap.Int64("payment_id", id))
	dto := mapper.ToCommissionPaymentDTO(deleted)
	return &dto, nil
}
