package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository is the ledger of due and paid commissions
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates a new commission ledger repository
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// DueUpdate holds the fields to change on a due row. Nil fields are left unchanged.
type DueUpdate struct {
	Amount    *decimal.Decimal
	BuildDate *time.Time
	IsPaid    *bool
}

// PaymentUpdate holds the fields to change on a payment row. Nil fields are left unchanged.
type PaymentUpdate struct {
	Amount *decimal.Decimal
	PaidOn *time.Time
}

// UpsertDue inserts the due row for (userID, customerID) or overwrites its
// amount and build date. Either way the row ends up unpaid.
func (r *CommissionRepository) UpsertDue(ctx context.Context, userID, customerID int64, amount decimal.Decimal, buildDate *time.Time) (int64, error) {
	var dueID int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		due := &domain.CommissionDue{
			UserID:           userID,
			CustomerID:       customerID,
			CommissionAmount: amount,
			BuildDate:        buildDate,
			IsPaid:           false,
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"commission_amount", "build_date", "is_paid", "updated_at"}),
		}).Create(due).Error
		if err != nil {
			return err
		}

		var stored domain.CommissionDue
		if err := tx.Where("user_id = ? AND customer_id = ?", userID, customerID).First(&stored).Error; err != nil {
			return err
		}
		dueID = stored.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	return dueID, nil
}

// UpsertPayment inserts the payment row for dueID or overwrites its amount and paid date.
func (r *CommissionRepository) UpsertPayment(ctx context.Context, userID, customerID int64, amount decimal.Decimal, paidOn time.Time, dueID int64) (int64, error) {
	var paymentID int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment := &domain.CommissionPayment{
			CommissionDueID:  dueID,
			UserID:           userID,
			CustomerID:       customerID,
			CommissionAmount: amount,
			PaidOn:           paidOn,
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "commission_due_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"commission_amount", "paid_on", "updated_at"}),
		}).Create(payment).Error
		if err != nil {
			return err
		}

		var stored domain.CommissionPayment
		if err := tx.Where("commission_due_id = ?", dueID).First(&stored).Error; err != nil {
			return err
		}
		paymentID = stored.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	return paymentID, nil
}

// GetDueByID returns a due row or gorm.ErrRecordNotFound
func (r *CommissionRepository) GetDueByID(ctx context.Context, id int64) (*domain.CommissionDue, error) {
	var due domain.CommissionDue
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&due).Error
	if err != nil {
		return nil, err
	}
	return &due, nil
}

// GetDueByKey returns the due row for a user and customer
func (r *CommissionRepository) GetDueByKey(ctx context.Context, userID, customerID int64) (*domain.CommissionDue, error) {
	var due domain.CommissionDue
	err := r.db.WithContext(ctx).Where("user_id = ? AND customer_id = ?", userID, customerID).First(&due).Error
	if err != nil {
		return nil, err
	}
	return &due, nil
}

// GetPaymentByID returns a payment row or gorm.ErrRecordNotFound
func (r *CommissionRepository) GetPaymentByID(ctx context.Context, id int64) (*domain.CommissionPayment, error) {
	var payment domain.CommissionPayment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByDueID returns the payment recorded against a due row
func (r *CommissionRepository) GetPaymentByDueID(ctx context.Context, dueID int64) (*domain.CommissionPayment, error) {
	var payment domain.CommissionPayment
	err := r.db.WithContext(ctx).Where("commission_due_id = ?", dueID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateDue applies a partial update and returns the updated row
func (r *CommissionRepository) UpdateDue(ctx context.Context, id int64, update DueUpdate) (*domain.CommissionDue, error) {
	var due domain.CommissionDue

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&due).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if update.Amount != nil {
			updates["commission_amount"] = *update.Amount
		}
		if update.BuildDate != nil {
			updates["build_date"] = *update.BuildDate
		}
		if update.IsPaid != nil {
			updates["is_paid"] = *update.IsPaid
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()

		if err := tx.Model(&domain.CommissionDue{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&due).Error
	})
	if err != nil {
		return nil, err
	}

	return &due, nil
}

// UpdatePayment applies a partial update and returns the updated row
func (r *CommissionRepository) UpdatePayment(ctx context.Context, id int64, update PaymentUpdate) (*domain.CommissionPayment, error) {
	var payment domain.CommissionPayment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&payment).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if update.Amount != nil {
			updates["commission_amount"] = *update.Amount
		}
		if update.PaidOn != nil {
			updates["paid_on"] = *update.PaidOn
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()

		if err := tx.Model(&domain.CommissionPayment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// DeleteDue removes a due row and returns it
func (r *CommissionRepository) DeleteDue(ctx context.Context, id int64) (*domain.CommissionDue, error) {
	var due domain.CommissionDue

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&due).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.CommissionDue{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &due, nil
}

// DeletePayment removes a payment row and returns it
func (r *CommissionRepository) DeletePayment(ctx context.Context, id int64) (*domain.CommissionPayment, error) {
	var payment domain.CommissionPayment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&payment).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.CommissionPayment{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// ListDue returns every due row
func (r *CommissionRepository) ListDue(ctx context.Context) ([]domain.CommissionDue, error) {
	var dues []domain.CommissionDue
	err := r.db.WithContext(ctx).Order("id ASC").Find(&dues).Error
	return dues, err
}

// ListPaid returns every payment row
func (r *CommissionRepository) ListPaid(ctx context.Context) ([]domain.CommissionPayment, error) {
	var payments []domain.CommissionPayment
	err := r.db.WithContext(ctx).Order("id ASC").Find(&payments).Error
	return payments, err
}
