package repository

import (
	"context"
	"strings"
	"time"

	"github.com/straye-as/commission-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// customerSyncColumns are overwritten when a synced customer already exists
var customerSyncColumns = []string{
	"address",
	"phone",
	"salesman_id",
	"supplementer_id",
	"manager_id",
	"supplement_manager_id",
	"referrer_id",
	"status",
	"initial_scope_price",
	"total_job_price",
	"lead_source",
	"build_date",
	"last_updated_at",
}

// UpsertByName inserts the customer or overwrites every mutable field of the
// existing row with the same name. Returns the stored row.
func (r *CustomerRepository) UpsertByName(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	var stored domain.Customer

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer.LastUpdatedAt = time.Now().UTC()

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_name"}},
			DoUpdates: clause.AssignmentColumns(customerSyncColumns),
		}).Create(customer).Error
		if err != nil {
			return err
		}

		return tx.Where("customer_name = ?", customer.Name).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByName(ctx context.Context, name string) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithContext(ctx).Where("customer_name = ?", name).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.Customer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&customers).Error
	return customers, err
}

// Search finds customers the user holds any role on whose name, address or
// phone contains searchQuery. Most recently updated first.
func (r *CustomerRepository) Search(ctx context.Context, searchQuery string, userID int64, limit int) ([]domain.Customer, error) {
	var customers []domain.Customer
	searchPattern := "%" + likeEscaper.Replace(strings.ToLower(searchQuery)) + "%"
	err := r.db.WithContext(ctx).
		Where(`LOWER(customer_name) LIKE ? ESCAPE '\' OR LOWER(address) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\'`,
			searchPattern, searchPattern, searchPattern).
		Where("salesman_id = ? OR supplementer_id = ? OR manager_id = ? OR supplement_manager_id = ? OR referrer_id = ?",
			userID, userID, userID, userID, userID).
		Order("last_updated_at DESC, id DESC").
		Limit(limit).
		Find(&customers).Error
	return customers, err
}
