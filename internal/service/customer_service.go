package service

import (
	"context"
	"strings"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/mapper"
	"github.com/straye-as/commission-api/internal/repository"
	"go.uber.org/zap"
)

const (
	minSearchQueryLength = 2
	searchResultLimit    = 5
)

type CustomerService struct {
	customerRepo *repository.CustomerRepository
	logger       *zap.Logger
}

func NewCustomerService(customerRepo *repository.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (s *CustomerService) List(ctx context.Context) ([]domain.CustomerDTO, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list customers", Err: err}
	}
	dtos := make([]domain.CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = mapper.ToCustomerDTO(&customers[i])
	}
	return dtos, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (*domain.CustomerDTO, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load customer", "customer", id, err)
	}
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

// Search returns up to five customers of userID matching query. Queries
// shorter than two characters return no results.
func (s *CustomerService) Search(ctx context.Context, query string, userID int64) ([]domain.CustomerDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "q", Message: "is required"}
	}
	if userID <= 0 {
		return nil, &ValidationError{Field: "userId", Message: "is required"}
	}
	if len([]rune(query)) < minSearchQueryLength {
		return []domain.CustomerDTO{}, nil
	}

	customers, err := s.customerRepo.Search(ctx, query, userID, searchResultLimit)
	if err != nil {
		return nil, &PersistenceError{Op: "search customers", Err: err}
	}
	dtos := make([]domain.CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = mapper.ToCustomerDTO(&customers[i])
	}
	return dtos, nil
}

// Delete removes the customer and returns the deleted row
func (s *CustomerService) Delete(ctx context.Context, id int64) (*domain.CustomerDTO, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load customer", "customer", id, err)
	}
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return nil, storeError("delete customer", "customer", id, err)
	}

	s.logger.Info("Customer deleted", zap.Int64("customer_id", id), zap.String("name", customer.Name))
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}
