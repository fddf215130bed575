package mapper_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUserDTO(t *testing.T) {
	hired := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	user := &domain.User{
		BaseModel: domain.BaseModel{ID: 3, CreatedAt: hired, UpdatedAt: hired},
		Name:      "Sam Seller",
		Role:      domain.RoleSalesman,
		HireDate:  &hired,
	}

	dto := mapper.ToUserDTO(user, time.Date(2024, 8, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 6, dto.TenureMonths)
	require.NotNil(t, dto.HireDate)
	assert.Equal(t, "2024-01-15", *dto.HireDate)
	assert.Equal(t, "2024-01-15T00:00:00Z", dto.CreatedAt)
	assert.Equal(t, []string{}, dto.Permissions)
}

func TestToCustomerDTO_NullablePrices(t *testing.T) {
	customer := &domain.Customer{
		ID:                9,
		Name:              "Jane Homeowner",
		InitialScopePrice: decimal.NewNullDecimal(decimal.RequireFromString("10000.50")),
	}

	dto := mapper.ToCustomerDTO(customer)
	require.NotNil(t, dto.InitialScopePrice)
	assert.Equal(t, "10000.5", dto.InitialScopePrice.String())
	assert.Nil(t, dto.TotalJobPrice)
	assert.Nil(t, dto.BuildDate)
}

func TestToSyncResultDTO(t *testing.T) {
	userID := int64(4)
	dto := mapper.ToSyncResultDTO(&domain.SyncResult{
		CustomersProcessed: 2,
		Duration:           1500 * time.Millisecond,
		Errors: []domain.SyncError{
			{Type: domain.SyncErrorCommission, UserID: &userID, Message: "boom"},
		},
	})

	assert.Equal(t, "Sync completed", dto.Message)
	assert.Equal(t, 2, dto.CustomersProcessed)
	assert.Equal(t, int64(1500), dto.DurationMs)
	require.Len(t, dto.Errors, 1)
	assert.Equal(t, &userID, dto.Errors[0].UserID)

	clean := mapper.ToSyncResultDTO(&domain.SyncResult{})
	assert.Nil(t, clean.Errors)
}
