package mapper

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/commission"
	"github.com/straye-as/commission-api/internal/domain"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// ToUserDTO converts User to UserDTO with tenure measured at now
func ToUserDTO(user *domain.User, now time.Time) domain.UserDTO {
	permissions := user.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return domain.UserDTO{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		Permissions:  permissions,
		Phone:        user.Phone,
		HireDate:     formatDate(user.HireDate),
		TenureMonths: commission.TenureMonths(user.HireDate, now),
		CreatedAt:    formatTimestamp(user.CreatedAt),
		UpdatedAt:    formatTimestamp(user.UpdatedAt),
	}
}

// ToCustomerDTO converts Customer to CustomerDTO
func ToCustomerDTO(customer *domain.Customer) domain.CustomerDTO {
	return domain.CustomerDTO{
		ID:                  customer.ID,
		Name:                customer.Name,
		Address:             customer.Address,
		Phone:               customer.Phone,
		SalesmanID:          customer.SalesmanID,
		SupplementerID:      customer.SupplementerID,
		ManagerID:           customer.ManagerID,
		SupplementManagerID: customer.SupplementManagerID,
		ReferrerID:          customer.ReferrerID,
		Status:              customer.Status,
		InitialScopePrice:   nullableDecimal(customer.InitialScopePrice),
		TotalJobPrice:       nullableDecimal(customer.TotalJobPrice),
		LeadSource:          customer.LeadSource,
		BuildDate:           formatDate(customer.BuildDate),
		LastUpdatedAt:       formatTimestamp(customer.LastUpdatedAt),
		CreatedAt:           formatTimestamp(customer.CreatedAt),
	}
}

// ToTeamDTO converts Team to TeamDTO
func ToTeamDTO(team *domain.Team) domain.TeamDTO {
	return domain.TeamDTO{
		ID:              team.ID,
		ManagerID:       team.ManagerID,
		SalesmanIDs:     team.SalesmanIDs(),
		SupplementerIDs: team.SupplementerIDs(),
		CreatedAt:       formatTimestamp(team.CreatedAt),
		UpdatedAt:       formatTimestamp(team.UpdatedAt),
	}
}

// ToCommissionDueDTO converts CommissionDue to CommissionDueDTO
func ToCommissionDueDTO(due *domain.CommissionDue) domain.CommissionDueDTO {
	return domain.CommissionDueDTO{
		ID:               due.ID,
		UserID:           due.UserID,
		CustomerID:       due.CustomerID,
		CommissionAmount: due.CommissionAmount,
		BuildDate:        formatDate(due.BuildDate),
		IsPaid:           due.IsPaid,
		CreatedAt:        formatTimestamp(due.CreatedAt),
		UpdatedAt:        formatTimestamp(due.UpdatedAt),
	}
}

// ToCommissionPaymentDTO converts CommissionPayment to CommissionPaymentDTO
func ToCommissionPaymentDTO(payment *domain.CommissionPayment) domain.CommissionPaymentDTO {
	return domain.CommissionPaymentDTO{
		ID:               payment.ID,
		CommissionDueID:  payment.CommissionDueID,
		UserID:           payment.UserID,
		CustomerID:       payment.CustomerID,
		CommissionAmount: payment.CommissionAmount,
		PaidOn:           payment.PaidOn.Format(dateLayout),
		CreatedAt:        formatTimestamp(payment.CreatedAt),
		UpdatedAt:        formatTimestamp(payment.UpdatedAt),
	}
}

// ToSyncResultDTO converts a sync run summary to its response body
func ToSyncResultDTO(result *domain.SyncResult) domain.SyncResultDTO {
	dto := domain.SyncResultDTO{
		Message:            "Sync completed",
		CustomersProcessed: result.CustomersProcessed,
		DurationMs:         result.Duration.Milliseconds(),
	}
	for _, e := range result.Errors {
		dto.Errors = append(dto.Errors, domain.SyncErrorDTO{
			Type:       e.Type,
			JobName:    e.JobName,
			Role:       e.Role,
			UserID:     e.UserID,
			CustomerID: e.CustomerID,
			Message:    e.Message,
		})
	}
	return dto
}
