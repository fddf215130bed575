package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Base model with common fields
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Role is the compensated role a user holds. Anything outside the known set
// collapses to RoleUnknown, which earns nothing.
type Role string

const (
	RoleSalesman          Role = "Salesman"
	RoleSupplementer      Role = "Supplementer"
	RoleSalesManager      Role = "Sales Manager"
	RoleSupplementManager Role = "Supplement Manager"
	RoleAffiliateMarketer Role = "Affiliate Marketer"
	RoleUnknown           Role = "Unknown"
)

// ParseRole maps free text onto the closed role set.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleSalesman, RoleSupplementer, RoleSalesManager, RoleSupplementManager, RoleAffiliateMarketer:
		return r
	}
	return RoleUnknown
}

// IsValid checks if the Role is one of the compensated roles
func (r Role) IsValid() bool {
	return ParseRole(string(r)) != RoleUnknown
}

// LeadSource is where a job came from, as reported by the CRM.
type LeadSource string

const (
	LeadSourceCanvassingSalesman LeadSource = "Canvassing - Salesman"
	LeadSourceCanvassingCompany  LeadSource = "Canvassing - Company"
	LeadSourceReferral           LeadSource = "Referral"
	LeadSourceAffiliate          LeadSource = "Affiliate"
)

// PermissionAdmin grants access to destructive and user management endpoints
const PermissionAdmin = "admin"

// User is a person who can earn commission
type User struct {
	BaseModel
	Name         string     `gorm:"type:varchar(200);not null;index"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string     `gorm:"type:varchar(255);column:password_hash"`
	Role         Role       `gorm:"type:varchar(50);not null;index"`
	Permissions  []string   `gorm:"type:text;serializer:json"`
	Phone        string     `gorm:"type:varchar(50)"`
	HireDate     *time.Time `gorm:"type:date;column:hire_date"`
}

// HasPermission checks the user's stored permission list
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Customer is one job imported from the CRM, keyed by its name
type Customer struct {
	ID                  int64               `gorm:"primaryKey;autoIncrement"`
	Name                string              `gorm:"type:varchar(255);not null;uniqueIndex;column:customer_name"`
	Address             string              `gorm:"type:varchar(500)"`
	Phone               string              `gorm:"type:varchar(50)"`
	SalesmanID          *int64              `gorm:"column:salesman_id;index"`
	SupplementerID      *int64              `gorm:"column:supplementer_id;index"`
	ManagerID           *int64              `gorm:"column:manager_id;index"`
	SupplementManagerID *int64              `gorm:"column:supplement_manager_id;index"`
	ReferrerID          *int64              `gorm:"column:referrer_id;index"`
	Status              string              `gorm:"type:varchar(100)"`
	InitialScopePrice   decimal.NullDecimal `gorm:"type:numeric(12,2);column:initial_scope_price"`
	TotalJobPrice       decimal.NullDecimal `gorm:"type:numeric(12,2);column:total_job_price"`
	LeadSource          LeadSource          `gorm:"type:varchar(100);column:lead_source"`
	BuildDate           *time.Time          `gorm:"type:date;column:build_date"`
	LastUpdatedAt       time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP;column:last_updated_at;index"`
	CreatedAt           time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Attribution pairs a role slot on a customer with the user filling it
type Attribution struct {
	Role   Role
	UserID int64
}

// Attributions returns the populated role slots of the customer
func (c *Customer) Attributions() []Attribution {
	slots := []struct {
		role Role
		id   *int64
	}{
		{RoleSalesman, c.SalesmanID},
		{RoleSupplementer, c.SupplementerID},
		{RoleSalesManager, c.ManagerID},
		{RoleSupplementManager, c.SupplementManagerID},
		{RoleAffiliateMarketer, c.ReferrerID},
	}

	result := make([]Attribution, 0, len(slots))
	for _, s := range slots {
		if s.id != nil {
			result = append(result, Attribution{Role: s.role, UserID: *s.id})
		}
	}
	return result
}

// TeamMemberKind distinguishes the two member sets of a team
type TeamMemberKind string

const (
	TeamMemberSalesman     TeamMemberKind = "salesman"
	TeamMemberSupplementer TeamMemberKind = "supplementer"
)

// Team groups salesmen and supplementers under one manager
type Team struct {
	BaseModel
	ManagerID int64        `gorm:"not null;index;column:manager_id"`
	Members   []TeamMember `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
}

// TeamMember is one row of a team's member sets
type TeamMember struct {
	ID     int64          `gorm:"primaryKey;autoIncrement"`
	TeamID int64          `gorm:"not null;uniqueIndex:idx_team_member;column:team_id"`
	UserID int64          `gorm:"not null;uniqueIndex:idx_team_member;index;column:user_id"`
	Kind   TeamMemberKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_team_member"`
}

// SalesmanIDs returns the ids of the team's salesmen
func (t *Team) SalesmanIDs() []int64 {
	return t.memberIDs(TeamMemberSalesman)
}

// SupplementerIDs returns the ids of the team's supplementers
func (t *Team) SupplementerIDs() []int64 {
	return t.memberIDs(TeamMemberSupplementer)
}

func (t *Team) memberIDs(kind TeamMemberKind) []int64 {
	ids := []int64{}
	for _, m := range t.Members {
		if m.Kind == kind {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

// CommissionDue is the amount currently owed to a user for a customer.
// At most one row exists per (user, customer).
type CommissionDue struct {
	BaseModel
	UserID           int64           `gorm:"not null;uniqueIndex:idx_commission_due_user_customer;column:user_id"`
	CustomerID       int64           `gorm:"not null;uniqueIndex:idx_commission_due_user_customer;index;column:customer_id"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;column:commission_amount"`
	BuildDate        *time.Time      `gorm:"type:date;column:build_date"`
	IsPaid           bool            `gorm:"not null;column:is_paid"`
}

// TableName overrides the default table name to match the migration
func (CommissionDue) TableName() string {
	return "commissions_due"
}

// CommissionPayment records that a due commission was paid out.
// At most one row exists per due row.
type CommissionPayment struct {
	BaseModel
	CommissionDueID  int64           `gorm:"not null;uniqueIndex;column:commission_due_id"`
	UserID           int64           `gorm:"not null;index;column:user_id"`
	CustomerID       int64           `gorm:"not null;index;column:customer_id"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;column:commission_amount"`
	PaidOn           time.Time       `gorm:"type:date;not null;column:paid_on"`
}

// TableName overrides the default table name to match the migration
func (CommissionPayment) TableName() string {
	return "commission_payments"
}

// SyncErrorType classifies an entry in a sync run's error list
type SyncErrorType string

const (
	SyncErrorJob        SyncErrorType = "job"
	SyncErrorCommission SyncErrorType = "commission"
)

// SyncError is one per-job failure recorded during a sync run
type SyncError struct {
	Type       SyncErrorType
	JobName    string
	Role       Role
	UserID     *int64
	CustomerID *int64
	Message    string
}

// SyncResult summarises one sync run
type SyncResult struct {
	CustomersProcessed int
	Errors             []SyncError
	StartedAt          time.Time
	Duration           time.Duration
}

// Partial reports whether any job or commission failed during the run
func (r *SyncResult) Partial() bool {
	return len(r.Errors) > 0
}
