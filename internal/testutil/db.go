package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/database"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a fresh in-memory SQLite database with the schema applied.
// Each call gets its own database, closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "Failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// CreateTestUser creates a user with the given role and hire date
func CreateTestUser(t *testing.T, db *gorm.DB, name string, role domain.Role, hireDate *time.Time) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:        name,
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:        role,
		Permissions: []string{},
		HireDate:    hireDate,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestCustomer creates a customer with prices and lead source
func CreateTestCustomer(t *testing.T, db *gorm.DB, name string, source domain.LeadSource, scope, total string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		Name:              name,
		LeadSource:        source,
		InitialScopePrice: decimal.NewNullDecimal(decimal.RequireFromString(scope)),
		TotalJobPrice:     decimal.NewNullDecimal(decimal.RequireFromString(total)),
		LastUpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateTestTeam creates a team with the given member sets
func CreateTestTeam(t *testing.T, db *gorm.DB, managerID int64, salesmanIDs, supplementerIDs []int64) *domain.Team {
	t.Helper()
	team := &domain.Team{ManagerID: managerID}
	for _, id := range salesmanIDs {
		team.Members = append(team.Members, domain.TeamMember{UserID: id, Kind: domain.TeamMemberSalesman})
	}
	for _, id := range supplementerIDs {
		team.Members = append(team.Members, domain.TeamMember{UserID: id, Kind: domain.TeamMemberSupplementer})
	}
	require.NoError(t, db.Create(team).Error)
	return team
}

// MonthsAgo returns a date the given number of months before now
func MonthsAgo(months int) *time.Time {
	d := time.Now().UTC().AddDate(0, -months, 0)
	return &d
}
