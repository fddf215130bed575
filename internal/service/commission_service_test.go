package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/commission"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/repository"
	"github.com/straye-as/commission-api/internal/service"
	"github.com/straye-as/commission-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

type commissionFixture struct {
	db     *gorm.DB
	ledger *repository.CommissionRepository
	svc    *service.CommissionService
}

func setupCommissionService(t *testing.T) commissionFixture {
	db := testutil.SetupTestDB(t)
	ledger := repository.NewCommissionRepository(db)
	return commissionFixture{
		db:     db,
		ledger: ledger,
		svc:    newCommissionService(db, ledger),
	}
}

func newCommissionService(db *gorm.DB, ledger service.LedgerStore) *service.CommissionService {
	return service.NewCommissionService(
		ledger,
		repository.NewUserRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewTeamRepository(db),
		commission.NewEngineWithClock(func() time.Time { return fixedNow }),
		nil,
		zap.NewNop(),
	)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// A senior salesman on a referral job: 4% of scope plus 4% of margin.
func seedSeniorSale(t *testing.T, db *gorm.DB) (*domain.User, *domain.Customer) {
	user := testutil.CreateTestUser(t, db, "Sam Seller", domain.RoleSalesman, date(2023, 1, 1))
	customer := testutil.CreateTestCustomer(t, db, "Smith Roof", domain.LeadSourceReferral, "10000", "15000")
	return user, customer
}

func TestCommissionService_RecomputeAndUpsertDue(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated recompute keeps one row", func(t *testing.T) {
		f := setupCommissionService(t)
		user, customer := seedSeniorSale(t, f.db)

		first, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, date(2025, 5, 1))
		require.NoError(t, err)
		second, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, date(2025, 5, 1))
		require.NoError(t, err)
		assert.Equal(t, first, second)

		dues, err := f.ledger.ListDue(ctx)
		require.NoError(t, err)
		require.Len(t, dues, 1)
		assertAmount(t, "600", dues[0].CommissionAmount)
		assert.False(t, dues[0].IsPaid)
	})

	t.Run("recompute resets paid flag", func(t *testing.T) {
		f := setupCommissionService(t)
		user, customer := seedSeniorSale(t, f.db)

		dueID, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)
		_, err = f.svc.MarkPaid(ctx, dueID, date(2025, 6, 1))
		require.NoError(t, err)

		_, err = f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		due, err := f.ledger.GetDueByID(ctx, dueID)
		require.NoError(t, err)
		assert.False(t, due.IsPaid)

		payments, err := f.ledger.ListPaid(ctx)
		require.NoError(t, err)
		assert.Len(t, payments, 1, "payment is kept after the due row is recomputed")
	})

	t.Run("unknown role earns zero", func(t *testing.T) {
		f := setupCommissionService(t)
		user := testutil.CreateTestUser(t, f.db, "Ian Installer", domain.Role("Installer"), date(2020, 1, 1))
		customer := testutil.CreateTestCustomer(t, f.db, "Jones Siding", domain.LeadSourceReferral, "10000", "15000")

		dueID, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		due, err := f.ledger.GetDueByID(ctx, dueID)
		require.NoError(t, err)
		assert.True(t, due.CommissionAmount.IsZero())
	})

	t.Run("missing user", func(t *testing.T) {
		f := setupCommissionService(t)
		_, customer := seedSeniorSale(t, f.db)

		_, err := f.svc.RecomputeAndUpsertDue(ctx, 9999, customer.ID, nil)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("missing ids are rejected", func(t *testing.T) {
		f := setupCommissionService(t)

		_, err := f.svc.RecomputeAndUpsertDue(ctx, 0, 1, nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		_, err = f.svc.RecomputeAndUpsertDue(ctx, 1, 0, nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

// paidFlagLedger reports every due row as paid, as if the flag had been set
// outside the service between the upsert and the re-read.
type paidFlagLedger struct {
	*repository.CommissionRepository
}

func (l paidFlagLedger) GetDueByID(ctx context.Context, id int64) (*domain.CommissionDue, error) {
	due, err := l.CommissionRepository.GetDueByID(ctx, id)
	if err != nil {
		return nil, err
	}
	due.IsPaid = true
	return due, nil
}

func TestCommissionService_RecomputeAndUpsertDue_PaidCascade(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	ledger := repository.NewCommissionRepository(db)
	svc := newCommissionService(db, paidFlagLedger{ledger})
	user, customer := seedSeniorSale(t, db)

	t.Run("payment follows build date", func(t *testing.T) {
		dueID, err := svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, date(2025, 4, 20))
		require.NoError(t, err)

		payments, err := ledger.ListPaid(ctx)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, dueID, payments[0].CommissionDueID)
		assert.Equal(t, "2025-04-20", payments[0].PaidOn.Format("2006-01-02"))
		assertAmount(t, "600", payments[0].CommissionAmount)
	})

	t.Run("payment defaults to today without build date", func(t *testing.T) {
		_, err := svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		payments, err := ledger.ListPaid(ctx)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, "2025-06-15", payments[0].PaidOn.Format("2006-01-02"))
	})
}

func TestCommissionService_RecomputeAndUpsertPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("same due keeps one payment with latest values", func(t *testing.T) {
		f := setupCommissionService(t)
		user, customer := seedSeniorSale(t, f.db)
		dueID, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		first, err := f.svc.RecomputeAndUpsertPayment(ctx, user.ID, customer.ID, *date(2025, 6, 1), dueID)
		require.NoError(t, err)

		require.NoError(t, f.db.Model(&domain.Customer{}).Where("id = ?", customer.ID).
			Update("total_job_price", decimal.NewNullDecimal(decimal.NewFromInt(20000))).Error)

		second, err := f.svc.RecomputeAndUpsertPayment(ctx, user.ID, customer.ID, *date(2025, 6, 10), dueID)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		payment, err := f.ledger.GetPaymentByID(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-10", payment.PaidOn.Format("2006-01-02"))
		assertAmount(t, "800", payment.CommissionAmount)
	})

	t.Run("unknown due", func(t *testing.T) {
		f := setupCommissionService(t)
		user, customer := seedSeniorSale(t, f.db)

		_, err := f.svc.RecomputeAndUpsertPayment(ctx, user.ID, customer.ID, fixedNow, 4242)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("due id required", func(t *testing.T) {
		f := setupCommissionService(t)
		_, err := f.svc.RecomputeAndUpsertPayment(ctx, 1, 1, fixedNow, 0)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("due belongs to another pair", func(t *testing.T) {
		f := setupCommissionService(t)
		user, customer := seedSeniorSale(t, f.db)
		other := testutil.CreateTestUser(t, f.db, "Olga Other", domain.RoleSalesman, date(2025, 1, 1))
		otherCustomer := testutil.CreateTestCustomer(t, f.db, "Jones Roof", domain.LeadSourceReferral, "10000", "15000")

		dueID, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		_, err = f.svc.RecomputeAndUpsertPayment(ctx, other.ID, customer.ID, fixedNow, dueID)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = f.svc.RecomputeAndUpsertPayment(ctx, user.ID, otherCustomer.ID, fixedNow, dueID)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		payments, err := f.ledger.ListPaid(ctx)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}

// failingPaymentLedger loses the connection on every payment write
type failingPaymentLedger struct {
	*repository.CommissionRepository
}

func (failingPaymentLedger) UpsertPayment(context.Context, int64, int64, decimal.Decimal, time.Time, int64) (int64, error) {
	return 0, errors.New("connection lost")
}

func TestCommissionService_MarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("amount is recomputed from current data", func(t *testing.T) {
		f := setupCommissionService(t)
		user, customer := seedSeniorSale(t, f.db)
		dueID, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		require.NoError(t, f.db.Model(&domain.Customer{}).Where("id = ?", customer.ID).
			Update("total_job_price", decimal.NewNullDecimal(decimal.NewFromInt(20000))).Error)

		payment, err := f.svc.MarkPaid(ctx, dueID, nil)
		require.NoError(t, err)
		assert.Equal(t, dueID, payment.CommissionDueID)
		assert.Equal(t, "2025-06-15", payment.PaidOn)
		assertAmount(t, "800", payment.CommissionAmount)

		due, err := f.ledger.GetDueByID(ctx, dueID)
		require.NoError(t, err)
		assert.True(t, due.IsPaid)
		assertAmount(t, "600", due.CommissionAmount)
	})

	t.Run("explicit paid date", func(t *testing.T) {
		f := setupCommissionService(t)
		user, customer := seedSeniorSale(t, f.db)
		dueID, err := f.svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		payment, err := f.svc.MarkPaid(ctx, dueID, date(2025, 3, 31))
		require.NoError(t, err)
		assert.Equal(t, "2025-03-31", payment.PaidOn)
	})

	t.Run("failed payment write leaves due unpaid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		ledger := repository.NewCommissionRepository(db)
		svc := newCommissionService(db, failingPaymentLedger{ledger})
		user, customer := seedSeniorSale(t, db)

		dueID, err := svc.RecomputeAndUpsertDue(ctx, user.ID, customer.ID, nil)
		require.NoError(t, err)

		_, err = svc.MarkPaid(ctx, dueID, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection lost")

		due, err := ledger.GetDueByID(ctx, dueID)
		require.NoError(t, err)
		assert.False(t, due.IsPaid)

		payments, err := ledger.ListPaid(ctx)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	t.Run("unknown due", func(t *testing.T) {
		f := setupCommissionService(t)

		_, err := f.svc.MarkPaid(ctx, 777, nil)
		assert.ErrorIs(t, err, service.ErrNotFound)

		payments, err := f.ledger.ListPaid(ctx)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}

func TestCommissionService_SalesManagerTeams(t *testing.T) {
	ctx := context.Background()
	f := setupCommissionService(t)
	customer := testutil.CreateTestCustomer(t, f.db, "Brown Gutters", domain.LeadSourceReferral, "10000", "15000")

	t.Run("manager without a team gets the base only", func(t *testing.T) {
		manager := testutil.CreateTestUser(t, f.db, "Mia Manager", domain.RoleSalesManager, date(2025, 3, 1))

		preview, err := f.svc.Preview(ctx, &domain.PreviewRequest{UserID: manager.ID, CustomerID: customer.ID})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSalesManager, preview.Role)
		assertAmount(t, "2250", preview.Commission)
	})

	t.Run("override per salesman on the team", func(t *testing.T) {
		manager := testutil.CreateTestUser(t, f.db, "Max Manager", domain.RoleSalesManager, date(2025, 3, 1))
		s1 := testutil.CreateTestUser(t, f.db, "Sal One", domain.RoleSalesman, nil)
		s2 := testutil.CreateTestUser(t, f.db, "Sal Two", domain.RoleSalesman, nil)
		testutil.CreateTestTeam(t, f.db, manager.ID, []int64{s1.ID, s2.ID}, nil)

		preview, err := f.svc.Preview(ctx, &domain.PreviewRequest{UserID: manager.ID, CustomerID: customer.ID})
		require.NoError(t, err)
		assertAmount(t, "3450", preview.Commission)
	})
}

func TestCommissionService_Preview(t *testing.T) {
	ctx := context.Background()
	f := setupCommissionService(t)
	user, customer := seedSeniorSale(t, f.db)

	preview, err := f.svc.Preview(ctx, &domain.PreviewRequest{UserID: user.ID, CustomerID: customer.ID})
	require.NoError(t, err)
	assertAmount(t, "600", preview.Commission)

	dues, err := f.ledger.ListDue(ctx)
	require.NoError(t, err)
	assert.Empty(t, dues)
}

func TestCommissionService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setupCommissionService(t)
	user, customer := seedSeniorSale(t, f.db)

	created, err := f.svc.UpsertDue(ctx, &domain.UpsertDueRequest{UserID: user.ID, CustomerID: customer.ID})
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, created.ID, nil)
	require.NoError(t, err)

	t.Run("update due recomputes and resets paid", func(t *testing.T) {
		updated, err := f.svc.UpdateDue(ctx, created.ID, &domain.UpdateDueRequest{BuildDate: domain.NewDate(*date(2025, 7, 1))})
		require.NoError(t, err)
		assert.False(t, updated.IsPaid)
		require.NotNil(t, updated.BuildDate)
		assert.Equal(t, "2025-07-01", *updated.BuildDate)
	})

	t.Run("update payment moves its date", func(t *testing.T) {
		paid, err := f.svc.ListPaid(ctx)
		require.NoError(t, err)
		require.Len(t, paid, 1)

		updated, err := f.svc.UpdatePayment(ctx, paid[0].ID, &domain.UpdatePaymentRequest{PaidOn: domain.NewDate(*date(2025, 8, 1))})
		require.NoError(t, err)
		assert.Equal(t, "2025-08-01", updated.PaidOn)
	})

	t.Run("delete returns the removed rows", func(t *testing.T) {
		paid, err := f.svc.ListPaid(ctx)
		require.NoError(t, err)
		require.Len(t, paid, 1)

		deletedPayment, err := f.svc.DeletePayment(ctx, paid[0].ID)
		require.NoError(t, err)
		assert.Equal(t, paid[0].ID, deletedPayment.ID)

		deletedDue, err := f.svc.DeleteDue(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, deletedDue.ID)

		_, err = f.svc.GetDue(ctx, created.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
