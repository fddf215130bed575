package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/repository"
	"github.com/straye-as/commission-api/internal/service"
	"github.com/straye-as/commission-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTeamService(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := service.NewTeamService(repository.NewTeamRepository(db), repository.NewUserRepository(db), zap.NewNop())

	manager := testutil.CreateTestUser(t, db, "Mia Manager", domain.RoleSalesManager, nil)
	s1 := testutil.CreateTestUser(t, db, "Sal One", domain.RoleSalesman, nil)
	s2 := testutil.CreateTestUser(t, db, "Sal Two", domain.RoleSalesman, nil)
	sup := testutil.CreateTestUser(t, db, "Sue Supplementer", domain.RoleSupplementer, nil)

	team, err := svc.Create(ctx, &domain.TeamRequest{
		ManagerID:       manager.ID,
		SalesmanIDs:     []int64{s1.ID, s2.ID},
		SupplementerIDs: []int64{sup.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{s1.ID, s2.ID}, team.SalesmanIDs)
	assert.Equal(t, []int64{sup.ID}, team.SupplementerIDs)

	t.Run("unknown member", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.TeamRequest{ManagerID: manager.ID, SalesmanIDs: []int64{4242}})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("lookup by manager and by member", func(t *testing.T) {
		byManager, err := svc.GetByUserID(ctx, manager.ID)
		require.NoError(t, err)
		assert.Equal(t, team.ID, byManager.ID)

		byMember, err := svc.GetByUserID(ctx, sup.ID)
		require.NoError(t, err)
		assert.Equal(t, team.ID, byMember.ID)

		loner := testutil.CreateTestUser(t, db, "Lone Wolf", domain.RoleSalesman, nil)
		_, err = svc.GetByUserID(ctx, loner.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("update replaces member sets", func(t *testing.T) {
		updated, err := svc.Update(ctx, team.ID, &domain.TeamRequest{
			ManagerID:   manager.ID,
			SalesmanIDs: []int64{s2.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{s2.ID}, updated.SalesmanIDs)
		assert.Empty(t, updated.SupplementerIDs)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, team.ID))
		_, err := svc.GetByID(ctx, team.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		teams, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, teams)
	})
}

func TestCustomerService(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	customerRepo := repository.NewCustomerRepository(db)
	svc := service.NewCustomerService(customerRepo, zap.NewNop())

	seller := testutil.CreateTestUser(t, db, "Sam Seller", domain.RoleSalesman, nil)
	for _, name := range []string{"Smith Roof", "Smithson Siding", "Jones Roof"} {
		id := seller.ID
		_, err := customerRepo.UpsertByName(ctx, &domain.Customer{Name: name, SalesmanID: &id})
		require.NoError(t, err)
	}
	_, err := customerRepo.UpsertByName(ctx, &domain.Customer{Name: "Smith Unassigned"})
	require.NoError(t, err)

	t.Run("search is scoped to the user", func(t *testing.T) {
		results, err := svc.Search(ctx, "smith", seller.ID)
		require.NoError(t, err)
		assert.Len(t, results, 2)
		for _, c := range results {
			assert.NotEqual(t, "Smith Unassigned", c.Name)
		}
	})

	t.Run("short query returns nothing", func(t *testing.T) {
		results, err := svc.Search(ctx, "s", seller.ID)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("query and user are required", func(t *testing.T) {
		_, err := svc.Search(ctx, "", seller.ID)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		_, err = svc.Search(ctx, "smith", 0)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("delete returns the customer", func(t *testing.T) {
		all, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)

		deleted, err := svc.Delete(ctx, all[0].ID)
		require.NoError(t, err)
		assert.Equal(t, all[0].Name, deleted.Name)

		_, err = svc.GetByID(ctx, all[0].ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
