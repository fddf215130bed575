package repository_test

import (
	"context"
	"testing"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/repository"
	"github.com/straye-as/commission-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTeamRepository_GetByMemberID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTeamRepository(db)
	ctx := context.Background()

	manager := testutil.CreateTestUser(t, db, "Mona Manager", domain.RoleSalesManager, nil)
	s1 := testutil.CreateTestUser(t, db, "Sam One", domain.RoleSalesman, nil)
	s2 := testutil.CreateTestUser(t, db, "Sam Two", domain.RoleSalesman, nil)
	sup := testutil.CreateTestUser(t, db, "Sue Supplement", domain.RoleSupplementer, nil)
	loner := testutil.CreateTestUser(t, db, "Lou Loner", domain.RoleSalesman, nil)

	team := testutil.CreateTestTeam(t, db, manager.ID, []int64{s1.ID, s2.ID}, []int64{sup.ID})

	for _, tc := range []struct {
		name   string
		userID int64
	}{
		{"manager", manager.ID},
		{"salesman", s2.ID},
		{"supplementer", sup.ID},
	} {
		t.Run(tc.name, func(t *testing.T) {
			found, err := repo.GetByMemberID(ctx, tc.userID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, team.ID, found.ID)
			assert.ElementsMatch(t, []int64{s1.ID, s2.ID}, found.SalesmanIDs())
			assert.ElementsMatch(t, []int64{sup.ID}, found.SupplementerIDs())
		})
	}

	t.Run("user on no team", func(t *testing.T) {
		found, err := repo.GetByMemberID(ctx, loner.ID)
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestTeamRepository_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTeamRepository(db)
	ctx := context.Background()

	manager := testutil.CreateTestUser(t, db, "Mona Manager", domain.RoleSupplementManager, nil)
	sup1 := testutil.CreateTestUser(t, db, "Sue One", domain.RoleSupplementer, nil)
	sup2 := testutil.CreateTestUser(t, db, "Sue Two", domain.RoleSupplementer, nil)

	team := &domain.Team{
		ManagerID: manager.ID,
		Members:   repository.BuildMembers(nil, []int64{sup1.ID, sup1.ID}),
	}
	require.NoError(t, repo.Create(ctx, team))
	assert.Len(t, team.Members, 1, "duplicate ids collapse")

	team.Members = repository.BuildMembers(nil, []int64{sup2.ID})
	require.NoError(t, repo.Update(ctx, team))

	reloaded, err := repo.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{sup2.ID}, reloaded.SupplementerIDs())

	old, err := repo.GetByMemberID(ctx, sup1.ID)
	require.NoError(t, err)
	assert.Nil(t, old)

	require.NoError(t, repo.Delete(ctx, team.ID))
	_, err = repo.GetByID(ctx, team.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Update(ctx, team), gorm.ErrRecordNotFound)
}
