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

func TestUserRepository_FindByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	john := testutil.CreateTestUser(t, db, "John Carter", domain.RoleSalesman, nil)
	testutil.CreateTestUser(t, db, "Johnny Appleseed", domain.RoleSupplementer, nil)
	maria := testutil.CreateTestUser(t, db, "Maria Lopez", domain.RoleSupplementer, nil)

	t.Run("unique substring match", func(t *testing.T) {
		match, err := repo.FindByName(ctx, "lopez")
		require.NoError(t, err)
		assert.Equal(t, maria.ID, match.User.ID)
		assert.False(t, match.Ambiguous)
	})

	t.Run("ambiguous match returns first by id", func(t *testing.T) {
		match, err := repo.FindByName(ctx, "John")
		require.NoError(t, err)
		assert.Equal(t, john.ID, match.User.ID)
		assert.True(t, match.Ambiguous)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := repo.FindByName(ctx, "Nobody")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("wildcards in names match literally", func(t *testing.T) {
		_, err := repo.FindByName(ctx, "J_hn")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		_, err = repo.FindByName(ctx, "Maria%Lopez")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		pct := testutil.CreateTestUser(t, db, "Pat 100% Roofing", domain.RoleAffiliateMarketer, nil)
		match, err := repo.FindByName(ctx, "100%")
		require.NoError(t, err)
		assert.Equal(t, pct.ID, match.User.ID)
		assert.False(t, match.Ambiguous)
	})
}

func TestUserRepository_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{
		Name:        "Ada Admin",
		Email:       "Ada@Example.com",
		Role:        domain.RoleSalesManager,
		Permissions: []string{domain.PermissionAdmin},
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.HasPermission(domain.PermissionAdmin))

	found.Phone = "555-0100"
	require.NoError(t, repo.Update(ctx, found))

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", reloaded.Phone)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), gorm.ErrRecordNotFound)
}
