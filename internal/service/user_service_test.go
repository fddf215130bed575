package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/commission-api/internal/auth"
	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/repository"
	"github.com/straye-as/commission-api/internal/service"
	"github.com/straye-as/commission-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := service.NewUserService(userRepo, zap.NewNop())

	created, err := svc.Create(ctx, &domain.CreateUserRequest{
		Name:        "Sam Seller",
		Email:       "Sam@Example.com",
		Password:    "correct-horse",
		Role:        domain.RoleSalesman,
		HireDate:    domain.NewDate(*date(2024, 1, 15)),
		Permissions: []string{"commissions:read"},
	})
	require.NoError(t, err)

	t.Run("create stores a hash and normalises email", func(t *testing.T) {
		assert.Equal(t, "sam@example.com", created.Email)
		require.NotNil(t, created.HireDate)
		assert.Equal(t, "2024-01-15", *created.HireDate)

		stored, err := userRepo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "correct-horse", stored.PasswordHash)
		assert.True(t, auth.VerifyPassword("correct-horse", stored.PasswordHash))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateUserRequest{
			Name: "Other", Email: "sam@example.com", Password: "12345678", Role: domain.RoleSupplementer,
		})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateUserRequest{
			Name: "Ian", Email: "ian@example.com", Password: "12345678", Role: domain.Role("Installer"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("partial update", func(t *testing.T) {
		phone := "555-0100"
		role := domain.RoleSalesManager
		updated, err := svc.Update(ctx, created.ID, &domain.UpdateUserRequest{Phone: &phone, Role: &role})
		require.NoError(t, err)
		assert.Equal(t, "555-0100", updated.Phone)
		assert.Equal(t, domain.RoleSalesManager, updated.Role)
		assert.Equal(t, "Sam Seller", updated.Name)
		assert.Equal(t, []string{"commissions:read"}, updated.Permissions)
	})

	t.Run("update missing user", func(t *testing.T) {
		name := "x"
		_, err := svc.Update(ctx, 9999, &domain.UpdateUserRequest{Name: &name})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db, "Temp", domain.RoleSupplementer, nil)
		require.NoError(t, svc.Delete(ctx, other.ID))
		assert.ErrorIs(t, svc.Delete(ctx, other.ID), service.ErrNotFound)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	users := service.NewUserService(userRepo, zap.NewNop())
	tokens := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 3600, Issuer: "commission-api"})
	svc := service.NewAuthService(userRepo, tokens, zap.NewNop())

	created, err := users.Create(ctx, &domain.CreateUserRequest{
		Name:        "Ada Admin",
		Email:       "ada@example.com",
		Password:    "s3cret-pass",
		Role:        domain.RoleSalesManager,
		Permissions: []string{domain.PermissionAdmin},
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: "ADA@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, resp.User.ID)
		assert.NotEmpty(t, resp.ExpiresAt)

		claims, err := tokens.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, claims.UserID)
		assert.Equal(t, []string{domain.PermissionAdmin}, claims.Permissions)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "nope"})
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "who@example.com", Password: "s3cret-pass"})
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
}
