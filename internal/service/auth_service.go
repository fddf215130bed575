package service

import (
	"context"
	"errors"
	"time"

	"github.com/straye-as/commission-api/internal/auth"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/mapper"
	"github.com/straye-as/commission-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login verifies the credentials and issues a token carrying the user's permissions
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, &PersistenceError{Op: "load user", Err: err}
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.logger.Warn("Failed login attempt", zap.Int64("user_id", user.ID))
		return nil, ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Permissions)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      mapper.ToUserDTO(user, time.Now()),
	}, nil
}
