package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/commission-api/internal/auth"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/mapper"
	"github.com/straye-as/commission-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo *repository.UserRepository
	now      func() time.Time
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	if !req.Role.IsValid() {
		return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", req.Role)}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	permissions := req.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Permissions:  permissions,
		Phone:        req.Phone,
		HireDate:     req.HireDate.TimePtr(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, &PersistenceError{Op: "create user", Err: err}
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	dto := mapper.ToUserDTO(user, s.now())
	return &dto, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load user", "user", id, err)
	}
	dto := mapper.ToUserDTO(user, s.now())
	return &dto, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.UserDTO, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list users", Err: err}
	}
	now := s.now()
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i], now)
	}
	return dtos, nil
}

// Update applies the non-nil fields of req
func (s *UserService) Update(ctx context.Context, id int64, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load user", "user", id, err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", *req.Role)}
		}
		user.Role = *req.Role
	}
	if req.Permissions != nil {
		user.Permissions = req.Permissions
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if d := req.HireDate.TimePtr(); d != nil {
		user.HireDate = d
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, &PersistenceError{Op: "update user", Err: err}
	}

	dto := mapper.ToUserDTO(user, s.now())
	return &dto, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return storeError("delete user", "user", id, err)
	}
	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing.ID != selfID {
		return fmt.Errorf("%w: user with email %s already exists", ErrConflict, email)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return &PersistenceError{Op: "check email", Err: err}
	}
	return nil
}
