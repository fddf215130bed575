package service

import (
	"context"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/mapper"
	"github.com/straye-as/commission-api/internal/repository"
	"go.uber.org/zap"
)

type TeamService struct {
	teamRepo *repository.TeamRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewTeamService(teamRepo *repository.TeamRepository, userRepo *repository.UserRepository, logger *zap.Logger) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *TeamService) Create(ctx context.Context, req *domain.TeamRequest) (*domain.TeamDTO, error) {
	if err := s.ensureUsersExist(ctx, req); err != nil {
		return nil, err
	}

	team := &domain.Team{
		ManagerID: req.ManagerID,
		Members:   repository.BuildMembers(req.SalesmanIDs, req.SupplementerIDs),
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, &PersistenceError{Op: "create team", Err: err}
	}

	s.logger.Info("Team created", zap.Int64("team_id", team.ID), zap.Int64("manager_id", team.ManagerID))
	dto := mapper.ToTeamDTO(team)
	return &dto, nil
}

func (s *TeamService) GetByID(ctx context.Context, id int64) (*domain.TeamDTO, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load team", "team", id, err)
	}
	dto := mapper.ToTeamDTO(team)
	return &dto, nil
}

// GetByUserID returns the team the user manages or belongs to
func (s *TeamService) GetByUserID(ctx context.Context, userID int64) (*domain.TeamDTO, error) {
	team, err := s.teamRepo.GetByMemberID(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "load team", Err: err}
	}
	if team == nil {
		return nil, &NotFoundError{Resource: "team for user", ID: userID}
	}
	dto := mapper.ToTeamDTO(team)
	return &dto, nil
}

func (s *TeamService) List(ctx context.Context) ([]domain.TeamDTO, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list teams", Err: err}
	}
	dtos := make([]domain.TeamDTO, len(teams))
	for i := range teams {
		dtos[i] = mapper.ToTeamDTO(&teams[i])
	}
	return dtos, nil
}

// Update replaces the manager and both member sets
func (s *TeamService) Update(ctx context.Context, id int64, req *domain.TeamRequest) (*domain.TeamDTO, error) {
	if err := s.ensureUsersExist(ctx, req); err != nil {
		return nil, err
	}

	team := &domain.Team{
		BaseModel: domain.BaseModel{ID: id},
		ManagerID: req.ManagerID,
		Members:   repository.BuildMembers(req.SalesmanIDs, req.SupplementerIDs),
	}
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, storeError("update team", "team", id, err)
	}

	return s.GetByID(ctx, id)
}

func (s *TeamService) Delete(ctx context.Context, id int64) error {
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return storeError("delete team", "team", id, err)
	}
	s.logger.Info("Team deleted", zap.Int64("team_id", id))
	return nil
}

func (s *TeamService) ensureUsersExist(ctx context.Context, req *domain.TeamRequest) error {
	ids := append([]int64{req.ManagerID}, req.SalesmanIDs...)
	ids = append(ids, req.SupplementerIDs...)
	for _, id := range ids {
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			return storeError("load user", "user", id, err)
		}
	}
	return nil
}
