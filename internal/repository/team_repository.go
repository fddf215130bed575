package repository

import (
	"context"
	"errors"

	"github.com/straye-as/commission-api/internal/domain"
	"gorm.io/gorm"
)

// TeamRepository handles teams and their member sets
type TeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// BuildMembers turns the two id sets of a team into member rows
func BuildMembers(salesmanIDs, supplementerIDs []int64) []domain.TeamMember {
	members := make([]domain.TeamMember, 0, len(salesmanIDs)+len(supplementerIDs))
	seen := make(map[domain.TeamMember]bool)
	add := func(id int64, kind domain.TeamMemberKind) {
		m := domain.TeamMember{UserID: id, Kind: kind}
		if !seen[m] {
			seen[m] = true
			members = append(members, m)
		}
	}
	for _, id := range salesmanIDs {
		add(id, domain.TeamMemberSalesman)
	}
	for _, id := range supplementerIDs {
		add(id, domain.TeamMemberSupplementer)
	}
	return members
}

// Create inserts the team and its members
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

// GetByID returns a team with its members
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).Preload("Members").Where("id = ?", id).First(&team).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// GetByMemberID returns the team userID manages or belongs to.
// Returns nil, nil when the user is on no team.
func (r *TeamRepository) GetByMemberID(ctx context.Context, userID int64) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("teams.manager_id = ? OR teams.id IN (?)", userID,
			r.db.Model(&domain.TeamMember{}).Select("team_id").Where("user_id = ?", userID)).
		Order("teams.id ASC").
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// List returns all teams with members
func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	var teams []domain.Team
	err := r.db.WithContext(ctx).Preload("Members").Order("id ASC").Find(&teams).Error
	return teams, err
}

// Update replaces the manager and member sets of a team
func (r *TeamRepository) Update(ctx context.Context, team *domain.Team) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Team{}).Where("id = ?", team.ID).Updates(map[string]interface{}{
			"manager_id": team.ManagerID,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("team_id = ?", team.ID).Delete(&domain.TeamMember{}).Error; err != nil {
			return err
		}
		if len(team.Members) == 0 {
			return nil
		}
		for i := range team.Members {
			team.Members[i].ID = 0
			team.Members[i].TeamID = team.ID
		}
		return tx.Create(&team.Members).Error
	})
}

// Delete removes a team and its members
func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&domain.TeamMember{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Team{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
