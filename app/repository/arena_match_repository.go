package repository

import (
	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"gorm.io/gorm"
)

// arenaMatchRepository implements the ArenaMatchRepository interface
type arenaMatchRepository struct {
	db *gorm.DB
}

// NewArenaMatchRepository creates a new arena match repository instance
func NewArenaMatchRepository(db *gorm.DB) ArenaMatchRepository {
	return &arenaMatchRepository{db: db}
}

// Create persists a new match record
func (r *arenaMatchRepository) Create(match *models.ArenaMatch) error {
	return r.db.Create(match).Error
}

// GetByMatchID retrieves a match by its public UUID
func (r *arenaMatchRepository) GetByMatchID(matchID string) (*models.ArenaMatch, error) {
	var match models.ArenaMatch
	if err := r.db.Where("match_id = ?", matchID).First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// ActiveForUser returns the user's currently running match, if any
func (r *arenaMatchRepository) ActiveForUser(userID uint) (*models.ArenaMatch, error) {
	var match models.ArenaMatch
	err := r.db.Where("status = ? AND (player_one_id = ? OR player_two_id = ?)",
		models.MatchStatusActive, userID, userID).
		Order("started_at DESC").
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// Update persists match changes
func (r *arenaMatchRepository) Update(match *models.ArenaMatch) error {
	return r.db.Save(match).Error
}

// ListRecentForUser returns the user's latest matches, newest first
func (r *arenaMatchRepository) ListRecentForUser(userID uint, limit int) ([]models.ArenaMatch, error) {
	matches := []models.ArenaMatch{}
	err := r.db.Where("player_one_id = ? OR player_two_id = ?", userID, userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&matches).Error
	return matches, err
}
