package repository

import (
	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/recommend"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.Profile, error)
	GetProfile(userID uint) (*models.Profile, error)
	SaveProfile(profile *models.Profile) error
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// ProblemRepository defines the interface for the problem catalog and
// practice history. It satisfies the recommender's data source.
type ProblemRepository interface {
	Upsert(problems []models.Problem) error
	GetByID(id uint) (*models.Problem, error)
	GetByIDs(ids []uint) ([]models.Problem, error)
	Count() (int64, error)
	PickRandomInRange(minRating, maxRating, count int) ([]models.Problem, error)
	UnsolvedInRatingRange(userID uint, minRating, maxRating, limit int) ([]models.Problem, error)
	RecentOutcomes(userID uint, limit int) ([]recommend.AttemptOutcome, error)
	CreateAttempt(attempt *models.PracticeAttempt) error
}

// ArenaMatchRepository defines the interface for duel match records
type ArenaMatchRepository interface {
	Create(match *models.ArenaMatch) error
	GetByMatchID(matchID string) (*models.ArenaMatch, error)
	ActiveForUser(userID uint) (*models.ArenaMatch, error)
	Update(match *models.ArenaMatch) error
	ListRecentForUser(userID uint, limit int) ([]models.ArenaMatch, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Problem    ProblemRepository
	ArenaMatch ArenaMatchRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Problem:    NewProblemRepository(db),
		ArenaMatch: NewArenaMatchRepository(db),
	}
}
