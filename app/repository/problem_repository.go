package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/recommend"
)

// problemRepository implements the ProblemRepository interface
type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository creates a new problem repository instance
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

// Upsert inserts or refreshes catalog entries. Conflicts on the
// (platform, contest, index) key update the mutable columns so periodic
// judge syncs keep ratings and solve counts current.
func (r *problemRepository) Upsert(problems []models.Problem) error {
	if len(problems) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "contest_id"}, {Name: "problem_index"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "tags", "rating", "solved_count", "updated_at",
		}),
	}).CreateInBatches(problems, 200).Error
}

// GetByID retrieves a problem by its ID
func (r *problemRepository) GetByID(id uint) (*models.Problem, error) {
	var problem models.Problem
	if err := r.db.First(&problem, id).Error; err != nil {
		return nil, err
	}
	return &problem, nil
}

// GetByIDs retrieves multiple problems by ID
func (r *problemRepository) GetByIDs(ids []uint) ([]models.Problem, error) {
	problems := []models.Problem{}
	if len(ids) == 0 {
		return problems, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&problems).Error
	return problems, err
}

// Count returns the total number of catalog entries
func (r *problemRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Problem{}).Count(&count).Error
	return count, err
}

// PickRandomInRange returns random rated problems inside a rating band.
// Used to deal the problem set for a duel.
func (r *problemRepository) PickRandomInRange(minRating, maxRating, count int) ([]models.Problem, error) {
	problems := []models.Problem{}
	err := r.db.Where("rating BETWEEN ? AND ?", minRating, maxRating).
		Order("RAND()").
		Limit(count).
		Find(&problems).Error
	return problems, err
}

// UnsolvedInRatingRange returns problems inside the rating band the user has
// not solved yet, most-solved first so recommendations favor well-tested
// statements.
func (r *problemRepository) UnsolvedInRatingRange(userID uint, minRating, maxRating, limit int) ([]models.Problem, error) {
	problems := []models.Problem{}
	err := r.db.
		Where("rating BETWEEN ? AND ?", minRating, maxRating).
		Where("NOT EXISTS (SELECT 1 FROM practice_attempts pa WHERE pa.problem_id = problems.id AND pa.user_id = ? AND pa.verdict = ?)",
			userID, models.AttemptVerdictSolved).
		Order("solved_count DESC").
		Limit(limit).
		Find(&problems).Error
	return problems, err
}

// RecentOutcomes returns the user's latest attempts with the attempted
// problems' tags, newest first.
func (r *problemRepository) RecentOutcomes(userID uint, limit int) ([]recommend.AttemptOutcome, error) {
	type row struct {
		Verdict string
		Tags    string
	}
	rows := []row{}
	err := r.db.Table("practice_attempts").
		Select("practice_attempts.verdict, problems.tags").
		Joins("JOIN problems ON problems.id = practice_attempts.problem_id").
		Where("practice_attempts.user_id = ?", userID).
		Order("practice_attempts.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	outcomes := make([]recommend.AttemptOutcome, 0, len(rows))
	for _, rw := range rows {
		outcomes = append(outcomes, recommend.AttemptOutcome{
			Verdict: rw.Verdict,
			Tags:    splitTags(rw.Tags),
		})
	}
	return outcomes, nil
}

// CreateAttempt records a practice outcome
func (r *problemRepository) CreateAttempt(attempt *models.PracticeAttempt) error {
	return r.db.Create(attempt).Error
}

func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
