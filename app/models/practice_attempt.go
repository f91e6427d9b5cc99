package models

import "time"

const (
	AttemptVerdictSolved  = "solved"
	AttemptVerdictFailed  = "failed"
	AttemptVerdictSkipped = "skipped"
)

// PracticeAttempt records one user/problem practice outcome. The adaptive
// recommender reads recent attempts to find weak tags.
type PracticeAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_attempts_user_created,priority:1" json:"user_id"`
	ProblemID uint      `gorm:"not null;index" json:"problem_id"`
	Verdict   string    `gorm:"type:varchar(16);not null" json:"verdict"`
	HintsUsed int       `gorm:"default:0" json:"hints_used"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_attempts_user_created,priority:2" json:"created_at"`
}
