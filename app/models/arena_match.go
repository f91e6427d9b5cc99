package models

import (
	"encoding/json"
	"time"
)

const (
	MatchStatusActive   = "active"
	MatchStatusFinished = "finished"
	MatchStatusAborted  = "aborted"
)

const (
	ArenaModeBlitz    = "blitz"    // 1 problem, 15 minutes
	ArenaModeStandard = "standard" // 3 problems, 60 minutes
)

// ArenaMatch is a head-to-head duel created by the matchmaking queue.
type ArenaMatch struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	MatchID         string     `gorm:"type:char(36);not null;uniqueIndex" json:"match_id"`
	Mode            string     `gorm:"type:varchar(16);not null;default:'standard'" json:"mode"`
	PlayerOneID     uint       `gorm:"not null;index" json:"player_one_id"`
	PlayerTwoID     uint       `gorm:"not null;index" json:"player_two_id"`
	PlayerOneRating int        `gorm:"default:0" json:"player_one_rating"`
	PlayerTwoRating int        `gorm:"default:0" json:"player_two_rating"`
	ProblemIDsJSON  string     `gorm:"type:text" json:"problem_ids_json"`
	Status          string     `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	WinnerID        *uint      `gorm:"default:null" json:"winner_id,omitempty"`
	RatingDelta     int        `gorm:"default:0" json:"rating_delta"`
	StartedAt       time.Time  `gorm:"autoCreateTime" json:"started_at"`
	FinishedAt      *time.Time `gorm:"type:timestamp;default:null" json:"finished_at,omitempty"`
}

// ProblemIDs decodes the dealt problem set. Malformed JSON yields nil.
func (m *ArenaMatch) ProblemIDs() []uint {
	if m.ProblemIDsJSON == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(m.ProblemIDsJSON), &ids); err != nil {
		return nil
	}
	return ids
}
