package arena

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/app/repository"
)

// Problem counts per mode.
const (
	blitzProblemCount    = 1
	standardProblemCount = 3
)

// DBMatchStore creates match records backed by the relational store and
// deals the problem set from the catalog.
type DBMatchStore struct {
	matches  repository.ArenaMatchRepository
	problems repository.ProblemRepository
}

func NewDBMatchStore(matches repository.ArenaMatchRepository, problems repository.ProblemRepository) *DBMatchStore {
	return &DBMatchStore{matches: matches, problems: problems}
}

// CreateMatch deals problems around the pair's average rating and persists
// the match record. Returns the public match ID.
func (s *DBMatchStore) CreateMatch(t1, t2 *Ticket) (string, error) {
	count := standardProblemCount
	if t1.Mode == models.ArenaModeBlitz {
		count = blitzProblemCount
	}

	avg := (t1.Rating + t2.Rating) / 2
	problems, err := s.problems.PickRandomInRange(avg, avg+200, count)
	if err != nil {
		return "", fmt.Errorf("failed to deal problems: %w", err)
	}
	if len(problems) < count {
		// Thin catalog band; widen once before giving up.
		problems, err = s.problems.PickRandomInRange(avg-300, avg+500, count)
		if err != nil {
			return "", fmt.Errorf("failed to deal problems: %w", err)
		}
	}
	if len(problems) == 0 {
		return "", fmt.Errorf("no problems available around rating %d", avg)
	}

	ids := make([]uint, 0, len(problems))
	for _, p := range problems {
		ids = append(ids, p.ID)
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to marshal problem ids: %w", err)
	}

	match := &models.ArenaMatch{
		MatchID:         uuid.New().String(),
		Mode:            t1.Mode,
		PlayerOneID:     t1.UserID,
		PlayerTwoID:     t2.UserID,
		PlayerOneRating: t1.Rating,
		PlayerTwoRating: t2.Rating,
		ProblemIDsJSON:  string(idsJSON),
		Status:          models.MatchStatusActive,
	}
	if err := s.matches.Create(match); err != nil {
		return "", fmt.Errorf("failed to persist match: %w", err)
	}
	return match.MatchID, nil
}
