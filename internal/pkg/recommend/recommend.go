package recommend

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
)

// Rating window around the user's rating that keeps practice productive:
// slightly below for consolidation, further above for stretch.
const (
	WindowBelow = 200
	WindowAbove = 300
)

// minTagAttempts is how many recent attempts a tag needs before its failure
// rate is trusted; below that a tag is never considered weak.
const minTagAttempts = 3

// AttemptOutcome is one recent attempt with the attempted problem's tags.
type AttemptOutcome struct {
	Verdict string
	Tags    []string
}

// Source provides the data the recommender reads.
type Source interface {
	UnsolvedInRatingRange(userID uint, minRating, maxRating, limit int) ([]models.Problem, error)
	RecentOutcomes(userID uint, limit int) ([]AttemptOutcome, error)
}

// Service ranks unsolved problems for a user: inside the rating window,
// boosting tags the user has recently been failing.
type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

// Recommend returns up to limit problems for the user at the given rating.
func (s *Service) Recommend(ctx context.Context, userID uint, rating, limit int) ([]models.Problem, error) {
	_ = ctx
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if rating <= 0 {
		rating = 1200
	}

	// Over-fetch so weak-tag boosting has candidates to reorder.
	candidates, err := s.src.UnsolvedInRatingRange(userID, rating-WindowBelow, rating+WindowAbove, limit*4)
	if err != nil {
		return nil, err
	}

	outcomes, err := s.src.RecentOutcomes(userID, 50)
	if err != nil {
		return nil, err
	}
	weak := WeakTags(outcomes)

	ranked := RankProblems(candidates, rating, weak)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// WeakTags computes per-tag failure rates over recent attempts. Tags with
// fewer than minTagAttempts attempts are skipped.
func WeakTags(outcomes []AttemptOutcome) map[string]float64 {
	attempts := make(map[string]int)
	failures := make(map[string]int)
	for _, o := range outcomes {
		for _, tag := range o.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			attempts[tag]++
			if o.Verdict == models.AttemptVerdictFailed {
				failures[tag]++
			}
		}
	}

	weak := make(map[string]float64)
	for tag, n := range attempts {
		if n < minTagAttempts {
			continue
		}
		if rate := float64(failures[tag]) / float64(n); rate > 0 {
			weak[tag] = rate
		}
	}
	return weak
}

// RankProblems orders candidates by closeness to a stretch target rating
// (slightly above the user) plus a boost for weak tags. Stable for equal
// scores so catalog order breaks ties deterministically.
func RankProblems(problems []models.Problem, rating int, weak map[string]float64) []models.Problem {
	target := float64(rating + 100)

	type scored struct {
		p     models.Problem
		score float64
	}
	list := make([]scored, 0, len(problems))
	for _, p := range problems {
		score := -math.Abs(float64(p.Rating)-target) / 100
		for _, tag := range p.TagList() {
			if boost, ok := weak[strings.ToLower(tag)]; ok {
				score += 2 * boost
			}
		}
		list = append(list, scored{p: p, score: score})
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	out := make([]models.Problem, len(list))
	for i, s := range list {
		out[i] = s.p
	}
	return out
}
