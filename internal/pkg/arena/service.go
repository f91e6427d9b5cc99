package arena

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/leaderboard"
)

// Service settles finished duels: it writes the match result, moves both
// players' ratings, and feeds the leaderboard.
type Service struct {
	matches repository.ArenaMatchRepository
	users   repository.UserRepository
}

func NewService(matches repository.ArenaMatchRepository, users repository.UserRepository) *Service {
	return &Service{matches: matches, users: users}
}

// FinishMatch records the winner of an active match and applies the rating
// movement to both players.
func (s *Service) FinishMatch(matchID string, winnerID uint) (*models.ArenaMatch, error) {
	match, err := s.matches.GetByMatchID(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusActive {
		return nil, fmt.Errorf("match %s is not active (status=%s)", matchID, match.Status)
	}
	if winnerID != match.PlayerOneID && winnerID != match.PlayerTwoID {
		return nil, fmt.Errorf("user %d is not a player in match %s", winnerID, matchID)
	}

	loserID := match.PlayerOneID
	winnerRating, loserRating := match.PlayerTwoRating, match.PlayerOneRating
	if winnerID == match.PlayerOneID {
		loserID = match.PlayerTwoID
		winnerRating, loserRating = match.PlayerOneRating, match.PlayerTwoRating
	}

	delta := EloDelta(winnerRating, loserRating)
	now := time.Now()
	match.Status = models.MatchStatusFinished
	match.WinnerID = &winnerID
	match.RatingDelta = delta
	match.FinishedAt = &now
	if err := s.matches.Update(match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	s.applyRatingChange(winnerID, delta)
	s.applyRatingChange(loserID, -delta)

	if err := leaderboard.AddWin(winnerID); err != nil {
		log.Errorf("[Arena] Failed to count win for user %d: %v", winnerID, err)
	}
	if err := leaderboard.AddLoss(loserID); err != nil {
		log.Errorf("[Arena] Failed to count loss for user %d: %v", loserID, err)
	}

	log.Infof("[Arena] Match %s finished: winner=%d, delta=%d", matchID, winnerID, delta)
	return match, nil
}

// AbortMatch cancels an active match without rating movement. Only a player
// of the match may abort it.
func (s *Service) AbortMatch(matchID string, userID uint) (*models.ArenaMatch, error) {
	match, err := s.matches.GetByMatchID(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusActive {
		return nil, fmt.Errorf("match %s is not active (status=%s)", matchID, match.Status)
	}
	if userID != match.PlayerOneID && userID != match.PlayerTwoID {
		return nil, fmt.Errorf("user %d is not a player in match %s", userID, matchID)
	}

	now := time.Now()
	match.Status = models.MatchStatusAborted
	match.FinishedAt = &now
	if err := s.matches.Update(match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	return match, nil
}

// applyRatingChange moves a player's stored rating and mirrors it into the
// leaderboard. Ratings never drop below zero.
func (s *Service) applyRatingChange(userID uint, delta int) {
	profile, err := s.users.GetProfile(userID)
	if err != nil {
		log.Errorf("[Arena] Failed to load profile for user %d: %v", userID, err)
		return
	}
	profile.ArenaRating += delta
	if profile.ArenaRating < 0 {
		profile.ArenaRating = 0
	}
	if err := s.users.SaveProfile(profile); err != nil {
		log.Errorf("[Arena] Failed to save rating for user %d: %v", userID, err)
		return
	}
	if err := leaderboard.SetRating(userID, profile.ArenaRating); err != nil {
		log.Errorf("[Arena] Failed to mirror rating for user %d: %v", userID, err)
	}
}
