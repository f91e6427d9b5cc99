package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/leaderboard"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

// HandleLeaderboard returns the top arena ratings.
// GET /api/v1/leaderboard?limit=10
func HandleLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	entries, err := leaderboard.Top(limit)
	if err != nil {
		log.Errorf("[Leaderboard] Top lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "leaderboard_unavailable"})
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// HandleLeaderboardMe returns the caller's rank, rating, and duel record.
func HandleLeaderboardMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	rank, err := leaderboard.Rank(userCtx.UserID)
	if err != nil {
		log.Errorf("[Leaderboard] Rank lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "leaderboard_unavailable"})
	}

	profile, err := repository.GetGlobalRepositories().User.GetProfile(userCtx.UserID)
	if err != nil {
		log.Errorf("[Leaderboard] Profile lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "profile_lookup_failed"})
	}

	return c.JSON(fiber.Map{
		"rank":   rank,
		"rating": profile.ArenaRating,
		"wins":   profile.ArenaWins,
		"losses": profile.ArenaLosses,
	})
}
