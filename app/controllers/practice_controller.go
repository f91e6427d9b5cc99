package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/recommend"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

type attemptRequest struct {
	ProblemID uint   `json:"problem_id"`
	Verdict   string `json:"verdict"`
	HintsUsed int    `json:"hints_used"`
}

// HandleRecommendations returns practice problems picked for the caller's
// rating window and weak tags.
// GET /api/v1/practice/recommendations?limit=10
func HandleRecommendations(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repos := repository.GetGlobalRepositories()
	profile, err := repos.User.GetProfile(userCtx.UserID)
	if err != nil {
		log.Errorf("[Practice] Profile lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "profile_lookup_failed"})
	}

	// Practice targets the verified judge rating when present, falling back
	// to the arena rating.
	rating := profile.ArenaRating
	if user, uerr := repos.User.GetByID(userCtx.UserID); uerr == nil && user.CFRating > 0 {
		rating = user.CFRating
	}

	svc := recommend.NewService(repos.Problem)
	problems, err := svc.Recommend(c.Context(), userCtx.UserID, rating, c.QueryInt("limit", 10))
	if err != nil {
		log.Errorf("[Practice] Recommendation failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "recommendation_failed"})
	}

	return c.JSON(fiber.Map{"rating": rating, "problems": problems})
}

// HandleRecordAttempt records a practice outcome for the recommender.
func HandleRecordAttempt(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req attemptRequest
	if err := c.BodyParser(&req); err != nil || req.ProblemID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "problem_id is required"})
	}
	switch req.Verdict {
	case models.AttemptVerdictSolved, models.AttemptVerdictFailed, models.AttemptVerdictSkipped:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_verdict"})
	}

	repos := repository.GetGlobalRepositories()
	if _, err := repos.Problem.GetByID(req.ProblemID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_problem"})
	}

	attempt := &models.PracticeAttempt{
		UserID:    userCtx.UserID,
		ProblemID: req.ProblemID,
		Verdict:   req.Verdict,
		HintsUsed: req.HintsUsed,
	}
	if err := repos.Problem.CreateAttempt(attempt); err != nil {
		log.Errorf("[Practice] Failed to record attempt for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "attempt_record_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(attempt)
}
