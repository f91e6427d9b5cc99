package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/ai"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/entitlements"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

type hintRequest struct {
	ProblemID uint `json:"problem_id"`
	Level     int  `json:"level"`
}

// HandleHint asks the coach model for a progressive hint. Counted against
// the caller's daily plan quota before the provider is called.
func HandleHint(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req hintRequest
	if err := c.BodyParser(&req); err != nil || req.ProblemID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "problem_id is required"})
	}
	if req.Level < 1 || req.Level > ai.MaxHintLevel {
		req.Level = 1
	}

	client := ai.NewClientFromEnv()
	if !client.IsConfigured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "hints_not_configured"})
	}

	repos := repository.GetGlobalRepositories()
	problem, err := repos.Problem.GetByID(req.ProblemID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_problem"})
	}

	profile, err := repos.User.GetProfile(userCtx.UserID)
	if err != nil {
		log.Errorf("[Hints] Profile lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "profile_lookup_failed"})
	}

	quota := entitlements.HintQuotaPerDay(entitlements.EffectivePlan(profile))
	remaining, allowed, err := ai.ConsumeHint(c.Context(), userCtx.UserID, quota)
	if err != nil {
		log.Errorf("[Hints] Quota check failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "quota_check_failed"})
	}
	if !allowed {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":   "hint_quota_exceeded",
			"message": "daily hint budget spent, upgrade or come back tomorrow",
		})
	}

	hint, err := client.Hint(c.Context(), ai.HintRequest{
		ProblemName:   problem.Name,
		ProblemRating: problem.Rating,
		Tags:          problem.TagList(),
		Level:         req.Level,
	})
	if err != nil {
		log.Errorf("[Hints] Provider call failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "hint_provider_failed"})
	}

	return c.JSON(fiber.Map{
		"hint":      hint,
		"level":     req.Level,
		"remaining": remaining,
	})
}
