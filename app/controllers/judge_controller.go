package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/judge"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

type verifyHandleRequest struct {
	Handle string `json:"handle"`
}

// HandleVerifyCFHandle links a Codeforces handle to the caller's account and
// snapshots the judge rating.
func HandleVerifyCFHandle(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req verifyHandleRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Handle) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "handle is required"})
	}

	client := judge.NewCodeforcesClientFromEnv()
	info, err := client.GetUserInfo(c.Context(), strings.TrimSpace(req.Handle))
	if err != nil {
		log.Warnf("[Judge] Handle verification failed for %q: %v", req.Handle, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "handle_verification_failed"})
	}

	repo := repository.GetGlobalRepositories().User
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
	}

	now := time.Now()
	user.CFHandle = info.Handle
	user.CFRating = info.Rating
	user.CFVerifiedAt = &now
	if err := repo.Update(user); err != nil {
		log.Errorf("[Judge] Failed to save handle for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "handle_save_failed"})
	}

	return c.JSON(fiber.Map{
		"handle":     info.Handle,
		"rating":     info.Rating,
		"max_rating": info.MaxRating,
		"rank":       info.Rank,
	})
}

// HandleSyncProblems pulls the judge problemset into the catalog. Admin only;
// a full sync moves tens of thousands of rows.
func HandleSyncProblems(c *fiber.Ctx) error {
	client := judge.NewCodeforcesClientFromEnv()
	problems, err := client.GetProblems(c.Context())
	if err != nil {
		log.Errorf("[Judge] Problemset fetch failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "problemset_fetch_failed"})
	}

	repo := repository.GetGlobalRepositories().Problem
	if err := repo.Upsert(problems); err != nil {
		log.Errorf("[Judge] Problemset upsert failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "problemset_store_failed"})
	}

	total, _ := repo.Count()
	log.Infof("[Judge] Synced %d problems (catalog total %d)", len(problems), total)
	return c.JSON(fiber.Map{"synced": len(problems), "total": total})
}
