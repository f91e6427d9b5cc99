package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/arena"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/entitlements"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

type enqueueRequest struct {
	Mode string `json:"mode"`
}

type matchResultRequest struct {
	WinnerID uint `json:"winner_id"`
}

// HandleArenaEnqueue puts the caller into the matchmaking queue.
func HandleArenaEnqueue(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req enqueueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = models.ArenaModeStandard
	}
	if mode != models.ArenaModeBlitz && mode != models.ArenaModeStandard {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_mode"})
	}

	repos := repository.GetGlobalRepositories()
	profile, err := repos.User.GetProfile(userCtx.UserID)
	if err != nil {
		log.Errorf("[Arena] Failed to load profile for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "profile_lookup_failed"})
	}

	plan := entitlements.EffectivePlan(profile)
	if !entitlements.ModeAllowed(plan, mode) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "plan_required",
			"message": "this duel mode needs a paid plan",
		})
	}

	if _, err := repos.ArenaMatch.ActiveForUser(userCtx.UserID); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "match_in_progress"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Arena] Active match lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "queue_failed"})
	}

	ticket, err := arena.GetManager().GetQueue().Enqueue(c.Context(), userCtx.UserID, userCtx.Username, profile.ArenaRating, mode)
	if err != nil {
		log.Errorf("[Arena] Enqueue failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "queue_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// HandleArenaTicket reports the state of a matchmaking ticket. Clients poll
// this until the status flips to matched.
func HandleArenaTicket(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	ticketID := c.Params("id")

	ticket, err := arena.GetManager().GetQueue().GetTicket(c.Context(), ticketID)
	if err != nil {
		if err == redis.Nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_ticket"})
		}
		log.Errorf("[Arena] Ticket lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ticket_lookup_failed"})
	}
	if ticket.UserID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}
	return c.JSON(ticket)
}

// HandleArenaLeave cancels a waiting ticket.
func HandleArenaLeave(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	ticketID := c.Params("id")

	queue := arena.GetManager().GetQueue()
	ticket, err := queue.GetTicket(c.Context(), ticketID)
	if err != nil {
		if err == redis.Nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_ticket"})
		}
		log.Errorf("[Arena] Ticket lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ticket_lookup_failed"})
	}
	if ticket.UserID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	if err := queue.Leave(c.Context(), ticketID); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "leave_failed", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleArenaMatch returns a match with its dealt problems.
func HandleArenaMatch(c *fiber.Ctx) error {
	matchID := c.Params("id")

	repos := repository.GetGlobalRepositories()
	match, err := repos.ArenaMatch.GetByMatchID(matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_match"})
		}
		log.Errorf("[Arena] Match lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "match_lookup_failed"})
	}

	problems, err := repos.Problem.GetByIDs(match.ProblemIDs())
	if err != nil {
		log.Errorf("[Arena] Problem lookup for match %s failed: %v", matchID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "match_lookup_failed"})
	}

	return c.JSON(fiber.Map{"match": match, "problems": problems})
}

// HandleArenaResult settles a match with its winner.
func HandleArenaResult(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	matchID := c.Params("id")

	var req matchResultRequest
	if err := c.BodyParser(&req); err != nil || req.WinnerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "winner_id is required"})
	}

	repos := repository.GetGlobalRepositories()
	match, err := repos.ArenaMatch.GetByMatchID(matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_match"})
		}
		log.Errorf("[Arena] Match lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "match_lookup_failed"})
	}
	if userCtx.UserID != match.PlayerOneID && userCtx.UserID != match.PlayerTwoID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	svc := arena.NewService(repos.ArenaMatch, repos.User)
	settled, err := svc.FinishMatch(matchID, req.WinnerID)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "result_rejected", "message": err.Error()})
	}
	return c.JSON(settled)
}

// HandleArenaAbort cancels an active match without rating movement.
func HandleArenaAbort(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	matchID := c.Params("id")

	repos := repository.GetGlobalRepositories()
	svc := arena.NewService(repos.ArenaMatch, repos.User)
	match, err := svc.AbortMatch(matchID, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_match"})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "abort_rejected", "message": err.Error()})
	}
	return c.JSON(match)
}

// HandleArenaHistory lists the caller's recent matches.
func HandleArenaHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	matches, err := repository.GetGlobalRepositories().ArenaMatch.ListRecentForUser(userCtx.UserID, limit)
	if err != nil {
		log.Errorf("[Arena] History lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "history_lookup_failed"})
	}
	return c.JSON(fiber.Map{"matches": matches})
}
