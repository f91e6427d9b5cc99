package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/database"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/entitlements"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/judge"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/mail"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	CFHandle string `json:"cf_handle"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and emails the activation link.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	user.ActivationToken = uuid.New().String()
	now := time.Now()
	user.ActivationSentAt = &now

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Create(user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken"})
		}
		log.Errorf("[Auth] Failed to create user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration_failed"})
	}

	if _, err := repo.GetProfile(user.ID); err != nil {
		log.Errorf("[Auth] Failed to create profile for user %d: %v", user.ID, err)
	}

	go sendActivationMail(user.Email, user.Name, user.ActivationToken)

	// A handle given at signup is verified best-effort; failures leave the
	// account without one and /judge/verify can link it later.
	if handle := strings.TrimSpace(req.CFHandle); handle != "" {
		go verifyHandleInBackground(user.ID, handle)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"message": "registration successful, check your inbox for the activation link",
	})
}

// HandleActivate flips an account to active when the emailed token matches.
func HandleActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token is required"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	var user models.User
	if err := db.Where("activation_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_token"})
		}
		log.Errorf("[Auth] Activation lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "activation_failed"})
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := db.Save(&user).Error; err != nil {
		log.Errorf("[Auth] Failed to activate user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "activation_failed"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// HandleLogin verifies credentials and returns a fresh API key. Issuing on
// every login rotates the previous key.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !models.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials"})
	}
	if user.Status != models.STATUS_ACTIVE {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account_not_active"})
	}

	profile, err := repo.GetProfile(user.ID)
	if err != nil {
		log.Errorf("[Auth] Failed to load profile for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login_failed"})
	}

	rawKey, err := profile.IssueAPIKey()
	if err != nil {
		log.Errorf("[Auth] Failed to issue API key for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login_failed"})
	}
	if err := repo.SaveProfile(profile); err != nil {
		log.Errorf("[Auth] Failed to persist API key for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login_failed"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("[Auth] Failed to update last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"api_key": rawKey,
		"user": fiber.Map{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"cf_handle": user.CFHandle,
			"plan":      string(entitlements.EffectivePlan(profile)),
		},
	})
}

// HandleRevokeAPIKey invalidates the caller's current API key.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	profile, err := repo.GetProfile(userCtx.UserID)
	if err != nil {
		log.Errorf("[Auth] Failed to load profile for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "revoke_failed"})
	}

	profile.RevokeAPIKey()
	if err := repo.SaveProfile(profile); err != nil {
		log.Errorf("[Auth] Failed to revoke API key for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "revoke_failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleMe returns the caller's account, profile, and entitlements.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
	}
	profile, err := repo.GetProfile(user.ID)
	if err != nil {
		log.Errorf("[Auth] Failed to load profile for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "profile_lookup_failed"})
	}

	plan := entitlements.EffectivePlan(profile)
	return c.JSON(fiber.Map{
		"user":    user,
		"profile": profile,
		"entitlements": fiber.Map{
			"plan":             string(plan),
			"hint_quota":       entitlements.HintQuotaPerDay(plan),
			"arena_modes":      entitlements.AllowedArenaModes(plan),
			"subscription_end": profile.SubscriptionEnd,
		},
	})
}

func verifyHandleInBackground(userID uint, handle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	info, err := judge.NewCodeforcesClientFromEnv().GetUserInfo(ctx, handle)
	if err != nil {
		log.Warnf("[Auth] Signup handle verification failed for %q: %v", handle, err)
		return
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userID)
	if err != nil {
		return
	}
	now := time.Now()
	user.CFHandle = info.Handle
	user.CFRating = info.Rating
	user.CFVerifiedAt = &now
	if err := repo.Update(user); err != nil {
		log.Errorf("[Auth] Failed to save signup handle for user %d: %v", userID, err)
	}
}

func sendActivationMail(email, name, token string) {
	appURL := env.GetEnv("APP_URL", "http://localhost:8080")
	link := fmt.Sprintf("%s/api/v1/auth/activate?token=%s", strings.TrimRight(appURL, "/"), token)
	body := fmt.Sprintf("<p>Hi %s,</p><p>confirm your AlgoRise account by opening <a href=\"%s\">this link</a>.</p>", name, link)
	if err := mail.SendMail(email, "Activate your AlgoRise account", body); err != nil {
		log.Errorf("[Auth] Failed to send activation mail to %s: %v", email, err)
	}
}
