package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/database"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/payments"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/usercontext"
)

type checkoutRequest struct {
	PlanCode string `json:"plan_code"`
}

// HandleListPlans returns the purchasable plans.
func HandleListPlans(c *fiber.Ctx) error {
	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	plans := []models.Plan{}
	if err := db.Where("is_active = ?", true).Order("price_paise ASC").Find(&plans).Error; err != nil {
		log.Errorf("[Checkout] Failed to list plans: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan_lookup_failed"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleCreateOrder creates a one-off payment order for a plan and tracks it
// as a pending subscription. The webhook flips it to active once the payment
// is captured.
func HandleCreateOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.PlanCode) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "plan_code is required"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	plan, err := lookupPlan(db, req.PlanCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_plan"})
		}
		log.Errorf("[Checkout] Plan lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan_lookup_failed"})
	}

	client := payments.NewRazorpayClientFromEnv()
	if !client.IsConfigured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "payments_not_configured"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	receipt := fmt.Sprintf("algrs_%d_%d", userCtx.UserID, time.Now().Unix())
	order, err := client.CreateOrder(ctx, plan.PricePaise, plan.Currency, receipt, map[string]string{
		"user_id":   strconv.FormatUint(uint64(userCtx.UserID), 10),
		"plan_code": plan.Code,
	})
	if err != nil {
		log.Errorf("[Checkout] Failed to create order for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "order_creation_failed"})
	}

	sub := models.Subscription{
		UserID:          userCtx.UserID,
		PlanCode:        plan.Code,
		RazorpayOrderID: order.ID,
		Status:          models.SubscriptionStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		AmountPaise:     plan.PricePaise,
		Currency:        plan.Currency,
	}
	if err := db.Create(&sub).Error; err != nil {
		log.Errorf("[Checkout] Failed to track order %s: %v", order.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_tracking_failed"})
	}
	stampProfilePlan(db, userCtx.UserID, plan.Code)

	return c.JSON(fiber.Map{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   env.GetEnv("RAZORPAY_KEY_ID", ""),
	})
}

// HandleCreateSubscription starts recurring billing on a plan's provider
// mapping. The provider calls back with subscription.activated once the
// mandate is confirmed.
func HandleCreateSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.PlanCode) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "plan_code is required"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	plan, err := lookupPlan(db, req.PlanCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_plan"})
		}
		log.Errorf("[Checkout] Plan lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan_lookup_failed"})
	}
	if plan.RazorpayPlanID == "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "plan_not_billable"})
	}

	client := payments.NewRazorpayClientFromEnv()
	if !client.IsConfigured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "payments_not_configured"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	providerSub, err := client.CreateSubscription(ctx, plan.RazorpayPlanID, 12, map[string]string{
		"user_id":   strconv.FormatUint(uint64(userCtx.UserID), 10),
		"plan_code": plan.Code,
	})
	if err != nil {
		log.Errorf("[Checkout] Failed to create subscription for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "subscription_creation_failed"})
	}

	sub := models.Subscription{
		UserID:   userCtx.UserID,
		PlanCode: plan.Code,
		// The order-id column is unique; recurring rows get a synthetic one
		// derived from the provider subscription id.
		RazorpayOrderID:        "sub:" + providerSub.ID,
		RazorpaySubscriptionID: providerSub.ID,
		Status:                 models.SubscriptionStatusPending,
		PaymentStatus:          models.PaymentStatusPending,
		AmountPaise:            plan.PricePaise,
		Currency:               plan.Currency,
	}
	if err := db.Create(&sub).Error; err != nil {
		log.Errorf("[Checkout] Failed to track subscription %s: %v", providerSub.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_tracking_failed"})
	}
	stampProfilePlan(db, userCtx.UserID, plan.Code)

	return c.JSON(fiber.Map{
		"subscription_id": providerSub.ID,
		"short_url":       providerSub.ShortURL,
		"key_id":          env.GetEnv("RAZORPAY_KEY_ID", ""),
	})
}

// stampProfilePlan records which plan the user is buying. The plan only
// takes effect once the webhook mirrors an active subscription status.
func stampProfilePlan(db *gorm.DB, userID uint, planCode string) {
	if err := db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("plan", planCode).Error; err != nil {
		log.Errorf("[Checkout] Failed to stamp plan %s for user %d: %v", planCode, userID, err)
	}
}

func lookupPlan(db *gorm.DB, code string) (*models.Plan, error) {
	var plan models.Plan
	err := db.Where("code = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(code)), true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
