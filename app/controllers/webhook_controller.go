package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/database"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/payments"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/ratelimit"
)

var (
	webhookService *payments.Service
	webhookLimiter ratelimit.Limiter
	webhookSecret  func() string
)

// InitializeWebhookController wires the webhook endpoint's dependencies.
// Passing nil for svc makes the handler build one per request from the
// global DB handle.
func InitializeWebhookController(svc *payments.Service, limiter ratelimit.Limiter, secret func() string) {
	webhookService = svc
	webhookLimiter = limiter
	webhookSecret = secret
}

func webhookPaymentsService() *payments.Service {
	if webhookService != nil {
		return webhookService
	}
	db := database.GetDB()
	if db == nil {
		return nil
	}
	return payments.NewServiceFromDB(db)
}

func webhookSecretValue() string {
	if webhookSecret != nil {
		return webhookSecret()
	}
	return env.GetEnv("RAZORPAY_WEBHOOK_SECRET", "")
}

// HandleRazorpayWebhook receives provider payment notifications. Order of
// checks: rate limit, signature presence, configuration, signature validity,
// payload shape, idempotency ledger, then the event handler. The provider
// retries on non-2xx, so only conditions a retry could fix return errors.
func HandleRazorpayWebhook(c *fiber.Ctx) error {
	start := time.Now()

	if webhookLimiter != nil && !webhookLimiter.Allow(RateLimitIdentifier(c)) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited"})
	}

	signature := strings.TrimSpace(c.Get("X-Razorpay-Signature"))
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_signature"})
	}

	secret := webhookSecretValue()
	if secret == "" {
		log.Error("[Payments] Webhook secret is not configured")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "webhook_not_configured"})
	}

	svc := webhookPaymentsService()
	if svc == nil {
		log.Error("[Payments] Webhook storage is unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	if !payments.VerifyWebhookSignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ev, err := payments.ParseWebhookPayload(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, err := svc.RecordWebhookEvent(ctx, payments.WebhookEventInput{
		Provider:        models.PaymentProviderRazorpay,
		ProviderEventID: strings.TrimSpace(c.Get("X-Razorpay-Event-Id")),
		EventType:       ev.Event,
		OrderID:         ev.OrderID(),
		PaymentID:       ev.PaymentID(),
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		// Ledger trouble must not drop a verified event; process without
		// duplicate protection and leave the error in the logs.
		log.Errorf("[Payments] Failed to record webhook event: %v", err)
		stored = nil
	} else if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":        true,
			"processed": false,
			"duplicate": true,
			"duration":  time.Since(start).String(),
		})
	}

	// Handler errors are recorded on the ledger and acknowledged with 200:
	// a malformed or incomplete event (a subscription.activated without a
	// user id, say) will not get better on redelivery, and a non-2xx here
	// would have the provider retry it for days.
	procErr := svc.ProcessEvent(ctx, ev)
	if stored != nil {
		if markErr := svc.MarkWebhookProcessed(ctx, stored.ID, procErr); markErr != nil {
			log.Errorf("[Payments] Failed to mark webhook event %d: %v", stored.ID, markErr)
		}
	}
	if procErr != nil {
		log.Errorf("[Payments] Webhook event %q failed: %v", ev.Event, procErr)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":        true,
		"processed": true,
		"duration":  time.Since(start).String(),
	})
}
