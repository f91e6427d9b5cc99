package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/payments"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/ratelimit"
)

const testWebhookSecret = "whsec_test"

type stubPaymentsRepo struct {
	events      map[string]*models.WebhookEvent
	subs        []*models.Subscription
	purchases   []*models.Purchase
	marked      int
	lastMarkErr string
	nextID      uint
}

func newStubPaymentsRepo() *stubPaymentsRepo {
	return &stubPaymentsRepo{events: map[string]*models.WebhookEvent{}}
}

func (f *stubPaymentsRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		return false, existing, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[key] = event
	return true, event, nil
}

func (f *stubPaymentsRepo) MarkWebhookProcessed(id uint, processingError string) error {
	f.marked++
	f.lastMarkErr = processingError
	return nil
}

func (f *stubPaymentsRepo) GetSubscriptionByOrderID(orderID string) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.RazorpayOrderID == orderID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *stubPaymentsRepo) GetSubscriptionByProviderSubID(providerSubID string, userID uint) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.RazorpaySubscriptionID == providerSubID && (userID == 0 || s.UserID == userID) {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *stubPaymentsRepo) CreateSubscription(sub *models.Subscription) error {
	f.subs = append(f.subs, sub)
	return nil
}

func (f *stubPaymentsRepo) SaveSubscription(sub *models.Subscription) error { return nil }

func (f *stubPaymentsRepo) UpsertPurchase(p *models.Purchase) error {
	f.purchases = append(f.purchases, p)
	return nil
}

func (f *stubPaymentsRepo) MirrorProfileSubscription(userID uint, status string, end *time.Time) error {
	return nil
}

func (f *stubPaymentsRepo) Transaction(fn func(payments.Repository) error) error {
	return fn(f)
}

func newWebhookTestApp(repo *stubPaymentsRepo, limiter ratelimit.Limiter, secret string) *fiber.App {
	InitializeWebhookController(payments.NewService(repo), limiter, func() string { return secret })

	app := fiber.New()
	app.Post("/api/v1/payments/webhook", HandleRazorpayWebhook)
	return app
}

func signTestBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedBody(orderID string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"event": "payment.captured",
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       "pay_123",
					"order_id": orderID,
					"status":   "captured",
					"amount":   49900,
					"currency": "INR",
				},
			},
		},
	})
	return body
}

func postWebhook(app *fiber.App, body []byte, headers map[string]string) (int, map[string]interface{}) {
	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestWebhook_MissingSignature(t *testing.T) {
	app := newWebhookTestApp(newStubPaymentsRepo(), nil, testWebhookSecret)

	status, body := postWebhook(app, capturedBody("order_1"), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "missing_signature", body["error"])
}

func TestWebhook_InvalidSignature(t *testing.T) {
	repo := newStubPaymentsRepo()
	app := newWebhookTestApp(repo, nil, testWebhookSecret)

	status, body := postWebhook(app, capturedBody("order_1"), map[string]string{
		"X-Razorpay-Signature": "deadbeef",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid_signature", body["error"])
	assert.Empty(t, repo.events, "rejected deliveries must not reach the ledger")
}

func TestWebhook_SecretNotConfigured(t *testing.T) {
	app := newWebhookTestApp(newStubPaymentsRepo(), nil, "")

	status, body := postWebhook(app, capturedBody("order_1"), map[string]string{
		"X-Razorpay-Signature": "anything",
	})
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "webhook_not_configured", body["error"])
}

func TestWebhook_ProcessesCapturedPayment(t *testing.T) {
	repo := newStubPaymentsRepo()
	sub := &models.Subscription{
		UserID:          7,
		PlanCode:        "pro",
		RazorpayOrderID: "order_1",
		Status:          models.SubscriptionStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
	}
	repo.subs = append(repo.subs, sub)
	app := newWebhookTestApp(repo, nil, testWebhookSecret)

	payload := capturedBody("order_1")
	status, body := postWebhook(app, payload, map[string]string{
		"X-Razorpay-Signature": signTestBody(payload),
		"X-Razorpay-Event-Id":  "evt_1",
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["processed"])
	assert.NotEmpty(t, body["duration"])

	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, models.PaymentStatusCompleted, sub.PaymentStatus)
	assert.Equal(t, "pay_123", sub.LastPaymentID)
	assert.Len(t, repo.purchases, 1)
	assert.Equal(t, 1, repo.marked)
}

func TestWebhook_DuplicateDelivery(t *testing.T) {
	repo := newStubPaymentsRepo()
	sub := &models.Subscription{
		UserID:          7,
		RazorpayOrderID: "order_1",
		Status:          models.SubscriptionStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
	}
	repo.subs = append(repo.subs, sub)
	app := newWebhookTestApp(repo, nil, testWebhookSecret)

	payload := capturedBody("order_1")
	headers := map[string]string{
		"X-Razorpay-Signature": signTestBody(payload),
		"X-Razorpay-Event-Id":  "evt_dup",
	}

	status, _ := postWebhook(app, payload, headers)
	assert.Equal(t, fiber.StatusOK, status)

	status, body := postWebhook(app, payload, headers)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["processed"])
	assert.Equal(t, true, body["duplicate"])
	assert.Len(t, repo.purchases, 1, "second delivery must not re-run the handler")
}

func TestWebhook_UnknownEventTypeAcknowledged(t *testing.T) {
	repo := newStubPaymentsRepo()
	app := newWebhookTestApp(repo, nil, testWebhookSecret)

	payload := []byte(`{"event":"invoice.generated","payload":{}}`)
	status, body := postWebhook(app, payload, map[string]string{
		"X-Razorpay-Signature": signTestBody(payload),
		"X-Razorpay-Event-Id":  "evt_unknown",
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Empty(t, repo.purchases)
	assert.Empty(t, repo.subs)
}

func TestWebhook_HandlerErrorStillAcknowledged(t *testing.T) {
	repo := newStubPaymentsRepo()
	app := newWebhookTestApp(repo, nil, testWebhookSecret)

	// subscription.activated without a user id in the notes: the handler
	// rejects it, but redelivery cannot fix it, so the provider gets a 200.
	payload := []byte(`{"event":"subscription.activated","payload":{"subscription":{"entity":{"id":"sub_1","notes":[]}}}}`)
	status, body := postWebhook(app, payload, map[string]string{
		"X-Razorpay-Signature": signTestBody(payload),
		"X-Razorpay-Event-Id":  "evt_bad_sub",
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["processed"])
	assert.NotEmpty(t, body["duration"])

	assert.Equal(t, 1, repo.marked, "the failure must still be recorded on the ledger")
	assert.NotEmpty(t, repo.lastMarkErr)
	assert.Empty(t, repo.subs, "the malformed event must not create a subscription")
}

func TestWebhook_MalformedPayload(t *testing.T) {
	app := newWebhookTestApp(newStubPaymentsRepo(), nil, testWebhookSecret)

	payload := []byte(`{"event":`)
	status, body := postWebhook(app, payload, map[string]string{
		"X-Razorpay-Signature": signTestBody(payload),
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_payload", body["error"])
}

func TestWebhook_RateLimited(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(time.Minute, 2)
	defer limiter.Stop()
	app := newWebhookTestApp(newStubPaymentsRepo(), limiter, testWebhookSecret)

	payload := capturedBody("order_1")
	headers := func(i int) map[string]string {
		return map[string]string{
			"X-Razorpay-Signature": signTestBody(payload),
			"X-Razorpay-Event-Id":  fmt.Sprintf("evt_rl_%d", i),
			"X-Forwarded-For":      "203.0.113.9",
		}
	}

	for i := 0; i < 2; i++ {
		status, _ := postWebhook(app, payload, headers(i))
		assert.Equal(t, fiber.StatusOK, status)
	}

	status, body := postWebhook(app, payload, headers(3))
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body["error"])
}
