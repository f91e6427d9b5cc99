package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Razorpay webhook event types this service reacts to. Anything else is
// acknowledged and marked processed without side effects so new provider
// event types never cause request failures.
const (
	EventPaymentCaptured       = "payment.captured"
	EventPaymentFailed         = "payment.failed"
	EventOrderPaid             = "order.paid"
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionPaused    = "subscription.paused"
	EventSubscriptionCompleted = "subscription.completed"
)

// Notes is Razorpay's free-form notes field. The API serializes empty notes
// as [] and populated notes as an object, so unmarshalling has to accept both.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		*n = nil
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	*n = out
	return nil
}

type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	Notes            Notes  `json:"notes"`
}

type OrderEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	Notes    Notes  `json:"notes"`
}

type SubscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	CurrentEnd int64  `json:"current_end"`
	Notes      Notes  `json:"notes"`
}

// WebhookPayload is the typed shape of a Razorpay webhook body. One entity
// pointer per event family; handlers check for the entity they need instead
// of navigating untyped JSON.
type WebhookPayload struct {
	Event     string `json:"event"`
	AccountID string `json:"account_id"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment *struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment,omitempty"`
		Order *struct {
			Entity OrderEntity `json:"entity"`
		} `json:"order,omitempty"`
		Subscription *struct {
			Entity SubscriptionEntity `json:"entity"`
		} `json:"subscription,omitempty"`
	} `json:"payload"`
}

// Payment returns the payment entity or nil.
func (w *WebhookPayload) PaymentEntity() *PaymentEntity {
	if w.Payload.Payment == nil {
		return nil
	}
	return &w.Payload.Payment.Entity
}

// OrderEntity returns the order entity or nil.
func (w *WebhookPayload) OrderEntity() *OrderEntity {
	if w.Payload.Order == nil {
		return nil
	}
	return &w.Payload.Order.Entity
}

// SubscriptionEntity returns the subscription entity or nil.
func (w *WebhookPayload) SubscriptionEntity() *SubscriptionEntity {
	if w.Payload.Subscription == nil {
		return nil
	}
	return &w.Payload.Subscription.Entity
}

// ParseWebhookPayload decodes a raw webhook body. It fails only on malformed
// JSON or a missing event tag; entity-level requirements are enforced by the
// individual handlers.
func ParseWebhookPayload(raw []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	p.Event = strings.ToLower(strings.TrimSpace(p.Event))
	if p.Event == "" {
		return nil, errors.New("webhook payload missing event type")
	}
	return &p, nil
}

// OrderID extracts the order reference of the event, preferring the payment
// entity's order_id over the order entity's own id.
func (w *WebhookPayload) OrderID() string {
	if pay := w.PaymentEntity(); pay != nil && strings.TrimSpace(pay.OrderID) != "" {
		return strings.TrimSpace(pay.OrderID)
	}
	if ord := w.OrderEntity(); ord != nil {
		return strings.TrimSpace(ord.ID)
	}
	return ""
}

// PaymentID extracts the payment reference of the event, if any.
func (w *WebhookPayload) PaymentID() string {
	if pay := w.PaymentEntity(); pay != nil {
		return strings.TrimSpace(pay.ID)
	}
	return ""
}
