package payments

import "testing"

func TestParseWebhookPayload(t *testing.T) {
	raw := []byte(`{
		"event": "Payment.Captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_123",
					"order_id": "order_456",
					"status": "captured",
					"amount": 49900,
					"currency": "INR",
					"notes": {"user_id": "7"}
				}
			}
		}
	}`)

	ev, err := ParseWebhookPayload(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.Event != EventPaymentCaptured {
		t.Fatalf("expected normalized event type, got %q", ev.Event)
	}
	pay := ev.PaymentEntity()
	if pay == nil || pay.ID != "pay_123" || pay.OrderID != "order_456" {
		t.Fatalf("unexpected payment entity: %+v", pay)
	}
	if ev.OrderID() != "order_456" || ev.PaymentID() != "pay_123" {
		t.Fatalf("unexpected refs: order=%q payment=%q", ev.OrderID(), ev.PaymentID())
	}
	if pay.Notes["user_id"] != "7" {
		t.Fatalf("expected notes to decode, got %+v", pay.Notes)
	}
}

func TestParseWebhookPayload_MissingEvent(t *testing.T) {
	if _, err := ParseWebhookPayload([]byte(`{"payload":{}}`)); err == nil {
		t.Fatalf("expected error for missing event tag")
	}
	if _, err := ParseWebhookPayload([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed body")
	}
}

// Razorpay serializes empty notes as [] instead of {}.
func TestNotes_ArrayForm(t *testing.T) {
	raw := []byte(`{
		"event": "subscription.charged",
		"payload": {
			"subscription": { "entity": { "id": "sub_1", "notes": [] } }
		}
	}`)
	ev, err := ParseWebhookPayload(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ent := ev.SubscriptionEntity()
	if ent == nil || ent.ID != "sub_1" {
		t.Fatalf("unexpected subscription entity: %+v", ent)
	}
	if len(ent.Notes) != 0 {
		t.Fatalf("expected empty notes, got %+v", ent.Notes)
	}
}

func TestOrderID_PrefersPaymentOrderRef(t *testing.T) {
	raw := []byte(`{
		"event": "order.paid",
		"payload": {
			"payment": { "entity": { "id": "pay_1", "order_id": "order_from_payment" } },
			"order": { "entity": { "id": "order_own_id", "status": "paid" } }
		}
	}`)
	ev, err := ParseWebhookPayload(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := ev.OrderID(); got != "order_from_payment" {
		t.Fatalf("expected payment order ref to win, got %q", got)
	}
}
