package payments

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"gorm.io/gorm"
)

type profileMirror struct {
	status string
	end    *time.Time
}

type fakeRepo struct {
	events    map[string]*models.WebhookEvent
	subs      []*models.Subscription
	purchases []*models.Purchase
	profiles  map[uint]*profileMirror
	saves     int
	nextID    uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:   make(map[string]*models.WebhookEvent),
		profiles: make(map[uint]*profileMirror),
	}
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := f.events[key]; ok {
		return false, stored, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, ev := range f.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetSubscriptionByOrderID(orderID string) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.RazorpayOrderID == orderID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetSubscriptionByProviderSubID(providerSubID string, userID uint) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.RazorpaySubscriptionID == providerSubID && (userID == 0 || s.UserID == userID) {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateSubscription(sub *models.Subscription) error {
	f.nextID++
	sub.ID = f.nextID
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeRepo) SaveSubscription(sub *models.Subscription) error {
	f.saves++
	return nil
}

func (f *fakeRepo) UpsertPurchase(p *models.Purchase) error {
	f.purchases = append(f.purchases, p)
	return nil
}

func (f *fakeRepo) MirrorProfileSubscription(userID uint, status string, end *time.Time) error {
	f.profiles[userID] = &profileMirror{status: status, end: end}
	return nil
}

func (f *fakeRepo) Transaction(fn func(Repository) error) error {
	return fn(f)
}

func mustParse(t *testing.T, raw string) *WebhookPayload {
	t.Helper()
	ev, err := ParseWebhookPayload([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return ev
}

func capturedEvent(orderID, paymentID string) string {
	return fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": { "payment": { "entity": {
			"id": %q, "order_id": %q, "status": "captured",
			"amount": 49900, "currency": "INR"
		} } }
	}`, paymentID, orderID)
}

func chargedEvent(subID, paymentID string) string {
	return fmt.Sprintf(`{
		"event": "subscription.charged",
		"payload": {
			"subscription": { "entity": { "id": %q, "status": "active", "notes": [] } },
			"payment": { "entity": { "id": %q, "amount": 49900 } }
		}
	}`, subID, paymentID)
}

func TestRecordWebhookEvent_DuplicateShortCircuits(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	in := WebhookEventInput{
		Provider:        models.PaymentProviderRazorpay,
		ProviderEventID: "evt_1",
		EventType:       EventPaymentCaptured,
		PayloadJSON:     `{}`,
		SignatureValid:  true,
	}
	created, first, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil || !created {
		t.Fatalf("expected first record to create, got created=%v err=%v", created, err)
	}
	created, second, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected duplicate delivery to be detected")
	}
	if second.ID != first.ID {
		t.Fatalf("expected stored row to be returned on duplicate")
	}
}

func TestRecordWebhookEvent_EmptyIDHashedFromPayload(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, stored, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    models.PaymentProviderRazorpay,
		EventType:   EventPaymentCaptured,
		PayloadJSON: `{"event":"payment.captured"}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stored.ProviderEventID, "hash:") {
		t.Fatalf("expected hashed fallback event id, got %q", stored.ProviderEventID)
	}
}

func TestPaymentCaptured_TransitionsPendingSubscription(t *testing.T) {
	repo := newFakeRepo()
	sub := &models.Subscription{
		UserID:          7,
		RazorpayOrderID: "order_1",
		Status:          models.SubscriptionStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
	}
	repo.subs = append(repo.subs, sub)
	svc := NewService(repo)

	if err := svc.ProcessEvent(context.Background(), mustParse(t, capturedEvent("order_1", "pay_1"))); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusActive || sub.PaymentStatus != models.PaymentStatusCompleted {
		t.Fatalf("unexpected state after capture: status=%q payment=%q", sub.Status, sub.PaymentStatus)
	}
	if sub.LastPaymentID != "pay_1" {
		t.Fatalf("expected payment id stamped, got %q", sub.LastPaymentID)
	}
	if len(repo.purchases) != 1 || repo.purchases[0].Status != models.PurchaseStatusPaid {
		t.Fatalf("expected paid purchase mirror, got %+v", repo.purchases)
	}
	if mirror := repo.profiles[7]; mirror == nil || mirror.status != models.SubscriptionStatusActive {
		t.Fatalf("expected profile mirror active, got %+v", repo.profiles[7])
	}
}

// A second capture for the same order under a fresh event id must be a no-op
// even without the ledger (defense in depth via the already-completed check).
func TestPaymentCaptured_AlreadyCompletedNoOp(t *testing.T) {
	repo := newFakeRepo()
	sub := &models.Subscription{
		UserID:          7,
		RazorpayOrderID: "order_1",
		Status:          models.SubscriptionStatusActive,
		PaymentStatus:   models.PaymentStatusCompleted,
		LastPaymentID:   "pay_1",
	}
	repo.subs = append(repo.subs, sub)
	svc := NewService(repo)

	if err := svc.ProcessEvent(context.Background(), mustParse(t, capturedEvent("order_1", "pay_2"))); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected no subscription write, got %d saves", repo.saves)
	}
	if sub.LastPaymentID != "pay_1" {
		t.Fatalf("expected original payment id retained, got %q", sub.LastPaymentID)
	}
	if len(repo.purchases) != 0 {
		t.Fatalf("expected no purchase mirror, got %+v", repo.purchases)
	}
}

func TestPaymentFailed_CancelsSubscription(t *testing.T) {
	repo := newFakeRepo()
	sub := &models.Subscription{
		UserID:          3,
		RazorpayOrderID: "order_9",
		Status:          models.SubscriptionStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
	}
	repo.subs = append(repo.subs, sub)
	svc := NewService(repo)

	ev := mustParse(t, `{
		"event": "payment.failed",
		"payload": { "payment": { "entity": { "id": "pay_f", "order_id": "order_9", "error_code": "BAD_REQUEST_ERROR" } } }
	}`)
	if err := svc.ProcessEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusCancelled || sub.PaymentStatus != models.PaymentStatusFailed {
		t.Fatalf("unexpected state after failure: status=%q payment=%q", sub.Status, sub.PaymentStatus)
	}
	if len(repo.purchases) != 1 || repo.purchases[0].Status != models.PurchaseStatusFailed {
		t.Fatalf("expected failed purchase mirror, got %+v", repo.purchases)
	}
}

// Payments for untracked orders are a logged no-op, not an error.
func TestPaymentFailed_UnknownOrderNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	ev := mustParse(t, `{
		"event": "payment.failed",
		"payload": { "payment": { "entity": { "id": "pay_f", "order_id": "order_unknown" } } }
	}`)
	if err := svc.ProcessEvent(context.Background(), ev); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
	if repo.saves != 0 || len(repo.purchases) != 0 {
		t.Fatalf("expected zero writes for unknown order")
	}
}

func TestSubscriptionActivated_RequiresUserID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	ev := mustParse(t, `{
		"event": "subscription.activated",
		"payload": { "subscription": { "entity": { "id": "rzsub_1", "status": "active", "notes": [] } } }
	}`)
	if err := svc.ProcessEvent(context.Background(), ev); err == nil {
		t.Fatalf("expected hard error when notes lack user_id")
	}
}

func TestSubscriptionActivated_AlreadyActiveNoOp(t *testing.T) {
	repo := newFakeRepo()
	sub := &models.Subscription{
		UserID:                 5,
		RazorpaySubscriptionID: "rzsub_1",
		Status:                 models.SubscriptionStatusActive,
	}
	repo.subs = append(repo.subs, sub)
	svc := NewService(repo)

	ev := mustParse(t, `{
		"event": "subscription.activated",
		"payload": { "subscription": { "entity": { "id": "rzsub_1", "notes": {"user_id": "5"} } } }
	}`)
	if err := svc.ProcessEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected no write for already-active subscription")
	}
}

func TestSubscriptionCharged_ExtendsFromLaterOfEndOrNow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		end     time.Time
		wantEnd time.Time
	}{
		{name: "lapsed", end: now.Add(-10 * 24 * time.Hour), wantEnd: now.Add(RenewalPeriod)},
		{name: "early renewal", end: now.Add(5 * 24 * time.Hour), wantEnd: now.Add(5 * 24 * time.Hour).Add(RenewalPeriod)},
	}

	for _, tt := range tests {
		repo := newFakeRepo()
		end := tt.end
		sub := &models.Subscription{
			UserID:                 11,
			RazorpaySubscriptionID: "rzsub_2",
			Status:                 models.SubscriptionStatusActive,
			PaymentStatus:          models.PaymentStatusCompleted,
			EndDate:                &end,
		}
		repo.subs = append(repo.subs, sub)
		svc := NewService(repo)
		svc.now = func() time.Time { return now }

		if err := svc.ProcessEvent(context.Background(), mustParse(t, chargedEvent("rzsub_2", "pay_r"))); err != nil {
			t.Fatalf("%s: unexpected handler error: %v", tt.name, err)
		}
		if sub.EndDate == nil || !sub.EndDate.Equal(tt.wantEnd) {
			t.Fatalf("%s: end date = %v, want %v", tt.name, sub.EndDate, tt.wantEnd)
		}
		if sub.LastPaymentID != "pay_r" {
			t.Fatalf("%s: expected renewal payment id stamped", tt.name)
		}
		mirror := repo.profiles[11]
		if mirror == nil || mirror.end == nil || !mirror.end.Equal(tt.wantEnd) {
			t.Fatalf("%s: expected profile mirror updated, got %+v", tt.name, mirror)
		}
	}
}

func TestSubscriptionCharged_UnknownSubscriptionNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if err := svc.ProcessEvent(context.Background(), mustParse(t, chargedEvent("rzsub_missing", "pay_x"))); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
	if repo.saves != 0 || len(repo.profiles) != 0 {
		t.Fatalf("expected zero writes for unknown subscription")
	}
}

func TestSubscriptionPaused_MirrorsProfile(t *testing.T) {
	repo := newFakeRepo()
	sub := &models.Subscription{
		UserID:                 4,
		RazorpaySubscriptionID: "rzsub_3",
		Status:                 models.SubscriptionStatusActive,
	}
	repo.subs = append(repo.subs, sub)
	svc := NewService(repo)

	ev := mustParse(t, `{
		"event": "subscription.paused",
		"payload": { "subscription": { "entity": { "id": "rzsub_3", "notes": [] } } }
	}`)
	if err := svc.ProcessEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusPaused {
		t.Fatalf("expected paused status, got %q", sub.Status)
	}
	if mirror := repo.profiles[4]; mirror == nil || mirror.status != models.SubscriptionStatusPaused {
		t.Fatalf("expected paused mirrored onto profile, got %+v", repo.profiles[4])
	}
}

func TestSubscriptionCompleted_Terminal(t *testing.T) {
	repo := newFakeRepo()
	sub := &models.Subscription{
		UserID:                 4,
		RazorpaySubscriptionID: "rzsub_4",
		Status:                 models.SubscriptionStatusActive,
	}
	repo.subs = append(repo.subs, sub)
	svc := NewService(repo)

	ev := mustParse(t, `{
		"event": "subscription.completed",
		"payload": { "subscription": { "entity": { "id": "rzsub_4", "notes": [] } } }
	}`)
	if err := svc.ProcessEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusCompleted || !sub.IsTerminal() {
		t.Fatalf("expected terminal completed status, got %q", sub.Status)
	}
}

func TestProcessEvent_UnknownTypeNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	ev := mustParse(t, `{"event": "some.unrecognized.type", "payload": {}}`)
	if err := svc.ProcessEvent(context.Background(), ev); err != nil {
		t.Fatalf("expected unknown event to be accepted, got %v", err)
	}
	if repo.saves != 0 || len(repo.purchases) != 0 || len(repo.profiles) != 0 {
		t.Fatalf("expected zero writes for unknown event type")
	}
}
