package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// RenewalPeriod is how far a subscription.charged event pushes end_date.
const RenewalPeriod = 30 * 24 * time.Hour

// Service owns the webhook reconciliation workflow: the idempotency ledger
// and the subscription state machine driven by provider events.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a payments service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a payments service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordWebhookEvent persists webhook payloads idempotently. The returned
// bool is false when the event id was seen before, in which case the stored
// row is returned untouched and the caller must skip all side effects.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		OrderID:         strings.TrimSpace(in.OrderID),
		PaymentID:       strings.TrimSpace(in.PaymentID),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ProcessEvent dispatches a verified, non-duplicate event to its handler.
// Unrecognized event types return nil so the endpoint acknowledges them.
// Handler errors propagate to the caller, which records them on the ledger
// but still acknowledges receipt to the provider.
func (s *Service) ProcessEvent(ctx context.Context, ev *WebhookPayload) error {
	_ = ctx
	switch ev.Event {
	case EventPaymentCaptured, EventOrderPaid:
		return s.repo.Transaction(func(tx Repository) error {
			return s.handlePaymentSuccess(tx, ev)
		})
	case EventPaymentFailed:
		return s.repo.Transaction(func(tx Repository) error {
			return s.handlePaymentFailure(tx, ev)
		})
	case EventSubscriptionActivated:
		return s.repo.Transaction(func(tx Repository) error {
			return s.handleSubscriptionActivated(tx, ev)
		})
	case EventSubscriptionCharged:
		return s.repo.Transaction(func(tx Repository) error {
			return s.handleSubscriptionCharged(tx, ev)
		})
	case EventSubscriptionCancelled, EventSubscriptionPaused:
		return s.repo.Transaction(func(tx Repository) error {
			return s.handleSubscriptionHalted(tx, ev)
		})
	case EventSubscriptionCompleted:
		return s.repo.Transaction(func(tx Repository) error {
			return s.handleSubscriptionCompleted(tx, ev)
		})
	default:
		log.Infof("[Payments] Ignoring unhandled event type %q", ev.Event)
		return nil
	}
}

func (s *Service) handlePaymentSuccess(repo Repository, ev *WebhookPayload) error {
	pay := ev.PaymentEntity()
	if pay == nil && ev.OrderEntity() == nil {
		return errors.New("payment success event missing payment and order entities")
	}
	orderID := ev.OrderID()
	if orderID == "" {
		return errors.New("payment success event missing order id")
	}

	sub, err := repo.GetSubscriptionByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Payments] No subscription for order %s, skipping payment success", orderID)
			return nil
		}
		return err
	}
	// Already-completed orders are a no-op even when the ledger missed the
	// duplicate (second delivery under a fresh event id).
	if sub.PaymentStatus == models.PaymentStatusCompleted {
		return nil
	}

	sub.Status = models.SubscriptionStatusActive
	sub.PaymentStatus = models.PaymentStatusCompleted
	if pay != nil {
		sub.LastPaymentID = pay.ID
		if pay.Amount > 0 {
			sub.AmountPaise = pay.Amount
		}
		if pay.Currency != "" {
			sub.Currency = pay.Currency
		}
	}
	if sub.EndDate == nil {
		end := s.now().Add(RenewalPeriod)
		sub.EndDate = &end
	}
	if err := repo.SaveSubscription(sub); err != nil {
		return err
	}

	if pay != nil && pay.ID != "" {
		if err := repo.UpsertPurchase(&models.Purchase{
			UserID:      sub.UserID,
			OrderID:     orderID,
			PaymentID:   pay.ID,
			Status:      models.PurchaseStatusPaid,
			AmountPaise: pay.Amount,
			Currency:    pay.Currency,
		}); err != nil {
			return err
		}
	}
	return repo.MirrorProfileSubscription(sub.UserID, models.SubscriptionStatusActive, sub.EndDate)
}

func (s *Service) handlePaymentFailure(repo Repository, ev *WebhookPayload) error {
	pay := ev.PaymentEntity()
	if pay == nil {
		return errors.New("payment failure event missing payment entity")
	}
	orderID := ev.OrderID()
	if orderID == "" {
		return errors.New("payment failure event missing order id")
	}

	sub, err := repo.GetSubscriptionByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Payments can fail for orders we never tracked as subscriptions.
			log.Warnf("[Payments] No subscription for failed order %s", orderID)
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusCancelled
	sub.PaymentStatus = models.PaymentStatusFailed
	sub.LastPaymentID = pay.ID
	if err := repo.SaveSubscription(sub); err != nil {
		return err
	}

	if pay.ID != "" {
		return repo.UpsertPurchase(&models.Purchase{
			UserID:      sub.UserID,
			OrderID:     orderID,
			PaymentID:   pay.ID,
			Status:      models.PurchaseStatusFailed,
			AmountPaise: pay.Amount,
			Currency:    pay.Currency,
		})
	}
	return nil
}

func (s *Service) handleSubscriptionActivated(repo Repository, ev *WebhookPayload) error {
	ent := ev.SubscriptionEntity()
	if ent == nil {
		return errors.New("subscription activated event missing subscription entity")
	}
	userID, err := userIDFromNotes(ent.Notes)
	if err != nil {
		// Without a user id the activation cannot be attributed to an account.
		return fmt.Errorf("subscription activated: %w", err)
	}

	sub, err := repo.GetSubscriptionByProviderSubID(ent.ID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Payments] No subscription %s for user %d, skipping activation", ent.ID, userID)
			return nil
		}
		return err
	}
	if sub.Status == models.SubscriptionStatusActive {
		return nil
	}

	sub.Status = models.SubscriptionStatusActive
	return repo.SaveSubscription(sub)
}

func (s *Service) handleSubscriptionCharged(repo Repository, ev *WebhookPayload) error {
	ent := ev.SubscriptionEntity()
	if ent == nil {
		return errors.New("subscription charged event missing subscription entity")
	}

	sub, err := repo.GetSubscriptionByProviderSubID(ent.ID, 0)
	if errors.Is(err, gorm.ErrRecordNotFound) && ev.OrderID() != "" {
		sub, err = repo.GetSubscriptionByOrderID(ev.OrderID())
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Payments] No subscription matching charge for %s", ent.ID)
			return nil
		}
		return err
	}

	if payID := ev.PaymentID(); payID != "" {
		sub.LastPaymentID = payID
	}
	sub.Status = models.SubscriptionStatusActive
	sub.PaymentStatus = models.PaymentStatusCompleted

	// Renewal extends from whichever is later: the current paid-up end or
	// now. A lapsed subscription gets a full fresh period, an early charge
	// stacks onto the remaining one.
	now := s.now()
	base := now
	if sub.EndDate != nil && sub.EndDate.After(now) {
		base = *sub.EndDate
	}
	end := base.Add(RenewalPeriod)
	sub.EndDate = &end

	if err := repo.SaveSubscription(sub); err != nil {
		return err
	}
	return repo.MirrorProfileSubscription(sub.UserID, models.SubscriptionStatusActive, sub.EndDate)
}

func (s *Service) handleSubscriptionHalted(repo Repository, ev *WebhookPayload) error {
	ent := ev.SubscriptionEntity()
	if ent == nil {
		return errors.New("subscription halt event missing subscription entity")
	}
	status := models.SubscriptionStatusCancelled
	if ev.Event == EventSubscriptionPaused {
		status = models.SubscriptionStatusPaused
	}

	sub, err := repo.GetSubscriptionByProviderSubID(ent.ID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Payments] No subscription %s to mark %s", ent.ID, status)
			return nil
		}
		return err
	}

	sub.Status = status
	if err := repo.SaveSubscription(sub); err != nil {
		return err
	}
	// Paused is mirrored too; the profile is a cache of subscription state
	// and a paused plan must not keep reading as active on the dashboard.
	return repo.MirrorProfileSubscription(sub.UserID, status, nil)
}

func (s *Service) handleSubscriptionCompleted(repo Repository, ev *WebhookPayload) error {
	ent := ev.SubscriptionEntity()
	if ent == nil {
		return errors.New("subscription completed event missing subscription entity")
	}

	sub, err := repo.GetSubscriptionByProviderSubID(ent.ID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Payments] No subscription %s to complete", ent.ID)
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusCompleted
	if err := repo.SaveSubscription(sub); err != nil {
		return err
	}
	return repo.MirrorProfileSubscription(sub.UserID, models.SubscriptionStatusCompleted, nil)
}

func userIDFromNotes(notes Notes) (uint, error) {
	raw, ok := notes["user_id"]
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, errors.New("notes missing user_id")
	}
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user_id in notes: %q", raw)
	}
	return uint(id), nil
}
