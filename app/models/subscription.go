package models

import "time"

// Payment provider constants used across billing-related models.
const (
	PaymentProviderRazorpay = "razorpay"
)

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusCompleted = "completed"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Subscription is the authoritative record of a user's paid-plan state.
// Created pending at checkout, mutated only by webhook handlers afterwards,
// never hard-deleted; cancelled/completed are terminal writes.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;index" json:"user_id"`
	PlanCode               string     `gorm:"type:varchar(50);not null;default:'pro'" json:"plan_code"`
	RazorpayOrderID        string     `gorm:"type:varchar(191);uniqueIndex:ux_subscriptions_order_id" json:"razorpay_order_id"`
	RazorpaySubscriptionID string     `gorm:"type:varchar(191);default:'';index" json:"razorpay_subscription_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	PaymentStatus          string     `gorm:"type:varchar(32);not null;default:'pending'" json:"payment_status"`
	EndDate                *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	LastPaymentID          string     `gorm:"type:varchar(191);default:''" json:"last_payment_id"`
	AmountPaise            int64      `gorm:"default:0" json:"amount_paise"`
	Currency               string     `gorm:"type:varchar(8);default:'INR'" json:"currency"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the lifecycle status permits no further transitions.
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusCancelled || s.Status == SubscriptionStatusCompleted
}
