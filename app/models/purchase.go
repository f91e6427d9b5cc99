package models

import "time"

const (
	PurchaseStatusPaid   = "paid"
	PurchaseStatusFailed = "failed"
)

// Purchase is a denormalized best-effort mirror of payment outcomes per
// order, kept for billing history pages. Not authoritative; the
// subscriptions table is.
type Purchase struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	OrderID     string    `gorm:"type:varchar(191);not null;index" json:"order_id"`
	PaymentID   string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_purchases_payment_id" json:"payment_id"`
	Status      string    `gorm:"type:varchar(16);not null" json:"status"`
	AmountPaise int64     `gorm:"default:0" json:"amount_paise"`
	Currency    string    `gorm:"type:varchar(8);default:'INR'" json:"currency"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
