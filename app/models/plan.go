package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan describes a purchasable tier shown on the pricing page and mapped to
// a Razorpay plan for recurring billing.
type Plan struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	PricePaise     int64     `gorm:"not null;default:0" json:"price_paise"`
	Currency       string    `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`
	DurationDays   int       `gorm:"not null;default:30" json:"duration_days"`
	RazorpayPlanID string    `gorm:"type:varchar(191);default:''" json:"razorpay_plan_id"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	PlanFree  = "free"
	PlanPro   = "pro"
	PlanElite = "elite"
)

// EnsureDefaultPlans seeds the three tiers on first boot. Existing rows are
// left alone so price changes made in the DB survive restarts.
func EnsureDefaultPlans(db *gorm.DB) error {
	defaults := []Plan{
		{
			Code:         PlanFree,
			Name:         "Free",
			Description:  "Practice recommendations, standard arena, one hint a day.",
			PricePaise:   0,
			Currency:     "INR",
			DurationDays: 0,
		},
		{
			Code:         PlanPro,
			Name:         "Pro",
			Description:  "Blitz arena, ten hints a day, full attempt history.",
			PricePaise:   29900,
			Currency:     "INR",
			DurationDays: 30,
		},
		{
			Code:         PlanElite,
			Name:         "Elite",
			Description:  "Everything in Pro plus fifty hints a day.",
			PricePaise:   59900,
			Currency:     "INR",
			DurationDays: 30,
		},
	}

	for i := range defaults {
		if err := db.Where(Plan{Code: defaults[i].Code}).FirstOrCreate(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
