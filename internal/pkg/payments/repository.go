package payments

import (
	"time"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the payments service.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	GetSubscriptionByOrderID(orderID string) (*models.Subscription, error)
	// GetSubscriptionByProviderSubID looks up by provider subscription id;
	// userID 0 matches any owner.
	GetSubscriptionByProviderSubID(providerSubID string, userID uint) (*models.Subscription, error)
	CreateSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error
	UpsertPurchase(p *models.Purchase) error
	MirrorProfileSubscription(userID uint, status string, end *time.Time) error
	// Transaction runs fn against a repository bound to one DB transaction,
	// so each handler's multi-table mutation commits or rolls back as a unit.
	Transaction(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetSubscriptionByOrderID(orderID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("razorpay_order_id = ?", orderID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByProviderSubID(providerSubID string, userID uint) (*models.Subscription, error) {
	q := r.db.Where("razorpay_subscription_id = ?", providerSubID)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var sub models.Subscription
	if err := q.First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) UpsertPurchase(p *models.Purchase) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "payment_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_id",
			"status",
			"amount_paise",
			"currency",
			"updated_at",
		}),
	}).Create(p).Error
}

func (r *gormRepository) MirrorProfileSubscription(userID uint, status string, end *time.Time) error {
	updates := map[string]interface{}{
		"subscription_status": status,
	}
	if end != nil {
		updates["subscription_end"] = end
	}
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
