package repositories

import (
	"time"

	"bif_backend/internal/models"

	"gorm.io/gorm"
)

type WebhookEventRepository interface {
	Create(db *gorm.DB, event *models.WebhookEvent) error
	FindByPaymentInvoiceID(db *gorm.DB, paymentInvoiceID string) ([]models.WebhookEvent, error)
	FindRecent(db *gorm.DB, provider models.ProviderName, limit int) ([]models.WebhookEvent, error)
	DeleteOlderThan(db *gorm.DB, before time.Time) (int64, error)
}

type WebhookEventRepositoryImpl struct{}

func NewWebhookEventRepository() WebhookEventRepository {
	return &WebhookEventRepositoryImpl{}
}

func (r *WebhookEventRepositoryImpl) Create(db *gorm.DB, event *models.WebhookEvent) error {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
	return db.Create(event).Error
}

func (r *WebhookEventRepositoryImpl) FindByPaymentInvoiceID(db *gorm.DB, paymentInvoiceID string) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := db.Where("payment_invoice_id = ?", paymentInvoiceID).
		Order("received_at ASC").Order("id ASC").
		Find(&events).Error
	return events, err
}

func (r *WebhookEventRepositoryImpl) FindRecent(db *gorm.DB, provider models.ProviderName, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	query := db.Order("received_at DESC").Order("id DESC")
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}

func (r *WebhookEventRepositoryImpl) DeleteOlderThan(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Where("received_at < ?", before).Delete(&models.WebhookEvent{})
	return result.RowsAffected, result.Error
}
