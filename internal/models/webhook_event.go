package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookOutcome - чем закончилась обработка доставки
type WebhookOutcome string

const (
	WebhookOutcomeApplied        WebhookOutcome = "applied"
	WebhookOutcomeDuplicate      WebhookOutcome = "duplicate"
	WebhookOutcomeRejected       WebhookOutcome = "rejected"
	WebhookOutcomeNotFound       WebhookOutcome = "not_found"
	WebhookOutcomeInvalidPayload WebhookOutcome = "invalid_payload"
	WebhookOutcomeError          WebhookOutcome = "error"
)

// WebhookEvent - журнал всех входящих вебхуков; для решений не используется
type WebhookEvent struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider         ProviderName   `gorm:"type:varchar(50);not null;index" json:"provider"`
	EventType        string         `gorm:"type:varchar(100)" json:"event_type"`
	PaymentInvoiceID string         `gorm:"type:varchar(190);index" json:"payment_invoice_id"`
	Payload          datatypes.JSON `json:"payload"`
	SignatureValid   bool           `json:"signature_valid"`
	Outcome          WebhookOutcome `gorm:"type:varchar(30);index" json:"outcome"`
	ProcessingError  string         `gorm:"type:text" json:"processing_error,omitempty"`
	ReceivedAt       time.Time      `gorm:"not null" json:"received_at"`
}

func (WebhookEvent) TableName() string {
	return "bif_webhook_events"
}
