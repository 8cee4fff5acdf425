package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookOutcome is how the core disposed of a delivery.
type WebhookOutcome string

const (
	WebhookOutcomeReceived       WebhookOutcome = "received"
	WebhookOutcomeProcessed      WebhookOutcome = "processed"
	WebhookOutcomeDuplicate      WebhookOutcome = "duplicate"
	WebhookOutcomeUnknownPayment WebhookOutcome = "unknown_payment"
	WebhookOutcomeIgnored        WebhookOutcome = "ignored"
	WebhookOutcomeDispatchFailed WebhookOutcome = "dispatch_failed"
	WebhookOutcomeError          WebhookOutcome = "error"
)

// WebhookOutcomePaidAfterTerminal marks money captured on a payment already
// failed or expired. Nothing was granted.
const WebhookOutcomePaidAfterTerminal WebhookOutcome = "paid_after_terminal"

// WebhookEventLog is an append-only record of verified deliveries.
type WebhookEventLog struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	Provider          string            `gorm:"size:32;not null;index:idx_webhook_events_provider_payment" json:"provider"`
	ProviderPaymentID string            `gorm:"size:128;not null;index:idx_webhook_events_provider_payment" json:"provider_payment_id"`
	EventType         string            `gorm:"size:100" json:"event_type"`
	EventStatus       string            `gorm:"size:16" json:"event_status"`
	Payload           datatypes.JSONMap `json:"payload,omitempty"`
	Outcome           WebhookOutcome    `gorm:"size:32;not null;index" json:"outcome"`
	Error             *string           `json:"error,omitempty"`
	ReceivedAt        time.Time         `gorm:"not null;index" json:"received_at"`
	ProcessedAt       *time.Time        `json:"processed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (WebhookEventLog) TableName() string {
	return "payment_webhook_events"
}
