package repository

import (
	"context"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
)

// WebhookEventRepository keeps the delivery log.
type WebhookEventRepository interface {
	// Record appends a delivery and returns its id
	Record(ctx context.Context, event *model.WebhookEventLog) error

	// SetOutcome finalizes a delivery
	SetOutcome(ctx context.Context, id uint, outcome model.WebhookOutcome, errMsg string) error

	// ListByOutcome returns deliveries with outcome received after since
	ListByOutcome(ctx context.Context, outcome model.WebhookOutcome, since time.Time, limit int) ([]*model.WebhookEventLog, error)

	// ListByPayment returns the deliveries for one provider payment id, oldest first
	ListByPayment(ctx context.Context, providerPaymentID string) ([]*model.WebhookEventLog, error)
}
