package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *webhookEventRepository) Record(ctx context.Context, event *model.WebhookEventLog) error {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
	if event.Outcome == "" {
		event.Outcome = model.WebhookOutcomeReceived
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.logger.Error("Failed to record webhook event",
			zap.String("provider", event.Provider),
			zap.String("provider_payment_id", event.ProviderPaymentID),
			zap.Error(err))
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

func (r *webhookEventRepository) SetOutcome(ctx context.Context, id uint, outcome model.WebhookOutcome, errMsg string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"outcome":      outcome,
		"processed_at": &now,
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEventLog{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to set webhook outcome",
			zap.Uint("event_id", id),
			zap.String("outcome", string(outcome)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to set webhook outcome: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %d", id)
	}
	return nil
}

func (r *webhookEventRepository) ListByOutcome(ctx context.Context, outcome model.WebhookOutcome, since time.Time, limit int) ([]*model.WebhookEventLog, error) {
	var events []*model.WebhookEventLog

	query := r.db.WithContext(ctx).
		Where("outcome = ? AND received_at >= ?", outcome, since).
		Order("received_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	return events, nil
}

func (r *webhookEventRepository) ListByPayment(ctx context.Context, providerPaymentID string) ([]*model.WebhookEventLog, error) {
	var events []*model.WebhookEventLog
	err := r.db.WithContext(ctx).
		Where("provider_payment_id = ?", providerPaymentID).
		Order("received_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	return events, nil
}
