package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateIfNoneActive relies on the partial unique index on (user_id) WHERE
// status = 'active' in postgres; the in-transaction check covers other dialects.
func (r *subscriptionRepository) CreateIfNoneActive(ctx context.Context, sub *model.Subscription) (*model.Subscription, bool, error) {
	var result *model.Subscription
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.activeByUser(tx, sub.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		result = sub
		created = true
		return nil
	})

	if err != nil {
		// Lost an insert race against the unique index.
		if existing, lookupErr := r.GetActiveByUser(ctx, sub.UserID); lookupErr == nil && existing != nil {
			return existing, false, nil
		}
		r.logger.Error("Failed to create subscription",
			zap.String("user_id", sub.UserID),
			zap.String("plan_type", string(sub.PlanType)),
			zap.Error(err))
		return nil, false, err
	}

	return result, created, nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetActiveByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	return r.activeByUser(r.db.WithContext(ctx), userID)
}

func (r *subscriptionRepository) activeByUser(tx *gorm.DB, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := tx.Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Order("current_period_end DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatestByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest subscription: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListPeriodEnded(ctx context.Context, statuses []model.SubscriptionStatus, endedBy time.Time, limit int) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	query := r.db.WithContext(ctx).
		Where("status IN ? AND current_period_end <= ?", statuses, endedBy).
		Order("current_period_end ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list ended subscriptions: %w", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to update subscription",
			zap.String("subscription_id", id.String()),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *subscriptionRepository) ApplyRenewal(ctx context.Context, id uuid.UUID, paymentID uint, updates map[string]interface{}) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", id)
	if paymentID != 0 {
		query = query.Where("(last_payment_id IS NULL OR last_payment_id <> ?)", paymentID)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to renew subscription",
			zap.String("subscription_id", id.String()),
			zap.Uint("payment_id", paymentID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to renew subscription: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("subscription %s: %w", id, gorm.ErrRecordNotFound)
	}
	return false, nil
}
