package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quotaRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(db *gorm.DB, logger *zap.Logger) domainRepo.QuotaRepository {
	return &quotaRepository{
		db:     db,
		logger: logger,
	}
}

func (r *quotaRepository) Upsert(ctx context.Context, quota *model.UserQuota) (bool, error) {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier", "period_start", "period_end",
			"allotted_tokens", "used_tokens", "remaining_tokens",
			"allotted_papers", "completed_papers",
			"daily_used_tokens", "last_daily_reset", "overage_tokens",
			"last_payment_id", "updated_at",
		}),
	}
	if quota.LastPaymentID != nil {
		onConflict.Where = clause.Where{Exprs: []clause.Expression{clause.Expr{
			SQL:  "user_quotas.last_payment_id IS NULL OR user_quotas.last_payment_id <> ?",
			Vars: []interface{}{*quota.LastPaymentID},
		}}}
	}

	result := r.db.WithContext(ctx).Clauses(onConflict).Create(quota)
	if result.Error != nil {
		r.logger.Error("Failed to upsert quota",
			zap.String("user_id", quota.UserID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to upsert quota: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *quotaRepository) GetByUser(ctx context.Context, userID string) (*model.UserQuota, error) {
	var quota model.UserQuota
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&quota).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}
	return &quota, nil
}
