package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type userRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, logger *zap.Logger) domainRepo.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateTier(ctx context.Context, id string, tier billing.Tier) error {
	return r.UpgradeTier(ctx, id, tier)
}

func (r *userRepository) UpgradeTier(ctx context.Context, id string, tier billing.Tier, from ...billing.Tier) error {
	query := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("subscription_status IN ?", from)
	}

	result := query.Updates(map[string]interface{}{
		"subscription_status": tier,
		"updated_at":          time.Now(),
	})
	if result.Error != nil {
		r.logger.Error("Failed to update user tier",
			zap.String("user_id", id),
			zap.String("tier", string(tier)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update user tier: %w", result.Error)
	}
	return nil
}
