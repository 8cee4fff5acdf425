package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type providerConfigRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProviderConfigRepository creates a new provider config repository
func NewProviderConfigRepository(db *gorm.DB, logger *zap.Logger) domainRepo.ProviderConfigRepository {
	return &providerConfigRepository{
		db:     db,
		logger: logger,
	}
}

func (r *providerConfigRepository) GetActive(ctx context.Context) (*model.ProviderConfig, error) {
	return r.active(r.db.WithContext(ctx))
}

func (r *providerConfigRepository) active(tx *gorm.DB) (*model.ProviderConfig, error) {
	var cfg model.ProviderConfig
	err := tx.Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get provider config: %w", err)
	}
	return &cfg, nil
}

func (r *providerConfigRepository) Upsert(ctx context.Context, cfg *model.ProviderConfig) (*model.ProviderConfig, error) {
	var saved *model.ProviderConfig

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.active(tx)
		if err != nil {
			return err
		}

		if existing == nil {
			cfg.IsActive = true
			if err := tx.Create(cfg).Error; err != nil {
				return fmt.Errorf("failed to create provider config: %w", err)
			}
			saved = cfg
			return nil
		}

		updates := map[string]interface{}{
			"active_provider":        cfg.ActiveProvider,
			"enabled_methods":        cfg.EnabledMethods,
			"webhook_url":            cfg.WebhookURL,
			"default_expiry_minutes": cfg.DefaultExpiryMinutes,
			"updated_by":             cfg.UpdatedBy,
			"updated_at":             time.Now(),
		}
		if cfg.WebhookSecretCipher != nil {
			updates["webhook_secret_cipher"] = cfg.WebhookSecretCipher
			updates["webhook_secret_iv"] = cfg.WebhookSecretIV
		}
		if err := tx.Model(existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update provider config: %w", err)
		}

		reloaded, err := r.active(tx)
		if err != nil {
			return err
		}
		saved = reloaded
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert provider config",
			zap.String("active_provider", cfg.ActiveProvider),
			zap.Error(err))
		return nil, err
	}

	return saved, nil
}
