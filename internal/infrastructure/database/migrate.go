package database

import (
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table owned by the payment core.
var Models = []interface{}{
	&model.User{},
	&model.Payment{},
	&model.CreditBalance{},
	&model.CreditGrant{},
	&model.Subscription{},
	&model.UserQuota{},
	&model.ProviderConfig{},
	&model.WebhookEventLog{},
}

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(Models...); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	if db.Dialector.Name() == "postgres" {
		logger.Info("Creating custom indexes...")
		if err := createCustomIndexes(db); err != nil {
			logger.Error("Failed to create custom indexes", zap.Error(err))
			return err
		}
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// At most one active subscription per user
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_subscription_per_user ON subscriptions (user_id) WHERE status = 'active'`).Error; err != nil {
		return err
	}

	// Reconciliation scans succeeded payments with a missing entitlement
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_payments_entitlement_pending ON payments (updated_at) WHERE status = 'SUCCEEDED' AND entitlement_status IN ('', 'failed')`).Error; err != nil {
		return err
	}

	// At most one active provider config
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_provider_config ON payment_provider_configs (is_active) WHERE is_active`).Error; err != nil {
		return err
	}

	return nil
}
