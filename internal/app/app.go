// Package app wires configuration into repositories, adapters and services.
package app

import (
	"context"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/config"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/crypto"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/database"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/notification"
	infraProvider "github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/Posteriot/makalah-app-sub005/pkg/messaging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Repos  *database.Repositories
	Redis  messaging.RedisClient

	ConfigCache infraProvider.ConfigCache
	Factory     *infraProvider.Factory

	Credits       *usecase.CreditService
	Subscriptions *usecase.SubscriptionService
	Quotas        *usecase.QuotaService
	Dispatcher    *usecase.Dispatcher
	Notifications *usecase.NotificationService
	Webhooks      *usecase.WebhookService
	Reconcile     *usecase.ReconcileService
	Payments      *usecase.PaymentService
	ProviderAdmin *usecase.ProviderConfigService
}

// New connects to the database, migrates it and builds every service.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, logger); err != nil {
		database.Close(db, logger)
		return nil, err
	}

	a, err := Wire(cfg, db, logger)
	if err != nil {
		database.Close(db, logger)
		return nil, err
	}
	return a, nil
}

// Wire builds the services on an open database.
func Wire(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Repos:  database.NewRepositories(db, logger),
	}

	// A nil *AESSealer must not reach the SecretSealer interface.
	var sealer crypto.SecretSealer
	if cfg.Service.EncryptionKey != "" {
		aes, err := crypto.NewAESSealer(cfg.Service.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to build secret sealer: %w", err)
		}
		sealer = aes
	} else {
		logger.Warn("No encryption key configured; provider secrets cannot be stored in the database")
	}

	// Same for a nil RedisClient behind the Publisher interface.
	var publisher usecase.Publisher
	if cfg.Redis.Enabled() {
		client, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable; provider config changes propagate by TTL only", zap.Error(err))
		} else {
			a.Redis = client
			publisher = client
		}
	}

	a.ConfigCache = infraProvider.NewConfigCache(a.Repos.ProviderConfig, sealer, cfg.Cache.ProviderConfigTTL, logger)
	a.Factory = infraProvider.NewFactory(&cfg.Providers, a.ConfigCache, logger.Named("provider"))

	var notifier notification.Notifier
	if cfg.Email.Enabled {
		notifier = notification.NewSMTPNotifier(&cfg.Email, cfg.Service.AppURL, logger.Named("email"))
	} else {
		notifier = notification.NewNoopNotifier()
	}

	a.Credits = usecase.NewCreditService(a.Repos.Credit, a.Repos.User, logger)
	a.Subscriptions = usecase.NewSubscriptionService(a.Repos.Subscription, a.Repos.Credit, a.Repos.User, logger)
	a.Quotas = usecase.NewQuotaService(a.Repos.Quota, a.Repos.User, logger)
	a.Dispatcher = usecase.NewDispatcher(a.Credits, a.Subscriptions, a.Quotas, logger)
	a.Notifications = usecase.NewNotificationService(notifier, a.Repos.User, cfg.Email.NotifyTimeout, logger)
	a.Webhooks = usecase.NewWebhookService(a.Repos.Payment, a.Repos.WebhookEvent, a.Dispatcher, a.Notifications, logger)
	a.Reconcile = usecase.NewReconcileService(a.Repos.Payment, a.Dispatcher, cfg.Reconcile.StaleAfter, cfg.Reconcile.BatchSize, logger)
	a.Payments = usecase.NewPaymentService(a.Repos.Payment, a.ConfigCache, logger)
	a.ProviderAdmin = usecase.NewProviderConfigService(a.Repos.ProviderConfig, a.ConfigCache, sealer, publisher, logger)

	return a, nil
}

// ListenForConfigChanges blocks dropping the provider cache on remote writes.
// It returns immediately when Redis is not configured.
func (a *App) ListenForConfigChanges(ctx context.Context) error {
	if a.Redis == nil {
		return nil
	}
	return infraProvider.ListenForInvalidation(ctx, a.ConfigCache, a.Redis, a.Logger)
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close waits for queued emails and releases connections.
func (a *App) Close() {
	a.Notifications.Wait()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if err := database.Close(a.DB, a.Logger); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
}
