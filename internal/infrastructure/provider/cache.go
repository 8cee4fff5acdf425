package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/crypto"
	"github.com/Posteriot/makalah-app-sub005/pkg/messaging"
	"go.uber.org/zap"
)

// InvalidationChannel is the Redis channel announcing provider config writes.
const InvalidationChannel = "payment:provider-config:invalidate"

// DefaultWebhookURL is used until an admin stores a config.
const DefaultWebhookURL = "/api/webhooks/payment"

// DefaultExpiryMinutes is the checkout expiry used until an admin stores a config.
const DefaultExpiryMinutes = 30

// ActiveConfig is the resolved provider selection.
type ActiveConfig struct {
	ActiveProvider       string   `json:"active_provider"`
	EnabledMethods       []string `json:"enabled_methods"`
	WebhookURL           string   `json:"webhook_url"`
	DefaultExpiryMinutes int      `json:"default_expiry_minutes"`
	// WebhookSecret overrides the configured secret of the active provider
	WebhookSecret string `json:"-"`
	// SecretErr is set when a stored webhook secret could not be opened
	SecretErr error `json:"-"`
	// Stored is false when no config row exists and defaults are in use
	Stored    bool      `json:"stored"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DefaultActiveConfig is the selection used when nothing is stored.
func DefaultActiveConfig() *ActiveConfig {
	methods := make([]string, 0, len(billing.PaymentMethods))
	for _, m := range billing.PaymentMethods {
		methods = append(methods, string(m))
	}
	return &ActiveConfig{
		ActiveProvider:       "xendit",
		EnabledMethods:       methods,
		WebhookURL:           DefaultWebhookURL,
		DefaultExpiryMinutes: DefaultExpiryMinutes,
	}
}

// ConfigCache serves the active provider config with a TTL.
type ConfigCache interface {
	Get(ctx context.Context) (*ActiveConfig, error)
	Invalidate()
}

type providerConfigCache struct {
	repo   domainRepo.ProviderConfigRepository
	sealer crypto.SecretSealer
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	value      *ActiveConfig
	fetchedAt  time.Time
	generation uint64
}

// NewConfigCache creates the process-wide provider config cache. sealer may be
// nil when no webhook secret overrides are stored.
func NewConfigCache(repo domainRepo.ProviderConfigRepository, sealer crypto.SecretSealer, ttl time.Duration, logger *zap.Logger) ConfigCache {
	return &providerConfigCache{
		repo:   repo,
		sealer: sealer,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (c *providerConfigCache) Get(ctx context.Context) (*ActiveConfig, error) {
	c.mu.RLock()
	if c.value != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		value := c.value
		c.mu.RUnlock()
		return value, nil
	}
	generation := c.generation
	c.mu.RUnlock()

	stored, err := c.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	value := c.resolve(stored)

	// An Invalidate during the read means stored may predate the write.
	c.mu.Lock()
	if c.generation == generation {
		c.value = value
		c.fetchedAt = c.now()
	}
	c.mu.Unlock()

	return value, nil
}

func (c *providerConfigCache) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.fetchedAt = time.Time{}
	c.generation++
	c.mu.Unlock()
}

func (c *providerConfigCache) resolve(stored *model.ProviderConfig) *ActiveConfig {
	value := DefaultActiveConfig()
	if stored == nil {
		return value
	}

	value.Stored = true
	value.ActiveProvider = stored.ActiveProvider
	if methods := stored.Methods(); len(methods) > 0 {
		value.EnabledMethods = methods
	}
	if stored.WebhookURL != nil && *stored.WebhookURL != "" {
		value.WebhookURL = *stored.WebhookURL
	}
	if stored.DefaultExpiryMinutes != nil && *stored.DefaultExpiryMinutes > 0 {
		value.DefaultExpiryMinutes = *stored.DefaultExpiryMinutes
	}
	value.UpdatedBy = stored.UpdatedBy
	value.UpdatedAt = stored.UpdatedAt

	if stored.WebhookSecretCipher != nil && stored.WebhookSecretIV != nil {
		if c.sealer == nil {
			value.SecretErr = crypto.ErrNoKey
			c.logger.Error("Stored webhook secret unreadable, no encryption key configured",
				zap.String("provider", value.ActiveProvider))
		} else if secret, err := c.sealer.Open(*stored.WebhookSecretCipher, *stored.WebhookSecretIV); err != nil {
			value.SecretErr = fmt.Errorf("open stored webhook secret: %w", err)
			c.logger.Error("Failed to open stored webhook secret",
				zap.String("provider", value.ActiveProvider),
				zap.Error(err))
		} else {
			value.WebhookSecret = secret
		}
	}

	return value
}

// ListenForInvalidation drops the cache whenever another instance announces a
// config write. It returns when ctx is done or the subscription closes.
func ListenForInvalidation(ctx context.Context, cache ConfigCache, client messaging.RedisClient, logger *zap.Logger) error {
	messages, err := client.Subscribe(ctx, InvalidationChannel)
	if err != nil {
		return err
	}

	logger.Info("Listening for provider config invalidations", zap.String("channel", InvalidationChannel))
	for msg := range messages {
		cache.Invalidate()

		var activeProvider string
		if err := msg.Decode(&activeProvider); err != nil {
			logger.Warn("Unreadable provider config invalidation", zap.Error(err))
			continue
		}
		logger.Info("Provider config cache invalidated", zap.String("active_provider", activeProvider))
	}
	return nil
}
