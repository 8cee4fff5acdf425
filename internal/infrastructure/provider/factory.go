package provider

import (
	"context"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/config"
	domainErrors "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/provider"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider/midtrans"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider/stripe"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider/xendit"
	"go.uber.org/zap"
)

// Factory resolves webhook adapters from static credentials and the cached
// admin selection.
type Factory struct {
	config *config.ProvidersConfig
	cache  ConfigCache
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.ProvidersConfig, cache ConfigCache, logger *zap.Logger) *Factory {
	return &Factory{
		config: cfg,
		cache:  cache,
		logger: logger,
	}
}

// GetActiveProvider returns the adapter for the admin selected provider. It
// fails closed with ErrNoProviderConfigured.
func (f *Factory) GetActiveProvider(ctx context.Context) (provider.Adapter, error) {
	active, err := f.cache.Get(ctx)
	if err != nil {
		f.logger.Error("Failed to load provider config", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrNoProviderConfigured, err)
	}
	if active.SecretErr != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrNoProviderConfigured, active.SecretErr)
	}

	adapter, err := f.build(provider.ProviderType(active.ActiveProvider), active.WebhookSecret)
	if err != nil {
		f.logger.Error("Active provider unavailable",
			zap.String("provider", active.ActiveProvider),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrNoProviderConfigured, err)
	}
	return adapter, nil
}

// GetProvider returns the adapter for name whether or not it is active, so
// in-flight payments keep settling after an admin switches providers.
func (f *Factory) GetProvider(ctx context.Context, name string) (provider.Adapter, error) {
	providerType := provider.ProviderType(name)
	if !providerType.Valid() {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrUnknownProvider, name)
	}

	override := ""
	if active, err := f.cache.Get(ctx); err == nil && active.ActiveProvider == name {
		if active.SecretErr != nil {
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrNoProviderConfigured, active.SecretErr)
		}
		override = active.WebhookSecret
	}

	return f.build(providerType, override)
}

// ActiveConfig returns the cached selection.
func (f *Factory) ActiveConfig(ctx context.Context) (*ActiveConfig, error) {
	return f.cache.Get(ctx)
}

func (f *Factory) build(providerType provider.ProviderType, secretOverride string) (provider.Adapter, error) {
	switch providerType {
	case provider.ProviderTypeXendit:
		token := firstNonEmpty(secretOverride, f.config.Xendit.WebhookToken)
		if token == "" {
			return nil, fmt.Errorf("xendit webhook token not configured")
		}
		return xendit.NewAdapter(token, f.logger.Named("xendit")), nil
	case provider.ProviderTypeMidtrans:
		key := firstNonEmpty(secretOverride, f.config.Midtrans.ServerKey)
		if key == "" {
			return nil, fmt.Errorf("midtrans server key not configured")
		}
		return midtrans.NewAdapter(key, f.logger.Named("midtrans")), nil
	case provider.ProviderTypeStripe:
		secret := firstNonEmpty(secretOverride, f.config.Stripe.WebhookSecret)
		if secret == "" {
			return nil, fmt.Errorf("stripe webhook secret not configured")
		}
		return stripe.NewAdapter(secret, f.config.Stripe.Tolerance, f.logger.Named("stripe")), nil
	default:
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrUnknownProvider, providerType)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
