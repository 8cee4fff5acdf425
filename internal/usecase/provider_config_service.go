package usecase

import (
	"context"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/crypto"
	infraProvider "github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// UpdateProviderConfigRequest is an admin change to the provider selection.
type UpdateProviderConfigRequest struct {
	ActiveProvider       string   `json:"active_provider" validate:"required,oneof=xendit midtrans stripe"`
	EnabledMethods       []string `json:"enabled_methods" validate:"required,min=1,dive,oneof=QRIS VIRTUAL_ACCOUNT EWALLET"`
	WebhookURL           *string  `json:"webhook_url,omitempty" validate:"omitempty,max=255"`
	DefaultExpiryMinutes *int     `json:"default_expiry_minutes,omitempty" validate:"omitempty,min=5,max=1440"`
	// WebhookSecret replaces the configured secret of the active provider
	WebhookSecret string `json:"webhook_secret,omitempty" validate:"omitempty,min=8"`
	UpdatedBy     string `json:"updated_by" validate:"required,max=255"`
}

// Publisher broadcasts to other instances.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// ProviderConfigService reads and writes the admin provider selection.
type ProviderConfigService struct {
	repo      domainRepo.ProviderConfigRepository
	cache     infraProvider.ConfigCache
	sealer    crypto.SecretSealer
	publisher Publisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewProviderConfigService creates a new provider config service. sealer and
// publisher may be nil.
func NewProviderConfigService(
	repo domainRepo.ProviderConfigRepository,
	cache infraProvider.ConfigCache,
	sealer crypto.SecretSealer,
	publisher Publisher,
	logger *zap.Logger,
) *ProviderConfigService {
	return &ProviderConfigService{
		repo:      repo,
		cache:     cache,
		sealer:    sealer,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Get returns the cached active selection.
func (s *ProviderConfigService) Get(ctx context.Context) (*infraProvider.ActiveConfig, error) {
	return s.cache.Get(ctx)
}

// Update stores req, drops the local cache and announces the change.
func (s *ProviderConfigService) Update(ctx context.Context, req *UpdateProviderConfigRequest) (*infraProvider.ActiveConfig, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}

	cfg := &model.ProviderConfig{
		ActiveProvider:       req.ActiveProvider,
		WebhookURL:           req.WebhookURL,
		DefaultExpiryMinutes: req.DefaultExpiryMinutes,
		UpdatedBy:            req.UpdatedBy,
	}
	cfg.SetMethods(req.EnabledMethods)

	if req.WebhookSecret != "" {
		if s.sealer == nil {
			return nil, crypto.ErrNoKey
		}
		cipherText, iv, err := s.sealer.Seal(req.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to seal webhook secret: %w", err)
		}
		cfg.WebhookSecretCipher = &cipherText
		cfg.WebhookSecretIV = &iv
	}

	if _, err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, infraProvider.InvalidationChannel, req.ActiveProvider); err != nil {
			// Other instances fall back to the cache TTL.
			s.logger.Warn("Failed to broadcast provider config invalidation", zap.Error(err))
		}
	}

	s.logger.Info("Provider config updated",
		zap.String("active_provider", req.ActiveProvider),
		zap.Strings("enabled_methods", req.EnabledMethods),
		zap.String("updated_by", req.UpdatedBy),
		zap.Bool("webhook_secret_changed", req.WebhookSecret != ""))

	return s.cache.Get(ctx)
}
