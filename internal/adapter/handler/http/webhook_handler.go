package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	domainErrors "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/provider"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdapterResolver finds the webhook adapter for a delivery.
type AdapterResolver interface {
	GetProvider(ctx context.Context, name string) (provider.Adapter, error)
	GetActiveProvider(ctx context.Context) (provider.Adapter, error)
}

// WebhookProcessor applies a verified event.
type WebhookProcessor interface {
	Process(ctx context.Context, providerName string, event *provider.WebhookEvent) model.WebhookOutcome
}

// WebhookHandler receives provider payment notifications. Only a failed
// verification is answered with an error status; everything else is
// acknowledged so the provider stops retrying.
type WebhookHandler struct {
	resolver  AdapterResolver
	processor WebhookProcessor
	timeout   time.Duration
	logger    *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(resolver AdapterResolver, processor WebhookProcessor, timeout time.Duration, logger *zap.Logger) *WebhookHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookHandler{
		resolver:  resolver,
		processor: processor,
		timeout:   timeout,
		logger:    logger,
	}
}

// HandleProviderWebhook serves POST /webhooks/:provider.
func (h *WebhookHandler) HandleProviderWebhook(c echo.Context) error {
	name := c.Param("provider")

	adapter, err := h.resolver.GetProvider(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUnknownProvider) {
			h.logger.Warn("Webhook for unknown provider", zap.String("provider", name))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Unknown payment provider"})
		}
		h.logger.Error("Webhook provider unavailable",
			zap.String("provider", name),
			zap.Error(err))
		return h.respondUnauthorized(c)
	}

	return h.handle(c, adapter)
}

// HandleLegacyWebhook serves POST /api/webhooks/payment with the active provider.
func (h *WebhookHandler) HandleLegacyWebhook(c echo.Context) error {
	adapter, err := h.resolver.GetActiveProvider(c.Request().Context())
	if err != nil {
		h.logger.Error("No active provider for webhook", zap.Error(err))
		return h.respondUnauthorized(c)
	}

	return h.handle(c, adapter)
}

func (h *WebhookHandler) handle(c echo.Context, adapter provider.Adapter) error {
	req := c.Request()
	providerName := string(adapter.Name())

	event, err := adapter.VerifyWebhook(req.Context(), req)
	if errors.Is(err, provider.ErrBodyTooLarge) {
		h.logger.Warn("Webhook body too large",
			zap.String("provider", providerName),
			zap.Int("limit_bytes", provider.MaxWebhookBodyBytes))
		return h.respondUnauthorized(c)
	}
	if err != nil {
		h.logger.Warn("Malformed webhook payload",
			zap.String("provider", providerName),
			zap.Error(err))
		return h.respondUnauthorized(c)
	}
	if event == nil {
		h.logger.Warn("Webhook verification failed",
			zap.String("provider", providerName),
			zap.String("remote_ip", c.RealIP()))
		return h.respondUnauthorized(c)
	}

	// Processing outlives a dropped provider connection, bounded by the timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), h.timeout)
	defer cancel()

	outcome := h.processor.Process(ctx, providerName, event)
	if ctx.Err() == context.DeadlineExceeded {
		h.logger.Warn("Webhook processing timed out",
			zap.String("provider", providerName),
			zap.String("provider_payment_id", event.ProviderPaymentID),
			zap.Duration("timeout", h.timeout))
	}

	h.logger.Info("Webhook handled",
		zap.String("provider", providerName),
		zap.String("provider_payment_id", event.ProviderPaymentID),
		zap.String("status", string(event.Status)),
		zap.String("outcome", string(outcome)))

	return h.respondProcessed(c)
}

func (h *WebhookHandler) respondUnauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid webhook signature"})
}

func (h *WebhookHandler) respondProcessed(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "processed"})
}
