// Package stripe verifies Stripe payment intent webhooks.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/provider"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

// SignatureHeader carries the Stripe webhook signature.
const SignatureHeader = "Stripe-Signature"

// Adapter implements provider.Adapter for Stripe.
type Adapter struct {
	webhookSecret string
	tolerance     time.Duration
	logger        *zap.Logger
}

// NewAdapter creates a Stripe adapter. A zero tolerance uses the library default.
func NewAdapter(webhookSecret string, tolerance time.Duration, logger *zap.Logger) *Adapter {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Adapter{
		webhookSecret: webhookSecret,
		tolerance:     tolerance,
		logger:        logger,
	}
}

func (a *Adapter) Name() provider.ProviderType {
	return provider.ProviderTypeStripe
}

func (a *Adapter) VerifyWebhook(ctx context.Context, r *http.Request) (*provider.WebhookEvent, error) {
	if a.webhookSecret == "" {
		a.logger.Error("Stripe webhook secret is not configured")
		return nil, nil
	}

	body, err := provider.ReadBody(r)
	if errors.Is(err, provider.ErrBodyTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, nil
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get(SignatureHeader),
		a.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                a.tolerance,
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		a.logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		return nil, nil
	}

	a.logger.Debug("Stripe event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID))

	var status billing.PaymentStatus
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		status = billing.PaymentStatusSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		// The intent returns to requires_payment_method and may still succeed.
		status = billing.PaymentStatusPending
	case stripe.EventTypePaymentIntentCanceled:
		status = billing.PaymentStatusExpired
	default:
		a.logger.Info("Unhandled Stripe event type", zap.String("type", string(event.Type)))
		return &provider.WebhookEvent{
			Provider:  provider.ProviderTypeStripe,
			EventType: string(event.Type),
			Ignored:   true,
		}, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, provider.NewMalformedPayloadError(err.Error())
	}
	if intent.ID == "" {
		return nil, provider.NewMalformedPayloadError("missing payment intent id")
	}

	canonical := &provider.WebhookEvent{
		Provider:          provider.ProviderTypeStripe,
		ProviderPaymentID: intent.ID,
		Status:            status,
		RawAmount:         intent.Amount,
		EventType:         string(event.Type),
		ProviderStatus:    string(intent.Status),
		Metadata:          map[string]interface{}{"event_id": event.ID},
	}
	for k, v := range intent.Metadata {
		canonical.Metadata[k] = v
	}
	if len(intent.PaymentMethodTypes) > 0 {
		canonical.ChannelCode = intent.PaymentMethodTypes[0]
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		paidAt := time.Unix(event.Created, 0)
		canonical.PaidAt = &paidAt
	case stripe.EventTypePaymentIntentPaymentFailed:
		if intent.LastPaymentError != nil {
			canonical.FailureCode = string(intent.LastPaymentError.Code)
			if intent.LastPaymentError.DeclineCode != "" {
				canonical.Metadata["decline_code"] = string(intent.LastPaymentError.DeclineCode)
			}
		}
	}

	return canonical, nil
}
