// Package xendit verifies Xendit payment request webhooks.
package xendit

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/provider"
	"go.uber.org/zap"
)

// CallbackTokenHeader carries the shared webhook token.
const CallbackTokenHeader = "x-callback-token"

type webhookPayload struct {
	Event      string      `json:"event"`
	BusinessID string      `json:"business_id"`
	Created    string      `json:"created"`
	APIVersion string      `json:"api_version"`
	Data       webhookData `json:"data"`
}

type webhookData struct {
	PaymentID        string                 `json:"payment_id"`
	PaymentRequestID string                 `json:"payment_request_id"`
	ReferenceID      string                 `json:"reference_id"`
	Status           string                 `json:"status"`
	RequestAmount    float64                `json:"request_amount"`
	Currency         string                 `json:"currency"`
	ChannelCode      string                 `json:"channel_code"`
	FailureCode      string                 `json:"failure_code,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	Captures         []struct {
		CaptureID        string  `json:"capture_id"`
		CaptureTimestamp string  `json:"capture_timestamp"`
		CaptureAmount    float64 `json:"capture_amount"`
	} `json:"captures,omitempty"`
}

// Adapter implements provider.Adapter for Xendit.
type Adapter struct {
	webhookToken string
	logger       *zap.Logger
}

// NewAdapter creates a Xendit adapter checking deliveries against webhookToken.
func NewAdapter(webhookToken string, logger *zap.Logger) *Adapter {
	return &Adapter{
		webhookToken: webhookToken,
		logger:       logger,
	}
}

func (a *Adapter) Name() provider.ProviderType {
	return provider.ProviderTypeXendit
}

func (a *Adapter) VerifyWebhook(ctx context.Context, r *http.Request) (*provider.WebhookEvent, error) {
	if a.webhookToken == "" {
		a.logger.Error("Xendit webhook token is not configured")
		return nil, nil
	}

	token := r.Header.Get(CallbackTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.webhookToken)) != 1 {
		a.logger.Warn("Invalid Xendit callback token")
		return nil, nil
	}

	body, err := provider.ReadBody(r)
	if errors.Is(err, provider.ErrBodyTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, provider.NewMalformedPayloadError(err.Error())
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, provider.NewMalformedPayloadError(err.Error())
	}

	event := &provider.WebhookEvent{
		Provider:          provider.ProviderTypeXendit,
		ProviderPaymentID: payload.Data.PaymentRequestID,
		RawAmount:         int64(payload.Data.RequestAmount),
		ChannelCode:       payload.Data.ChannelCode,
		FailureCode:       payload.Data.FailureCode,
		EventType:         payload.Event,
		ProviderStatus:    payload.Data.Status,
		Metadata:          payload.Data.Metadata,
	}

	status, ok := mapEventToStatus(payload.Event)
	if !ok {
		a.logger.Info("Unhandled Xendit event type", zap.String("event", payload.Event))
		event.Ignored = true
		return event, nil
	}
	event.Status = status

	if event.ProviderPaymentID == "" {
		return nil, provider.NewMalformedPayloadError("missing payment_request_id")
	}

	if len(payload.Data.Captures) > 0 && payload.Data.Captures[0].CaptureTimestamp != "" {
		if paidAt, err := time.Parse(time.RFC3339, payload.Data.Captures[0].CaptureTimestamp); err == nil {
			event.PaidAt = &paidAt
		} else {
			a.logger.Warn("Unparseable Xendit capture timestamp",
				zap.String("capture_timestamp", payload.Data.Captures[0].CaptureTimestamp),
				zap.Error(err))
		}
	}

	return event, nil
}

func mapEventToStatus(event string) (billing.PaymentStatus, bool) {
	switch event {
	case "payment.capture":
		return billing.PaymentStatusSucceeded, true
	case "payment.failed":
		return billing.PaymentStatusFailed, true
	case "payment_request.expired":
		return billing.PaymentStatusExpired, true
	default:
		return "", false
	}
}
