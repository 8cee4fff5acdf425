package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
)

// Adapter turns one provider's webhook wire format into a canonical WebhookEvent.
// Implementations are stateless and safe for concurrent use.
type Adapter interface {
	// Name returns the provider this adapter speaks for
	Name() ProviderType

	// VerifyWebhook authenticates and parses r. It returns (nil, nil) when the
	// request fails verification, and a *ProviderError when an authentic
	// request cannot be parsed. Callers must treat both as unauthenticated.
	VerifyWebhook(ctx context.Context, r *http.Request) (*WebhookEvent, error)
}

// WebhookEvent is the provider independent form of a payment notification.
type WebhookEvent struct {
	Provider          ProviderType          `json:"provider"`
	ProviderPaymentID string                `json:"provider_payment_id"`
	Status            billing.PaymentStatus `json:"status"`
	RawAmount         int64                 `json:"raw_amount"`
	ChannelCode       string                `json:"channel_code,omitempty"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	FailureCode       string                `json:"failure_code,omitempty"`

	// EventType and ProviderStatus are the provider's own labels, kept for diagnostics
	EventType      string `json:"event_type,omitempty"`
	ProviderStatus string `json:"provider_status,omitempty"`

	// Ignored marks an authentic event whose type carries no status change
	Ignored bool `json:"ignored,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// PaidAtOr returns the event's paid time or fallback.
func (e *WebhookEvent) PaidAtOr(fallback time.Time) time.Time {
	if e.PaidAt != nil && !e.PaidAt.IsZero() {
		return *e.PaidAt
	}
	return fallback
}

// ProviderType represents the type of payment provider
type ProviderType string

const (
	ProviderTypeXendit   ProviderType = "xendit"
	ProviderTypeMidtrans ProviderType = "midtrans"
	ProviderTypeStripe   ProviderType = "stripe"
)

// ProviderTypes lists every provider with an adapter.
var ProviderTypes = []ProviderType{
	ProviderTypeXendit,
	ProviderTypeMidtrans,
	ProviderTypeStripe,
}

func (p ProviderType) Valid() bool {
	for _, known := range ProviderTypes {
		if p == known {
			return true
		}
	}
	return false
}

// ProviderError is returned for authentic but unusable provider payloads
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// NewMalformedPayloadError reports a body that could not be decoded.
func NewMalformedPayloadError(details string) *ProviderError {
	return &ProviderError{
		Code:    "MALFORMED_PAYLOAD",
		Message: "malformed webhook payload",
		Details: details,
	}
}

// MaxWebhookBodyBytes bounds how much of a webhook body adapters read.
const MaxWebhookBodyBytes = 64 << 10

// ErrBodyTooLarge is returned by ReadBody for a body over MaxWebhookBodyBytes.
var ErrBodyTooLarge = errors.New("webhook body exceeds size limit")

// ReadBody reads r's body, failing with ErrBodyTooLarge instead of truncating.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxWebhookBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
