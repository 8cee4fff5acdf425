// Package midtrans verifies Midtrans HTTP notifications.
package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/provider"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Midtrans reports settlement times in Jakarta local time without an offset.
const settlementLayout = "2006-01-02 15:04:05"

type notification struct {
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
	SettlementTime    string `json:"settlement_time"`
	StatusMessage     string `json:"status_message"`
	Currency          string `json:"currency"`
}

// Adapter implements provider.Adapter for Midtrans.
type Adapter struct {
	serverKey string
	location  *time.Location
	logger    *zap.Logger
}

// NewAdapter creates a Midtrans adapter that verifies signatures with serverKey.
func NewAdapter(serverKey string, logger *zap.Logger) *Adapter {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	return &Adapter{
		serverKey: serverKey,
		location:  loc,
		logger:    logger,
	}
}

func (a *Adapter) Name() provider.ProviderType {
	return provider.ProviderTypeMidtrans
}

// Signature returns the expected signature_key for a notification.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func (a *Adapter) VerifyWebhook(ctx context.Context, r *http.Request) (*provider.WebhookEvent, error) {
	if a.serverKey == "" {
		a.logger.Error("Midtrans server key is not configured")
		return nil, nil
	}

	body, err := provider.ReadBody(r)
	if errors.Is(err, provider.ErrBodyTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, nil
	}

	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		// The signature lives in the body, so an undecodable body is unauthenticated.
		a.logger.Warn("Undecodable Midtrans notification", zap.Error(err))
		return nil, nil
	}

	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, a.serverKey)
	if subtle.ConstantTimeCompare([]byte(n.SignatureKey), []byte(expected)) != 1 {
		a.logger.Warn("Invalid Midtrans signature", zap.String("order_id", n.OrderID))
		return nil, nil
	}

	if n.OrderID == "" {
		return nil, provider.NewMalformedPayloadError("missing order_id")
	}

	amount, err := decimal.NewFromString(n.GrossAmount)
	if err != nil {
		return nil, provider.NewMalformedPayloadError("invalid gross_amount: " + n.GrossAmount)
	}

	event := &provider.WebhookEvent{
		Provider:          provider.ProviderTypeMidtrans,
		ProviderPaymentID: n.OrderID,
		RawAmount:         amount.IntPart(),
		ChannelCode:       n.PaymentType,
		EventType:         n.TransactionStatus,
		ProviderStatus:    n.TransactionStatus,
		Metadata: map[string]interface{}{
			"transaction_id": n.TransactionID,
			"status_code":    n.StatusCode,
		},
	}
	if n.FraudStatus != "" {
		event.Metadata["fraud_status"] = n.FraudStatus
	}

	status, ok := mapTransactionStatus(n.TransactionStatus, n.FraudStatus)
	if !ok {
		a.logger.Info("Unhandled Midtrans transaction status",
			zap.String("transaction_status", n.TransactionStatus),
			zap.String("fraud_status", n.FraudStatus))
		event.Ignored = true
		return event, nil
	}
	event.Status = status

	switch status {
	case billing.PaymentStatusSucceeded:
		if n.SettlementTime != "" {
			if paidAt, err := time.ParseInLocation(settlementLayout, n.SettlementTime, a.location); err == nil {
				event.PaidAt = &paidAt
			}
		}
	case billing.PaymentStatusFailed:
		event.FailureCode = n.TransactionStatus
	}

	return event, nil
}

func mapTransactionStatus(transactionStatus, fraudStatus string) (billing.PaymentStatus, bool) {
	switch transactionStatus {
	case "settlement":
		return billing.PaymentStatusSucceeded, true
	case "capture":
		switch fraudStatus {
		case "", "accept":
			return billing.PaymentStatusSucceeded, true
		case "challenge":
			return billing.PaymentStatusPending, true
		default:
			return billing.PaymentStatusFailed, true
		}
	case "deny", "cancel", "failure":
		return billing.PaymentStatusFailed, true
	case "expire":
		return billing.PaymentStatusExpired, true
	case "pending":
		return billing.PaymentStatusPending, true
	default:
		return "", false
	}
}
