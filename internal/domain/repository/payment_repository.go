package repository

import (
	"context"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
)

// PaymentRepository owns the payment status state machine.
type PaymentRepository interface {
	// Create inserts a PENDING payment
	Create(ctx context.Context, payment *model.Payment) error

	// GetByProviderPaymentID returns nil, nil when no row matches
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Payment, error)

	// GetByReferenceID returns nil, nil when no row matches
	GetByReferenceID(ctx context.Context, referenceID string) (*model.Payment, error)

	// GetByID returns nil, nil when no row matches
	GetByID(ctx context.Context, id uint) (*model.Payment, error)

	// ListByUser returns a user's payments, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Payment, error)

	// UpdateStatus moves a PENDING payment to status with a single conditional
	// write. Repeating the current terminal status is a no-op with Applied=false.
	UpdateStatus(ctx context.Context, providerPaymentID string, status billing.PaymentStatus, paidAt *time.Time, metadata map[string]interface{}) (*model.StatusTransition, error)

	// MarkEntitlement records whether the entitlement for a succeeded payment landed
	MarkEntitlement(ctx context.Context, paymentID uint, status model.EntitlementStatus, errMsg string) error

	// ListEntitlementPending returns SUCCEEDED payments without a granted or
	// skipped entitlement, paid before olderThan
	ListEntitlementPending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error)

	// Stats counts payments by status, type and method
	Stats(ctx context.Context) (*model.PaymentStats, error)
}
