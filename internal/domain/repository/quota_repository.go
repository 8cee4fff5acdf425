package repository

import (
	"context"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
)

// QuotaRepository persists per user quota rows.
type QuotaRepository interface {
	// Upsert replaces the user's quota row. When quota.LastPaymentID is set a
	// row already reset by that payment is left alone and applied is false.
	Upsert(ctx context.Context, quota *model.UserQuota) (applied bool, err error)

	// GetByUser returns nil, nil when the user has no quota row
	GetByUser(ctx context.Context, userID string) (*model.UserQuota, error)
}
