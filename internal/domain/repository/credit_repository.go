package repository

import (
	"context"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
)

// CreditRepository is the single writer of credit balances.
type CreditRepository interface {
	// GetBalance returns a zero balance when the user has none yet
	GetBalance(ctx context.Context, userID string) (*model.CreditBalance, error)

	// AddCredits atomically increments the balance and records a grant for
	// paymentID. If a grant for paymentID exists, the balance is returned
	// unchanged with applied=false.
	AddCredits(ctx context.Context, userID string, credits int64, packageType string, paymentID uint) (balance *model.CreditBalance, applied bool, err error)

	// GetGrantByPaymentID returns nil, nil when no grant exists
	GetGrantByPaymentID(ctx context.Context, paymentID uint) (*model.CreditGrant, error)

	// ListGrantsByUser returns the user's grants, newest first
	ListGrantsByUser(ctx context.Context, userID string, limit int) ([]*model.CreditGrant, error)
}
