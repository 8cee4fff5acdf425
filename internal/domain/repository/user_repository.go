package repository

import (
	"context"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
)

// UserRepository reads account records and moves billing tiers.
type UserRepository interface {
	// GetByID returns nil, nil when no user matches
	GetByID(ctx context.Context, id string) (*model.User, error)

	// UpdateTier sets the user's billing tier
	UpdateTier(ctx context.Context, id string, tier billing.Tier) error

	// UpgradeTier sets tier only when the current tier is one of from
	UpgradeTier(ctx context.Context, id string, tier billing.Tier, from ...billing.Tier) error
}
