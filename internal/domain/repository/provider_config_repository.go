package repository

import (
	"context"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
)

// ProviderConfigRepository persists the active provider selection.
type ProviderConfigRepository interface {
	// GetActive returns nil, nil when no config has been stored
	GetActive(ctx context.Context) (*model.ProviderConfig, error)

	// Upsert patches the active row or inserts one
	Upsert(ctx context.Context, cfg *model.ProviderConfig) (*model.ProviderConfig, error)
}
