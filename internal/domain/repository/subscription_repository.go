package repository

import (
	"context"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/google/uuid"
)

// SubscriptionRepository persists subscriptions.
type SubscriptionRepository interface {
	// CreateIfNoneActive inserts sub unless the user already has an active
	// subscription, in which case the existing row is returned with created=false
	CreateIfNoneActive(ctx context.Context, sub *model.Subscription) (result *model.Subscription, created bool, err error)

	// GetByID returns nil, nil when no row matches
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)

	// GetActiveByUser returns nil, nil when the user has no active subscription
	GetActiveByUser(ctx context.Context, userID string) (*model.Subscription, error)

	// GetLatestByUser returns the most recently created subscription in any state
	GetLatestByUser(ctx context.Context, userID string) (*model.Subscription, error)

	// ListPeriodEnded returns subscriptions in one of statuses whose current
	// period ended at or before endedBy, oldest first
	ListPeriodEnded(ctx context.Context, statuses []model.SubscriptionStatus, endedBy time.Time, limit int) ([]*model.Subscription, error)

	// ListByUser returns the user's subscriptions, newest first
	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)

	// Update applies updates to the subscription with id
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	// ApplyRenewal applies updates unless paymentID already renewed the
	// subscription, in which case applied is false
	ApplyRenewal(ctx context.Context, id uuid.UUID, paymentID uint, updates map[string]interface{}) (applied bool, err error)
}
