package model

import (
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionStatus represents the lifecycle state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
)

// Subscription is a user's plan. Renewals move the period forward on the
// same row.
type Subscription struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             string             `gorm:"size:64;not null;index" json:"user_id"`
	PlanType           billing.PlanType   `gorm:"size:32;not null" json:"plan_type"`
	Status             SubscriptionStatus `gorm:"size:16;not null;index" json:"status"`
	PriceIDR           int64              `gorm:"not null" json:"price_idr"`
	CurrentPeriodStart time.Time          `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `gorm:"not null;index" json:"current_period_end"`
	CancelAtPeriodEnd  bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	CancelReason       *string            `json:"cancel_reason,omitempty"`
	// LastPaymentID is the payment that opened or last renewed the period
	LastPaymentID *uint     `json:"last_payment_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate assigns a UUID when none is set.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the subscription grants access at now.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.Before(s.CurrentPeriodEnd)
}

// SubscriptionStatusSummary is the reader side view of a user's subscription.
type SubscriptionStatusSummary struct {
	HasSubscription   bool               `json:"has_subscription"`
	IsActive          bool               `json:"is_active"`
	Status            SubscriptionStatus `json:"status,omitempty"`
	PlanType          billing.PlanType   `json:"plan_type,omitempty"`
	PlanLabel         string             `json:"plan_label,omitempty"`
	CurrentPeriodEnd  *time.Time         `json:"current_period_end,omitempty"`
	DaysRemaining     int                `json:"days_remaining"`
	CancelAtPeriodEnd bool               `json:"cancel_at_period_end"`
}
