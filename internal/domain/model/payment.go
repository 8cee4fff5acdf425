package model

import (
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"gorm.io/datatypes"
)

// EntitlementStatus tracks whether a succeeded payment's entitlement landed.
type EntitlementStatus string

const (
	EntitlementStatusNone    EntitlementStatus = ""
	EntitlementStatusGranted EntitlementStatus = "granted"
	EntitlementStatusFailed  EntitlementStatus = "failed"
	EntitlementStatusSkipped EntitlementStatus = "skipped"
)

// Payment represents one attempted payment. Rows are created at checkout and
// only their status fields change afterwards.
type Payment struct {
	ID                uint                  `gorm:"primaryKey" json:"id"`
	ProviderPaymentID string                `gorm:"column:provider_payment_id;size:128;uniqueIndex;not null" json:"provider_payment_id"`
	ReferenceID       string                `gorm:"column:reference_id;size:128;uniqueIndex;not null" json:"reference_id"`
	Provider          string                `gorm:"size:32;not null" json:"provider"`
	UserID            string                `gorm:"size:64;not null;index" json:"user_id"`
	Status            billing.PaymentStatus `gorm:"size:16;not null;default:'PENDING';index" json:"status"`
	Amount            int64                 `gorm:"not null" json:"amount"`
	Currency          string                `gorm:"size:3;not null;default:'IDR'" json:"currency"`
	PaymentType       billing.PaymentType   `gorm:"size:32;not null;index" json:"payment_type"`
	PaymentMethod     billing.PaymentMethod `gorm:"size:32" json:"payment_method,omitempty"`
	PaymentChannel    string                `gorm:"size:64" json:"payment_channel,omitempty"`
	PackageType       string                `gorm:"size:32" json:"package_type,omitempty"`
	Credits           int64                 `gorm:"not null;default:0" json:"credits"`
	PlanType          billing.PlanType      `gorm:"size:32" json:"plan_type,omitempty"`
	SessionID         *string               `gorm:"size:128" json:"session_id,omitempty"`
	Description       string                `json:"description,omitempty"`
	IdempotencyKey    *string               `gorm:"size:128;uniqueIndex" json:"idempotency_key,omitempty"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	ExpiredAt         *time.Time            `json:"expired_at,omitempty"`
	Metadata          datatypes.JSONMap     `json:"metadata,omitempty"`

	EntitlementStatus EntitlementStatus `gorm:"size:16;not null;default:'';index" json:"entitlement_status,omitempty"`
	EntitlementError  *string           `json:"entitlement_error,omitempty"`
	EntitlementAt     *time.Time        `json:"entitlement_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// StatusTransition is the outcome of a conditional status update.
type StatusTransition struct {
	PaymentID      uint                  `json:"payment_id"`
	PreviousStatus billing.PaymentStatus `json:"previous_status"`
	NewStatus      billing.PaymentStatus `json:"new_status"`
	// Applied is false when the payment was already in NewStatus
	Applied bool `json:"applied"`
}

// PaymentStats aggregates payment counts for the admin dashboard.
type PaymentStats struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"by_status"`
	ByType        map[string]int64 `json:"by_type"`
	ByMethod      map[string]int64 `json:"by_method"`
	SucceededIDR  int64            `json:"succeeded_amount"`
	UngrantedPaid int64            `json:"succeeded_without_entitlement"`
}
