package model

import (
	"time"
)

// CreditBalance is a user's running credit total. One row per user.
type CreditBalance struct {
	UserID                string     `gorm:"primaryKey;size:64" json:"user_id"`
	TotalCredits          int64      `gorm:"not null;default:0" json:"total_credits"`
	UsedCredits           int64      `gorm:"not null;default:0" json:"used_credits"`
	RemainingCredits      int64      `gorm:"not null;default:0" json:"remaining_credits"`
	TotalPurchasedCredits int64      `gorm:"not null;default:0" json:"total_purchased_credits"`
	TotalSpentCredits     int64      `gorm:"not null;default:0" json:"total_spent_credits"`
	LastPurchaseAt        *time.Time `json:"last_purchase_at,omitempty"`
	LastPurchaseType      *string    `gorm:"size:32" json:"last_purchase_type,omitempty"`
	LastPurchaseCredits   *int64     `json:"last_purchase_credits,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CreditBalance) TableName() string {
	return "credit_balances"
}

// CreditGrant records one top-up. PaymentID is unique, so a payment can
// credit a balance at most once.
type CreditGrant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PaymentID    uint      `gorm:"uniqueIndex;not null" json:"payment_id"`
	UserID       string    `gorm:"size:64;not null;index" json:"user_id"`
	Credits      int64     `gorm:"not null" json:"credits"`
	PackageType  string    `gorm:"size:32;not null" json:"package_type"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CreditGrant) TableName() string {
	return "credit_grants"
}
