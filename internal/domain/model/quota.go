package model

import (
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
)

// UserQuota is a user's allowance for the current billing period.
type UserQuota struct {
	UserID          string       `gorm:"primaryKey;size:64" json:"user_id"`
	Tier            billing.Tier `gorm:"size:16;not null" json:"tier"`
	PeriodStart     time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd       time.Time    `gorm:"not null" json:"period_end"`
	AllottedTokens  int64        `gorm:"not null" json:"allotted_tokens"`
	UsedTokens      int64        `gorm:"not null;default:0" json:"used_tokens"`
	RemainingTokens int64        `gorm:"not null" json:"remaining_tokens"`
	AllottedPapers  int          `gorm:"not null" json:"allotted_papers"`
	CompletedPapers int          `gorm:"not null;default:0" json:"completed_papers"`
	DailyUsedTokens int64        `gorm:"not null;default:0" json:"daily_used_tokens"`
	LastDailyReset  time.Time    `gorm:"not null" json:"last_daily_reset"`
	OverageTokens   int64        `gorm:"not null;default:0" json:"overage_tokens"`
	// LastPaymentID is the payment whose activation or renewal last reset the row
	LastPaymentID   *uint        `json:"last_payment_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserQuota) TableName() string {
	return "user_quotas"
}
