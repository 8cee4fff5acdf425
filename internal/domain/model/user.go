package model

import (
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
)

// User is the account record owned by the account service. The payment core
// reads contact details and moves the tier.
type User struct {
	ID                 string       `gorm:"primaryKey;size:64" json:"id"`
	Email              string       `gorm:"size:255;not null" json:"email"`
	FirstName          string       `gorm:"size:128" json:"first_name"`
	SubscriptionStatus billing.Tier `gorm:"size:16;not null;default:'free'" json:"subscription_status"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
