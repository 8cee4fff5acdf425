package model

import (
	"strings"
	"time"
)

// ProviderConfig is the admin managed payment provider selection. At most one
// row is active.
type ProviderConfig struct {
	ID                   uint    `gorm:"primaryKey" json:"id"`
	ActiveProvider       string  `gorm:"size:32;not null" json:"active_provider"`
	EnabledMethods       string  `gorm:"size:128;not null" json:"-"`
	WebhookURL           *string `gorm:"size:255" json:"webhook_url,omitempty"`
	DefaultExpiryMinutes *int    `json:"default_expiry_minutes,omitempty"`
	IsActive             bool    `gorm:"not null;default:true;index" json:"is_active"`
	UpdatedBy            string  `gorm:"size:255" json:"updated_by"`

	// Optional webhook secret override for the active provider, AES-GCM sealed
	WebhookSecretCipher *string `json:"-"`
	WebhookSecretIV     *string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ProviderConfig) TableName() string {
	return "payment_provider_configs"
}

// Methods splits the stored method list.
func (c *ProviderConfig) Methods() []string {
	if c.EnabledMethods == "" {
		return nil
	}
	parts := strings.Split(c.EnabledMethods, ",")
	methods := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			methods = append(methods, p)
		}
	}
	return methods
}

// SetMethods stores methods as a comma list.
func (c *ProviderConfig) SetMethods(methods []string) {
	c.EnabledMethods = strings.Join(methods, ",")
}
