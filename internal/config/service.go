package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment" env:"APP_ENV"`
	Version     string `yaml:"version"`
	// InternalKey authorizes internal and admin callers. Required at startup.
	InternalKey string `yaml:"internal_key" env:"INTERNAL_KEY" validate:"required,min=32"`
	// EncryptionKey is a 64 char hex AES-256 key for provider secrets stored in the database.
	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY" validate:"omitempty,len=64,hexadecimal"`
	AppURL        string `yaml:"app_url" env:"APP_URL"`
}

type ProvidersConfig struct {
	Xendit   XenditConfig   `yaml:"xendit"`
	Midtrans MidtransConfig `yaml:"midtrans"`
	Stripe   StripeConfig   `yaml:"stripe"`
}

type XenditConfig struct {
	SecretKey    string `yaml:"secret_key" env:"XENDIT_SECRET_KEY"`
	WebhookToken string `yaml:"webhook_token" env:"XENDIT_WEBHOOK_TOKEN"`
}

type MidtransConfig struct {
	ServerKey string `yaml:"server_key" env:"MIDTRANS_SERVER_KEY"`
	ClientKey string `yaml:"client_key" env:"MIDTRANS_CLIENT_KEY"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	// Tolerance is the accepted signature timestamp skew.
	Tolerance time.Duration `yaml:"tolerance"`
}

type EmailConfig struct {
	Enabled       bool          `yaml:"enabled" env:"EMAIL_ENABLED"`
	SMTPHost      string        `yaml:"smtp_host" env:"SMTP_HOST" validate:"required_if=Enabled true"`
	SMTPPort      int           `yaml:"smtp_port" env:"SMTP_PORT"`
	Username      string        `yaml:"username" env:"SMTP_USERNAME"`
	Password      string        `yaml:"password" env:"SMTP_PASSWORD"`
	FromAddress   string        `yaml:"from_address" env:"EMAIL_FROM" validate:"omitempty,email"`
	FromName      string        `yaml:"from_name"`
	NotifyTimeout time.Duration `yaml:"notify_timeout"`
}
