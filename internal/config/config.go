package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "./configs/payment.yaml"

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	JWT       JWTConfig       `yaml:"jwt"`
	Email     EmailConfig     `yaml:"email"`
	Providers ProvidersConfig `yaml:"providers"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	FilePath    string `yaml:"file_path"`
	Development bool   `yaml:"development"`
}

type JWTConfig struct {
	Secret string `yaml:"secret" env:"JWT_SECRET"`
	// Issuer, when set, must match the token iss claim
	Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
}

type WebhookConfig struct {
	// Timeout bounds processing of a single delivery.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// MaxBodyBytes caps the raw body read from a provider.
	MaxBodyBytes int64 `yaml:"max_body_bytes" validate:"gte=0"`
}

type CacheConfig struct {
	ProviderConfigTTL time.Duration `yaml:"provider_config_ttl" validate:"gte=0"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether cross-instance cache invalidation is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type ReconcileConfig struct {
	BatchSize  int           `yaml:"batch_size" validate:"gte=0"`
	StaleAfter time.Duration `yaml:"stale_after" validate:"gte=0"`

	// PastDueGrace is how long a past due subscription waits for a renewal
	// payment before it expires.
	PastDueGrace time.Duration `yaml:"past_due_grace" validate:"gte=0"`
}

// LoadConfig reads the YAML file at CONFIG_PATH, applies environment
// overrides and defaults, and validates the result.
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return LoadConfigFile(configPath)
}

// LoadConfigFile is LoadConfig for an explicit path.
func LoadConfigFile(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML bytes plus the process environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "payment"
	}
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 8080
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 10 * time.Second
	}
	if c.Webhook.MaxBodyBytes == 0 {
		c.Webhook.MaxBodyBytes = 64 << 10
	}
	if c.Cache.ProviderConfigTTL == 0 {
		c.Cache.ProviderConfigTTL = time.Minute
	}
	if c.Reconcile.BatchSize == 0 {
		c.Reconcile.BatchSize = 100
	}
	if c.Reconcile.StaleAfter == 0 {
		c.Reconcile.StaleAfter = 5 * time.Minute
	}
	if c.Reconcile.PastDueGrace == 0 {
		c.Reconcile.PastDueGrace = 72 * time.Hour
	}
	if c.Email.NotifyTimeout == 0 {
		c.Email.NotifyTimeout = 15 * time.Second
	}
}

// Validate checks required settings. A missing internal key is fatal.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
