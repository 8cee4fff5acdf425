package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Posteriot/makalah-app-sub005/internal/app"
	"github.com/Posteriot/makalah-app-sub005/internal/config"
	"github.com/Posteriot/makalah-app-sub005/pkg/logger"
	"github.com/spf13/viper"
)

const defaultConfigPath = "./configs/payment.yaml"

// configPath resolves --config, then PAYMENTCTL_CONFIG, then CONFIG_PATH.
func configPath(v *viper.Viper) string {
	if path := v.GetString("config"); path != "" {
		return path
	}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openApp loads the config and wires the services against its database.
func openApp(v *viper.Viper) (*app.App, error) {
	cfg, err := config.LoadConfigFile(configPath(v))
	if err != nil {
		return nil, err
	}

	log, err := logger.NewZapLogger(logger.Config{
		Level:  v.GetString("log_level"),
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return app.New(cfg, log)
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
