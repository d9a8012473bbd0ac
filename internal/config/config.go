// Package config loads runtime configuration from the environment, with an
// optional local .env file for development.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Database
	DBDriver string `mapstructure:"db_driver"` // postgres | sqlite
	DBDSN    string `mapstructure:"db_dsn"`

	// HTTP
	HTTPAddr string `mapstructure:"http_addr"`

	// Observability
	LogLevel       string `mapstructure:"log_level"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

func Load() (*Config, error) {
	// Missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("commissiond")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "file:commissiond.db?cache=shared")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_enabled", true)

	for _, key := range []string{"db_driver", "db_dsn", "http_addr", "log_level", "metrics_enabled"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
