package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the admin client and the
// local sandbox backend.
type Config struct {
	Env         string        `mapstructure:"ENV"`
	APIBaseURL  string        `mapstructure:"API_BASE_URL"`
	SessionFile string        `mapstructure:"SESSION_FILE"`
	PageSize    int           `mapstructure:"PAGE_SIZE"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	SandboxPort string        `mapstructure:"SANDBOX_PORT"`
	SandboxSeed int64         `mapstructure:"SANDBOX_SEED"`
	DeviceName  string        `mapstructure:"DEVICE_NAME"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("API_BASE_URL", "http://localhost:7500")
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SANDBOX_PORT", "7500")
	v.SetDefault("SANDBOX_SEED", 1)
	v.SetDefault("DEVICE_NAME", "admin-cli")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("API_BASE_URL")
	v.BindEnv("SESSION_FILE")
	v.BindEnv("PAGE_SIZE")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("SANDBOX_PORT")
	v.BindEnv("SANDBOX_SEED")
	v.BindEnv("DEVICE_NAME")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the client is configured for production use.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// defaultSessionFile places the persisted session next to the user's other
// tool state. Falls back to the working directory when the home directory
// cannot be resolved.
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hims-admin-session.json"
	}
	return filepath.Join(home, ".hims-admin", "session.json")
}
