package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "REGISTRY"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultDatabasePath      = "registry.db"
	defaultLogLevel          = "info"
	defaultRetentionDays     = 30
	defaultMaxTxnAttempts    = 3
	defaultAdminTokenMinutes = 30
)

// AppConfig captures runtime configuration for the registry core.
type AppConfig struct {
	HTTPAddress     string
	DatabasePath    string
	LogLevel        string
	RetentionDays   int
	MaxTxnAttempts  int
	AdminSigningKey string
	AdminTokenTTL   time.Duration
}

// Retention returns the commit log retention window as a duration.
func (c AppConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("history.retention_days", defaultRetentionDays)
	configViper.SetDefault("epp.max_transaction_attempts", defaultMaxTxnAttempts)
	configViper.SetDefault("admin.token_ttl_minutes", defaultAdminTokenMinutes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		DatabasePath:    configViper.GetString("database.path"),
		LogLevel:        configViper.GetString("log.level"),
		RetentionDays:   configViper.GetInt("history.retention_days"),
		MaxTxnAttempts:  configViper.GetInt("epp.max_transaction_attempts"),
		AdminSigningKey: configViper.GetString("admin.signing_secret"),
		AdminTokenTTL:   time.Duration(configViper.GetInt("admin.token_ttl_minutes")) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.AdminSigningKey) == "" {
		return fmt.Errorf("admin.signing_secret is required")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("history.retention_days must be positive")
	}
	if c.MaxTxnAttempts <= 0 {
		return fmt.Errorf("epp.max_transaction_attempts must be positive")
	}
	return nil
}
