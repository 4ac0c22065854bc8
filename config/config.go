// Package config loads the service configuration: defaults, an optional
// YAML file, and environment overrides, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Rules  RulesConfig  `mapstructure:"rules"`
}

// ServerConfig represents the HTTP listener.
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// StoreConfig represents persistence.
type StoreConfig struct {
	Path string `mapstructure:"path"` // SQLite file; ":memory:" for ephemeral
}

// RulesConfig represents the business-rule parameters.
type RulesConfig struct {
	Year          int  `mapstructure:"year"`
	VacationDays  int  `mapstructure:"vacation_days"`
	ExtraDays     int  `mapstructure:"extra_days"`
	SeedDirectory bool `mapstructure:"seed_directory"`
}

// Load loads configuration. A missing config file is not an error; the
// defaults describe a working local setup.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("store.path", "calendar.db")
	v.SetDefault("rules.year", time.Now().Year())
	v.SetDefault("rules.vacation_days", 25)
	v.SetDefault("rules.extra_days", 5)
	v.SetDefault("rules.seed_directory", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/calendar-engine")
	}

	v.SetEnvPrefix("CALENDAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Rules.Year < 2000 || c.Rules.Year > 2200 {
		return fmt.Errorf("rules.year out of range: %d", c.Rules.Year)
	}
	if c.Rules.VacationDays < 0 {
		return fmt.Errorf("rules.vacation_days must not be negative")
	}
	if c.Rules.ExtraDays < 0 {
		return fmt.Errorf("rules.extra_days must not be negative")
	}
	return nil
}

// ShutdownWindow returns the graceful shutdown duration.
func (c *ServerConfig) ShutdownWindow() time.Duration {
	if c.ShutdownTimeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
