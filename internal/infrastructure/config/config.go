package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full service configuration, loaded from SOLSTREAK_*
// environment variables.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Seed    SeedConfig
	Logging LoggingConfig
	Rate    RateConfig
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"SERVER_PORT" default:"8090"`
}

// StorageConfig defines module record persistence settings
type StorageConfig struct {
	Dir string `envconfig:"STORAGE_DIR" default:"data/modules"`
}

// SeedConfig defines startup seeding behavior
type SeedConfig struct {
	Dir        string `envconfig:"SEED_DIR" default:"seeds"`
	AutoEnable bool   `envconfig:"SEED_AUTO_ENABLE" default:"true"`
}

// LoggingConfig defines logger settings
type LoggingConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`
}

// RateConfig defines API rate limiting
type RateConfig struct {
	RequestsPerSecond float64 `envconfig:"RATE_RPS" default:"50"`
	Burst             int     `envconfig:"RATE_BURST" default:"100"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("solstreak", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads from the environment, falling back to defaults on
// error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8090},
		Storage: StorageConfig{Dir: "data/modules"},
		Seed:    SeedConfig{Dir: "seeds", AutoEnable: true},
		Logging: LoggingConfig{Level: "info"},
		Rate:    RateConfig{RequestsPerSecond: 50, Burst: 100},
	}
}

// Addr returns the host:port listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
