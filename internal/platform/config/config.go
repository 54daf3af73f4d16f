// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file is
loaded first through 'joho/godotenv' when present; real environment variables
always win over the file.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token issuance) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/taibuivan/gatekeeper/pkg/query"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Gatekeeper API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Credential store
	StorageDriver  string `env:"STORAGE_DRIVER"   envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// Key-Value store (Redis). Optional: enables distributed attempt limiting.
	RedisURL string `env:"REDIS_URL"`

	// Token issuance
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL"     envDefault:"1h"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL"    envDefault:"168h"`
	AuthIssuer         string        `env:"AUTH_ISSUER"          envDefault:"gatekeeper"`

	// Credential endpoint throttling
	AuthAttemptLimit  int           `env:"AUTH_ATTEMPT_LIMIT"  envDefault:"20"`
	AuthAttemptWindow time.Duration `env:"AUTH_ATTEMPT_WINDOW" envDefault:"1m"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load() (*Config, error) {

	// A missing .env is the normal case in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	return Parse()
}

// Parse maps the current process environment into a [Config] and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing or, with
	// 'notEmpty', set to an empty string.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces the rules that struct tags cannot express.
func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("config: unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}

	if c.AuthAttemptLimit < 0 {
		return errors.New("config: AUTH_ATTEMPT_LIMIT must not be negative")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the trimmed, non-empty entries of EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	return query.CommaList(c.ExtraOrigins)
}
