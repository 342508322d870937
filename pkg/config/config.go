package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for fleetcheck-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath points at the SQL migration directory.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// SeedPath points at the shared resource catalog seeded at startup.
	// Empty disables seeding.
	SeedPath string `yaml:"seed_path" env:"SEED_PATH" env-default:"seed/resources.yaml"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// TokenSigningKey signs the HS256 tokens issued by both vectors.
	// Server will fail to start if this is not set.
	TokenSigningKey string `yaml:"-" env:"TOKEN_SIGNING_KEY"` // Secret - not in YAML

	// SessionKey authenticates the web-vector session cookie.
	SessionKey string `yaml:"-" env:"SESSION_KEY"` // Secret - not in YAML

	// WebTokenTTL is the lifetime of web-vector tokens.
	WebTokenTTL time.Duration `yaml:"web_token_ttl" env:"WEB_TOKEN_TTL" env-default:"12h"`

	// KioskTokenTTL is the lifetime of kiosk-vector tokens. Kept short:
	// a tablet re-authenticates with its device token on expiry.
	KioskTokenTTL time.Duration `yaml:"kiosk_token_ttl" env:"KIOSK_TOKEN_TTL" env-default:"1h"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"fleetcheck"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"fleetcheck_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD,
// TOKEN_SIGNING_KEY, SESSION_KEY) must come from environment variables
// (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides.
	// A missing config.yaml is fine: everything has env defaults.
	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.TokenSigningKey == "" {
		return fmt.Errorf("TOKEN_SIGNING_KEY must be set")
	}
	if c.Auth.SessionKey == "" {
		return fmt.Errorf("SESSION_KEY must be set")
	}
	return nil
}
