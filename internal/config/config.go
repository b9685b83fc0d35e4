// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Remote backends.
const (
	RemoteNone     = "none"
	RemoteMemory   = "memory"
	RemoteRedis    = "redis"
	RemotePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DBPath   string `env:"DB_PATH" envDefault:"./data/rentmate.db"`

	// Remote selects the remote tenant directory: none, memory, redis or postgres.
	Remote        string `env:"RENTMATE_REMOTE" envDefault:"none"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"rentmate"`
	PostgresURL   string `env:"POSTGRES_URL"`

	// JWTSecret signs owner sessions. Required for networked remotes, where
	// the owner ID in the token scopes the shared document.
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	ElectricityRate float64       `env:"RENTMATE_ELECTRICITY_RATE" envDefault:"12"`
	CountryCode     string        `env:"RENTMATE_COUNTRY_CODE" envDefault:"91"`
	PushTimeout     time.Duration `env:"RENTMATE_PUSH_TIMEOUT" envDefault:"30s"`

	SheetsTimeout   time.Duration `env:"SHEETS_TIMEOUT" envDefault:"30s"`
	SheetsRateLimit float64       `env:"SHEETS_RATE_LIMIT" envDefault:"1"` // requests per second
	SheetsBurst     int           `env:"SHEETS_BURST" envDefault:"3"`

	MetricsTextfile string `env:"RENTMATE_METRICS_TEXTFILE"`
}

// localJWTSecret signs sessions that never leave this machine.
const localJWTSecret = "rentmate-local-dev-secret"

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations env tags can't express.
func (c *Config) Validate() error {
	switch c.Remote {
	case RemoteNone, RemoteMemory:
	case RemoteRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis remote")
		}
	case RemotePostgres:
		if c.PostgresURL == "" {
			return errors.New("POSTGRES_URL is required for the postgres remote")
		}
	default:
		return fmt.Errorf("unknown RENTMATE_REMOTE %q", c.Remote)
	}

	if c.networked() && (c.JWTSecret == "" || c.JWTSecret == localJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a private value for the %s remote", c.Remote)
	}

	if c.ElectricityRate < 0 {
		return fmt.Errorf("RENTMATE_ELECTRICITY_RATE must not be negative, got %v", c.ElectricityRate)
	}
	if c.SheetsRateLimit <= 0 {
		return fmt.Errorf("SHEETS_RATE_LIMIT must be positive, got %v", c.SheetsRateLimit)
	}
	return nil
}

// SessionSecret returns the key that signs owner sessions. Local-only setups
// fall back to a fixed key so sessions survive restarts without configuration.
func (c *Config) SessionSecret() string {
	if c.JWTSecret == "" && !c.networked() {
		return localJWTSecret
	}
	return c.JWTSecret
}

func (c *Config) networked() bool {
	return c.Remote == RemoteRedis || c.Remote == RemotePostgres
}
