// Package config defines the service configuration and how it is loaded.
package config

import "time"

// DefaultJWTSecret is only meant for local development; serve warns when it
// is still in use.
const DefaultJWTSecret = "multas-dev-secret"

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	// RedisURL enables the shared closed-week cache when set, e.g.
	// "redis://localhost:6379/0". Empty keeps the cache in process.
	RedisURL string        `koanf:"redis_url"`
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// RetryAttempts and RetryBackoff bound retries of settlement
	// transactions that hit a busy database.
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryBackoff  time.Duration `koanf:"retry_backoff"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Addr:          ":8080",
		DBPath:        "./data/multas.db",
		LogLevel:      "info",
		JWTSecret:     DefaultJWTSecret,
		TokenTTL:      24 * time.Hour,
		CacheTTL:      8 * 24 * time.Hour,
		RetryAttempts: 3,
		RetryBackoff:  50 * time.Millisecond,
	}
}
