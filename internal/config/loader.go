package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. MULTAS_DB_PATH.
const EnvPrefix = "MULTAS_"

// Load builds a Config by layering defaults, an optional YAML file and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file at path, or at $MULTAS_CONFIG when path is empty
//  3. env (prefix MULTAS_)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// MULTAS_RETRY_ATTEMPTS -> retry_attempts. Keys are flat, so underscores
	// are kept to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr must not be empty")
	case c.DBPath == "":
		return errors.New("db_path must not be empty")
	case c.JWTSecret == "":
		return errors.New("jwt_secret must not be empty")
	case c.TokenTTL <= 0:
		return errors.New("token_ttl must be positive")
	case c.RetryAttempts < 1:
		return errors.New("retry_attempts must be at least 1")
	case c.RetryBackoff < 0:
		return errors.New("retry_backoff must not be negative")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
