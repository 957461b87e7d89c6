package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/mmynk/multas/internal/config"
)

var envKeys = []string{
	"MULTAS_CONFIG", "MULTAS_ADDR", "MULTAS_DB_PATH", "MULTAS_LOG_LEVEL",
	"MULTAS_JWT_SECRET", "MULTAS_TOKEN_TTL", "MULTAS_REDIS_URL",
	"MULTAS_CACHE_TTL", "MULTAS_RETRY_ATTEMPTS", "MULTAS_RETRY_BACKOFF",
}

func TestConfigLoader(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load("")

			convey.Convey("Then it should load the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBPath, convey.ShouldEqual, "./data/multas.db")
				convey.So(cfg.TokenTTL, convey.ShouldEqual, 24*time.Hour)
				convey.So(cfg.RetryAttempts, convey.ShouldEqual, 3)
				convey.So(cfg.RedisURL, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfig(t, `
addr: ":9090"
db_path: "/tmp/multas.db"
log_level: debug
token_ttl: 2h
cache_ttl: 30m
redis_url: "redis://localhost:6379/1"
`)
			cfg, err := config.Load(path)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/multas.db")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.TokenTTL, convey.ShouldEqual, 2*time.Hour)
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 30*time.Minute)
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://localhost:6379/1")
				convey.So(cfg.RetryAttempts, convey.ShouldEqual, 3)
			})

			convey.Convey("And env vars override the file", func() {
				os.Setenv("MULTAS_ADDR", ":7070")
				os.Setenv("MULTAS_RETRY_ATTEMPTS", "5")
				os.Setenv("MULTAS_RETRY_BACKOFF", "200ms")
				defer os.Unsetenv("MULTAS_ADDR")
				defer os.Unsetenv("MULTAS_RETRY_ATTEMPTS")
				defer os.Unsetenv("MULTAS_RETRY_BACKOFF")

				cfg, err := config.Load(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/multas.db")
				convey.So(cfg.RetryAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.RetryBackoff, convey.ShouldEqual, 200*time.Millisecond)
			})
		})

		convey.Convey("When MULTAS_CONFIG names the file", func() {
			path := writeConfig(t, "db_path: from-env.db\n")
			os.Setenv("MULTAS_CONFIG", path)
			defer os.Unsetenv("MULTAS_CONFIG")

			cfg, err := config.Load("")
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.DBPath, convey.ShouldEqual, "from-env.db")
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When a setting is invalid", func() {
			os.Setenv("MULTAS_RETRY_ATTEMPTS", "0")
			defer os.Unsetenv("MULTAS_RETRY_ATTEMPTS")

			_, err := config.Load("")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "retry_attempts")
		})

		convey.Convey("When the log level is unknown", func() {
			path := writeConfig(t, "log_level: loud\n")
			_, err := config.Load(path)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "multas.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
