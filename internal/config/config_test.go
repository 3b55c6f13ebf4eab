package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE", "bolt")
	t.Setenv("BOLT_PATH", "/tmp/decisions.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("test", nil)
	require.NoError(t, err)

	assert.Equal(t, StoreBolt, cfg.Store)
	assert.Equal(t, "/tmp/decisions.db", cfg.BoltPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	require.NoError(t, cfg.Validate())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("ADDR", "127.0.0.1:9000")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_DB", "decisions")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "pw")

	cfg, err := Load("test", []string{"-addr", ":7000", "-db-port", "6543"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "postgres://app:pw@db:6543/decisions?sslmode=disable", cfg.DSN())
}

func TestValidate(t *testing.T) {
	valid := Config{Store: StoreBolt, BoltPath: "x.db", JWTSecret: "k", LogLevel: "INFO"}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"unknown store", func(c *Config) { c.Store = "mongo" }},
		{"postgres without host", func(c *Config) { c.Store = StorePostgres }},
		{"bad log level", func(c *Config) { c.LogLevel = "LOUD" }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
