package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/autobill")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "development", cfg.App.Env)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, "MFES", cfg.Numbering.Prefix)
	assert.Equal(t, 5, cfg.Numbering.PadWidth)
	assert.Equal(t, 5, cfg.Numbering.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Numbering.RetryBackoff)
	assert.Equal(t, 12*time.Hour, cfg.JWT.TTL)
	assert.False(t, cfg.JWT.Enabled())
	assert.False(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.HTTP.Gzip)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/autobill")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("INVOICE_PREFIX", "INV")
	t.Setenv("INVOICE_PAD_WIDTH", "7")
	t.Setenv("SEQUENCE_RETRY_BACKOFF", "50ms")
	t.Setenv("DB_STATEMENT_TIMEOUT", "5s")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SELLER_NAME", "Auto Workshop")
	t.Setenv("HTTP_GZIP", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, ":9000", cfg.HTTP.Addr())
	assert.Equal(t, "INV", cfg.Numbering.Prefix)
	assert.Equal(t, 7, cfg.Numbering.PadWidth)
	assert.Equal(t, 50*time.Millisecond, cfg.Numbering.RetryBackoff)
	assert.Equal(t, 5*time.Second, cfg.DB.StatementTimeout)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.JWT.Enabled())
	assert.Equal(t, "Auto Workshop", cfg.Seller.Name)
	assert.False(t, cfg.HTTP.Gzip)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:        DBConfig{URL: "postgres://localhost/autobill", MaxConns: 10, MinConns: 2},
			Numbering: NumberingConfig{Prefix: "MFES", PadWidth: 5, MaxAttempts: 5},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.DB.URL = "" }, "DATABASE_URL"},
		{"zero max conns", func(c *Config) { c.DB.MaxConns = 0 }, "DB_MAX_CONNS"},
		{"min above max", func(c *Config) { c.DB.MinConns = 11 }, "DB_MIN_CONNS"},
		{"empty prefix", func(c *Config) { c.Numbering.Prefix = "" }, "INVOICE_PREFIX"},
		{"zero pad width", func(c *Config) { c.Numbering.PadWidth = 0 }, "INVOICE_PAD_WIDTH"},
		{"zero attempts", func(c *Config) { c.Numbering.MaxAttempts = 0 }, "SEQUENCE_MAX_ATTEMPTS"},
		{"negative backoff", func(c *Config) { c.Numbering.RetryBackoff = -time.Second }, "SEQUENCE_RETRY_BACKOFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
