// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config groups the application configuration.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Numbering NumberingConfig
	JWT       JWTConfig
	Seller    SellerConfig
	HTTP      HTTPConfig
}

// AppConfig is the general application configuration.
type AppConfig struct {
	Env      string // development, staging, production
	LogLevel string
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DBConfig is the PostgreSQL configuration.
type DBConfig struct {
	URL              string
	MaxConns         int
	MinConns         int
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// NumberingConfig controls invoice numbers and their allocation.
type NumberingConfig struct {
	Prefix       string
	PadWidth     int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// JWTConfig configures operator tokens. An empty secret disables auth.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Enabled reports whether bearer auth is required.
func (c JWTConfig) Enabled() bool {
	return c.Secret != ""
}

// SellerConfig is printed in the bill header.
type SellerConfig struct {
	Name string
	NTN  string
	GST  string
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Port string
	Gzip bool
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

// Load reads an optional .env or config.env file, then environment variables.
// Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for _, name := range []string{".env", "config"} {
		v.SetConfigName(name)
		v.SetConfigType("env")
		v.AddConfigPath(".")
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", name, err)
			}
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			URL:              v.GetString("DATABASE_URL"),
			MaxConns:         v.GetInt("DB_MAX_CONNS"),
			MinConns:         v.GetInt("DB_MIN_CONNS"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
			AutoMigrate:      v.GetBool("AUTO_MIGRATE"),
		},
		Numbering: NumberingConfig{
			Prefix:       v.GetString("INVOICE_PREFIX"),
			PadWidth:     v.GetInt("INVOICE_PAD_WIDTH"),
			MaxAttempts:  v.GetInt("SEQUENCE_MAX_ATTEMPTS"),
			RetryBackoff: v.GetDuration("SEQUENCE_RETRY_BACKOFF"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Seller: SellerConfig{
			Name: v.GetString("SELLER_NAME"),
			NTN:  v.GetString("SELLER_NTN"),
			GST:  v.GetString("SELLER_GST"),
		},
		HTTP: HTTPConfig{
			Port: v.GetString("APP_PORT"),
			Gzip: v.GetBool("HTTP_GZIP"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "0s")
	v.SetDefault("AUTO_MIGRATE", false)

	v.SetDefault("INVOICE_PREFIX", "MFES")
	v.SetDefault("INVOICE_PAD_WIDTH", 5)
	v.SetDefault("SEQUENCE_MAX_ATTEMPTS", 5)
	v.SetDefault("SEQUENCE_RETRY_BACKOFF", "20ms")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "autobill")
	v.SetDefault("JWT_TTL", "12h")

	v.SetDefault("SELLER_NAME", "")
	v.SetDefault("SELLER_NTN", "")
	v.SetDefault("SELLER_GST", "")

	v.SetDefault("HTTP_GZIP", true)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.DB.URL == "":
		return errors.New("DATABASE_URL is required")
	case c.DB.MaxConns <= 0:
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DB.MaxConns)
	case c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns:
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and %d, got %d", c.DB.MaxConns, c.DB.MinConns)
	case c.Numbering.Prefix == "":
		return errors.New("INVOICE_PREFIX is required")
	case c.Numbering.PadWidth <= 0:
		return fmt.Errorf("INVOICE_PAD_WIDTH must be positive, got %d", c.Numbering.PadWidth)
	case c.Numbering.MaxAttempts <= 0:
		return fmt.Errorf("SEQUENCE_MAX_ATTEMPTS must be positive, got %d", c.Numbering.MaxAttempts)
	case c.Numbering.RetryBackoff < 0:
		return fmt.Errorf("SEQUENCE_RETRY_BACKOFF must not be negative, got %s", c.Numbering.RetryBackoff)
	}
	return nil
}
