package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := config.LoadEnv()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if !cfg.InitialCash.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected initial cash 10000, got %s", cfg.InitialCash)
	}

	if cfg.QuoteProvider != config.QuoteProviderHTTP || cfg.QuotePricePath != "$.latestPrice" {
		t.Fatalf("unexpected quote defaults: %s %s", cfg.QuoteProvider, cfg.QuotePricePath)
	}

	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected trade events disabled by default, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("SESSION_SECRET", "top-secret")
	t.Setenv("INITIAL_CASH", "2500.50")
	t.Setenv("QUOTE_PROVIDER", "static")
	t.Setenv("QUOTE_STATIC", "AAPL=Apple Inc.:150")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := config.LoadEnv()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if !cfg.InitialCash.Equal(decimal.RequireFromString("2500.5")) {
		t.Fatalf("expected initial cash override, got %s", cfg.InitialCash)
	}

	if cfg.QuoteProvider != config.QuoteProviderStatic || cfg.QuoteStatic == "" {
		t.Fatalf("expected static quotes, got %s %q", cfg.QuoteProvider, cfg.QuoteStatic)
	}

	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("expected two brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.LoadEnv(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadInvalidInitialCash(t *testing.T) {
	t.Setenv("INITIAL_CASH", "lots")

	if _, err := config.LoadEnv(); err == nil {
		t.Fatalf("expected error for invalid initial cash")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "development without secret", mutate: func(*config.Config) {}},
		{name: "production without secret", mutate: func(c *config.Config) { c.Env = "production" }, wantErr: true},
		{name: "production with secret", mutate: func(c *config.Config) { c.Env = "production"; c.SessionSecret = "s" }},
		{name: "unknown quote provider", mutate: func(c *config.Config) { c.QuoteProvider = "yahoo" }, wantErr: true},
		{name: "http provider without url", mutate: func(c *config.Config) { c.QuoteBaseURL = "" }, wantErr: true},
		{name: "negative initial cash", mutate: func(c *config.Config) { c.InitialCash = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "negative retries", mutate: func(c *config.Config) { c.QuoteMaxRetries = -1 }, wantErr: true},
		{name: "brokers without topic", mutate: func(c *config.Config) { c.KafkaBrokers = []string{"k:9092"}; c.KafkaTopic = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Env:           "development",
				QuoteProvider: config.QuoteProviderHTTP,
				QuoteBaseURL:  "https://quotes.example",
				KafkaTopic:    "trades",
				InitialCash:   decimal.NewFromInt(10000),
			}
			tt.mutate(cfg)

			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_PORT=7070\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("HTTP_PORT")
	})

	// A variable already present in the environment wins over .env.
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.HTTPPort != "7070" {
		t.Fatalf("expected port from .env, got %s", cfg.HTTPPort)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected environment to win, got %s", cfg.LogLevel)
	}
}
