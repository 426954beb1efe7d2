package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_NAME", "vahire")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("APP_NAME", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	t.Setenv("APP_CONFIG_FILE", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing env")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Database.Driver != StoreDriverMemory {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Payment.PlatformFeeRate.String() != "0.1" {
		t.Fatalf("platform fee rate = %s", cfg.Payment.PlatformFeeRate)
	}
	if cfg.Payment.Currency != "USD" {
		t.Fatalf("currency = %s", cfg.Payment.Currency)
	}
	if cfg.Rating.MaxRetries != 5 {
		t.Fatalf("max retries = %d", cfg.Rating.MaxRetries)
	}
}

func TestLoad_FileOverlayAndEnvPrecedence(t *testing.T) {
	setRequired(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "vahire.yaml")
	body := []byte(`
payment:
  currency: eur
  platform_fee_rate: "0.12"
  breaker:
    failure_threshold: 2
    open_timeout: 10s
worklog:
  hours_tolerance: "0.05"
rating:
  max_retries: 9
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("APP_CONFIG_FILE", path)
	t.Setenv("PAYMENT_PLATFORM_FEE_RATE", "0.15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Payment.Currency != "EUR" {
		t.Fatalf("currency = %s", cfg.Payment.Currency)
	}
	if cfg.Payment.PlatformFeeRate.String() != "0.15" {
		t.Fatalf("env must win over file, got %s", cfg.Payment.PlatformFeeRate)
	}
	if cfg.Payment.BreakerFailureThreshold != 2 || cfg.Payment.BreakerOpenTimeout != 10*time.Second {
		t.Fatalf("breaker = %d %s", cfg.Payment.BreakerFailureThreshold, cfg.Payment.BreakerOpenTimeout)
	}
	if cfg.Worklog.HoursTolerance.String() != "0.05" {
		t.Fatalf("tolerance = %s", cfg.Worklog.HoursTolerance)
	}
	if cfg.Rating.MaxRetries != 9 {
		t.Fatalf("retries = %d", cfg.Rating.MaxRetries)
	}
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "sqlite")

	if _, err := Load(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
