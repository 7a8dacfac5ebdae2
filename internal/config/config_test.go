package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "")
	t.Setenv("RECALC_SCHEDULE", "")
	t.Setenv("RECALC_TIMEZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.TokenTTL() != 30*time.Minute {
		t.Fatalf("expected 30m token ttl, got %s", cfg.Auth.TokenTTL())
	}
	if cfg.Recalc.Schedule != "0 0 * * MON" {
		t.Fatalf("unexpected schedule %q", cfg.Recalc.Schedule)
	}
	if cfg.Recalc.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", cfg.Recalc.Location())
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %q", cfg.App.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "5")
	t.Setenv("RECALC_TIMEZONE", "Europe/Paris")
	t.Setenv("LOGIN_RATE_BURST", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("expected port override, got %q", cfg.App.Port)
	}
	if cfg.Auth.TokenTTL() != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", cfg.Auth.TokenTTL())
	}
	if cfg.Recalc.Location().String() != "Europe/Paris" {
		t.Fatalf("unexpected location %s", cfg.Recalc.Location())
	}
	if cfg.RateLimit.LoginBurst != 5 {
		t.Fatalf("expected fallback burst 5, got %d", cfg.RateLimit.LoginBurst)
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("RECALC_TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
