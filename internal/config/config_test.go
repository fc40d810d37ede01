package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.TokenTTLSeconds != 14*24*60*60 {
		t.Errorf("TokenTTLSeconds = %d, want 14 days", cfg.TokenTTLSeconds)
	}
	if cfg.AuthIPLimit != 40 || cfg.AuthIPWindowSeconds != 60 {
		t.Errorf("auth IP limit = %d/%ds, want 40/60s", cfg.AuthIPLimit, cfg.AuthIPWindowSeconds)
	}
	if cfg.AuthPlayerLimit != 15 || cfg.AuthPlayerWindowSecs != 300 {
		t.Errorf("auth player limit = %d/%ds, want 15/300s", cfg.AuthPlayerLimit, cfg.AuthPlayerWindowSecs)
	}
	if cfg.ProgressionLimit != 180 || cfg.ProgressionWindowSecs != 60 {
		t.Errorf("progression limit = %d/%ds, want 180/60s", cfg.ProgressionLimit, cfg.ProgressionWindowSecs)
	}
	if !cfg.RateLimitFailOpen {
		t.Error("RateLimitFailOpen should default to true")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROGRESSION_RATE_LIMIT", "25")
	t.Setenv("RATE_LIMIT_FAIL_OPEN", "false")
	t.Setenv("VOIDRUSH_AUTH_SECRET", "s3cret")

	cfg := Load()
	if cfg.ProgressionLimit != 25 {
		t.Errorf("ProgressionLimit = %d, want 25", cfg.ProgressionLimit)
	}
	if cfg.RateLimitFailOpen {
		t.Error("RateLimitFailOpen should be false")
	}
	if cfg.AuthSecret != "s3cret" {
		t.Errorf("AuthSecret = %q", cfg.AuthSecret)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("PROGRESSION_RATE_LIMIT", "not-a-number")
	cfg := Load()
	if cfg.ProgressionLimit != 180 {
		t.Errorf("ProgressionLimit = %d, want default 180 on parse failure", cfg.ProgressionLimit)
	}
}
