package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	cfg.API.Key = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults() with api key should validate, got: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.API.Key = "" // missing credential
	cfg.Mode = "bogus"
	cfg.Pricing.OutlierPct = 0.7
	cfg.Engine.PageWorkers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"api: key", "unknown mode", "outlier_pct", "page_workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got:\n%v", want, err)
		}
	}
}

func TestValidateTelegramPair(t *testing.T) {
	cfg := Defaults()
	cfg.API.Key = "k"
	cfg.Notify.TelegramToken = "tok"
	// chat id left empty

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "telegram") {
		t.Fatalf("expected telegram pairing error, got: %v", err)
	}
}

func TestLoadTOMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "once"

[api]
key = "file-key"

[engine]
poll_interval = "45s"

[thresholds]
min_profit = 250000
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FLIPFINDER_API_KEY", "env-key")
	t.Setenv("FLIPFINDER_THRESHOLDS_MIN_PROFIT_PCT", "0.35")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "once" {
		t.Errorf("Mode = %q, want once", cfg.Mode)
	}
	if cfg.API.Key != "env-key" {
		t.Errorf("API.Key = %q, env override should win", cfg.API.Key)
	}
	if got := cfg.Engine.PollInterval.Duration; got != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", got)
	}
	if cfg.Thresholds.MinProfit != 250000 {
		t.Errorf("MinProfit = %d, want 250000", cfg.Thresholds.MinProfit)
	}
	if cfg.Thresholds.MinProfitPct != 0.35 {
		t.Errorf("MinProfitPct = %g, want 0.35", cfg.Thresholds.MinProfitPct)
	}
	// Untouched fields keep their defaults.
	if cfg.Engine.PageWorkers != 8 {
		t.Errorf("PageWorkers = %d, want default 8", cfg.Engine.PageWorkers)
	}
}
