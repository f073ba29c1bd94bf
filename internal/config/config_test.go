package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDataDir, EnvLogLevel, EnvDaemon, EnvDays} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.ScheduleDays != 30 {
		t.Errorf("ScheduleDays = %d, want 30", cfg.General.ScheduleDays)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.General.DataDir = "/srv/nexus"
	cfg.Appearance.Theme = "catppuccin-mocha"
	cfg.Daemon.IntervalSec = 15
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvDataDir, "/tmp/override")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDays, "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir() != "/tmp/override" {
		t.Errorf("DataDir() = %q", cfg.DataDir())
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.General.ScheduleDays != 14 {
		t.Errorf("ScheduleDays = %d, want 14", cfg.General.ScheduleDays)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "nexus"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nexus", "config.toml"), []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefaultDataDir_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	if got := DefaultDataDir(); got != "/xdg/data/nexus" {
		t.Errorf("DefaultDataDir() = %q", got)
	}
}

func TestDetectEntitlement(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if e := DetectEntitlement(dir); e.Found || e.Active(now) {
		t.Errorf("missing file: %+v", e)
	}

	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, EntitlementFile), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	write(`{"tier":"premium","productId":"nexus.premium.yearly","expiresAt":"2025-12-31T00:00:00Z"}`)
	e := DetectEntitlement(dir)
	if !e.Active(now) {
		t.Errorf("Active = false for unexpired premium: %+v", e)
	}
	if e.Active(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("Active = true after expiry")
	}

	write(`{"tier":"free"}`)
	if DetectEntitlement(dir).Active(now) {
		t.Error("free tier reported active")
	}

	write(`not json`)
	if DetectEntitlement(dir).Found {
		t.Error("garbage file reported found")
	}
}
