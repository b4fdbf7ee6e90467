package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Global.ListenPort != 4100 {
		t.Fatalf("ListenPort should come from the file, got %d", cfg.Global.ListenPort)
	}
	if cfg.Global.FixturesTTL.DurationValue() != 6*time.Hour {
		t.Fatalf("FixturesTTL should come from the file, got %v", cfg.Global.FixturesTTL.DurationValue())
	}
	if cfg.Global.BootstrapActiveTTL.DurationValue() != 30*time.Minute {
		t.Fatalf("BootstrapActiveTTL should default to 30m")
	}
	if cfg.Global.SnapshotMaxAge.DurationValue() != 24*time.Hour {
		t.Fatalf("SnapshotMaxAge should default to 24h")
	}
	if cfg.Global.BootstrapURL == "" || cfg.Global.FixturesURL == "" {
		t.Fatalf("upstream URLs should default")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing config file should not be fatal: %v", err)
	}
	if cfg.Global.ListenPort != defaultListenPort {
		t.Fatalf("expected default port, got %d", cfg.Global.ListenPort)
	}
	if cfg.Global.SnapshotInterval.DurationValue() != 5*time.Minute {
		t.Fatalf("expected default snapshot interval")
	}
}

func TestPortEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "9999")
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Global.ListenPort != 9999 {
		t.Fatalf("PORT env should win, got %d", cfg.Global.ListenPort)
	}
}

func TestLoadAcceptsIntegerSeconds(t *testing.T) {
	path := writeTempConfig(t, "FixturesTTL = 3600\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Global.FixturesTTL.DurationValue() != time.Hour {
		t.Fatalf("bare integers should parse as seconds, got %v", cfg.Global.FixturesTTL.DurationValue())
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeTempConfig(t, `FixturesTTL = "boom"`+"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("invalid duration should fail")
	}
}

func TestLoadRejectsInvalidUpstream(t *testing.T) {
	path := writeTempConfig(t, `FeedURL = "ftp://example.com/feed.csv"`+"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("non-http upstream should fail validation")
	}
}
