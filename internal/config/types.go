package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration accepts both Go duration strings ("30s", "12h") and bare integer
// seconds in the TOML file.
type Duration time.Duration

// UnmarshalText lets viper decode duration fields written either way.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue returns the underlying time.Duration.
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig describes the whole runtime behavior; the gateway has no
// per-route sections.
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	// Upstream endpoints for the three sources and the per-manager lookups.
	BootstrapURL string `mapstructure:"BootstrapURL"`
	FixturesURL  string `mapstructure:"FixturesURL"`
	FeedURL      string `mapstructure:"FeedURL"`
	APIBaseURL   string `mapstructure:"APIBaseURL"`

	APITimeout  Duration `mapstructure:"APITimeout"`
	FeedTimeout Duration `mapstructure:"FeedTimeout"`

	// Freshness windows per source.
	BootstrapActiveTTL Duration `mapstructure:"BootstrapActiveTTL"`
	BootstrapIdleTTL   Duration `mapstructure:"BootstrapIdleTTL"`
	FixturesTTL        Duration `mapstructure:"FixturesTTL"`

	// Snapshot persistence.
	SnapshotPath     string   `mapstructure:"SnapshotPath"`
	SnapshotInterval Duration `mapstructure:"SnapshotInterval"`
	SnapshotMaxAge   Duration `mapstructure:"SnapshotMaxAge"`
}

// Config is the root structure mapped from the TOML file.
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
}
