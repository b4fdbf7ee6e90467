package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Default upstream endpoints: the public fantasy API and the
// community-maintained merged stats CSV on raw GitHub hosting.
const (
	defaultAPIBaseURL   = "https://fantasy.premierleague.com/api"
	defaultBootstrapURL = defaultAPIBaseURL + "/bootstrap-static/"
	defaultFixturesURL  = defaultAPIBaseURL + "/fixtures/"
	defaultFeedURL      = "https://raw.githubusercontent.com/vaastav/Fantasy-Premier-League/master/data/2024-25/gws/merged_gw.csv"
)

const defaultListenPort = 3001

// Load reads the TOML config file, applies defaults and env overrides, and
// validates the result. A missing file is not an error: the gateway runs
// fully on defaults, with only the PORT env var commonly set.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyEnvOverrides(&cfg.Global)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", defaultListenPort)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("APIBaseURL", defaultAPIBaseURL)
	v.SetDefault("BootstrapURL", defaultBootstrapURL)
	v.SetDefault("FixturesURL", defaultFixturesURL)
	v.SetDefault("FeedURL", defaultFeedURL)
	v.SetDefault("APITimeout", "10s")
	v.SetDefault("FeedTimeout", "15s")
	v.SetDefault("BootstrapActiveTTL", "30m")
	v.SetDefault("BootstrapIdleTTL", "12h")
	v.SetDefault("FixturesTTL", "12h")
	v.SetDefault("SnapshotPath", "./fpl-cache.json")
	v.SetDefault("SnapshotInterval", "5m")
	v.SetDefault("SnapshotMaxAge", "24h")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = defaultListenPort
	}
	if g.APITimeout.DurationValue() == 0 {
		g.APITimeout = Duration(10 * time.Second)
	}
	if g.FeedTimeout.DurationValue() == 0 {
		g.FeedTimeout = Duration(15 * time.Second)
	}
	if g.BootstrapActiveTTL.DurationValue() == 0 {
		g.BootstrapActiveTTL = Duration(30 * time.Minute)
	}
	if g.BootstrapIdleTTL.DurationValue() == 0 {
		g.BootstrapIdleTTL = Duration(12 * time.Hour)
	}
	if g.FixturesTTL.DurationValue() == 0 {
		g.FixturesTTL = Duration(12 * time.Hour)
	}
	if g.SnapshotInterval.DurationValue() == 0 {
		g.SnapshotInterval = Duration(5 * time.Minute)
	}
	if g.SnapshotMaxAge.DurationValue() == 0 {
		g.SnapshotMaxAge = Duration(24 * time.Hour)
	}
}

// applyEnvOverrides applies the PORT variable, which wins over both the
// file and the default.
func applyEnvOverrides(g *GlobalConfig) {
	if raw := os.Getenv("PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 {
			g.ListenPort = port
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("cannot parse duration field: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported duration type: %T", v)
		}
	}
}
