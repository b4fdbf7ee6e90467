package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate performs semantic checks so an invalid configuration refuses to
// start the service instead of failing at the first request.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "must be within 1-65535")
	}
	if g.SnapshotPath == "" {
		return newFieldError("SnapshotPath", "must not be empty")
	}
	if g.SnapshotInterval.DurationValue() <= 0 {
		return newFieldError("SnapshotInterval", "must be greater than 0")
	}
	if g.SnapshotMaxAge.DurationValue() <= 0 {
		return newFieldError("SnapshotMaxAge", "must be greater than 0")
	}
	if g.APITimeout.DurationValue() <= 0 {
		return newFieldError("APITimeout", "must be greater than 0")
	}
	if g.FeedTimeout.DurationValue() <= 0 {
		return newFieldError("FeedTimeout", "must be greater than 0")
	}
	if g.BootstrapActiveTTL.DurationValue() <= 0 {
		return newFieldError("BootstrapActiveTTL", "must be greater than 0")
	}
	if g.BootstrapIdleTTL.DurationValue() <= 0 {
		return newFieldError("BootstrapIdleTTL", "must be greater than 0")
	}
	if g.FixturesTTL.DurationValue() <= 0 {
		return newFieldError("FixturesTTL", "must be greater than 0")
	}

	for field, value := range map[string]string{
		"APIBaseURL":   g.APIBaseURL,
		"BootstrapURL": g.BootstrapURL,
		"FixturesURL":  g.FixturesURL,
		"FeedURL":      g.FeedURL,
	} {
		if err := validateUpstream(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("url host must not be empty")
	}
	return nil
}
