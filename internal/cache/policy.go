package cache

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Default freshness windows. Bootstrap switches between two TTLs depending
// on whether the payload itself reports an in-progress gameweek.
const (
	DefaultBootstrapActiveTTL = 30 * time.Minute
	DefaultBootstrapIdleTTL   = 12 * time.Hour
	DefaultFixturesTTL        = 12 * time.Hour
)

// Policy holds the per-source freshness rules. The decision functions are
// pure: they look only at the entry and the supplied clock instant, so tests
// can probe boundaries without timers.
type Policy struct {
	BootstrapActiveTTL time.Duration
	BootstrapIdleTTL   time.Duration
	FixturesTTL        time.Duration
}

// DefaultPolicy returns the production freshness windows.
func DefaultPolicy() Policy {
	return Policy{
		BootstrapActiveTTL: DefaultBootstrapActiveTTL,
		BootstrapIdleTTL:   DefaultBootstrapIdleTTL,
		FixturesTTL:        DefaultFixturesTTL,
	}
}

// ShouldRefresh reports whether the source's entry is due for a refetch,
// with a reason string for log output.
func (p Policy) ShouldRefresh(source Source, entry Entry, now time.Time) (bool, string) {
	if !entry.HasData() {
		return true, "no cached data"
	}

	switch source {
	case SourceBootstrap:
		return p.bootstrapDue(entry, now)
	case SourceFixtures:
		if age := entry.Age(now); age > p.FixturesTTL {
			return true, fmt.Sprintf("age %s exceeds ttl %s", age.Truncate(time.Second), p.FixturesTTL)
		}
		return false, "within ttl"
	case SourceGithub:
		if current := EraAt(now); current != entry.Era {
			return true, fmt.Sprintf("era rolled over to %s", current)
		}
		return false, "same era"
	default:
		return true, "unknown source"
	}
}

// bootstrapDue picks between the active and idle TTL by inspecting the
// cached payload's own gameweek calendar. An unreadable calendar counts as
// due: fail open toward freshness, not staleness.
func (p Policy) bootstrapDue(entry Entry, now time.Time) (bool, string) {
	events := gjson.GetBytes(entry.Data, "events")
	if !events.Exists() || !events.IsArray() {
		return true, "gameweek calendar unreadable"
	}

	ttl := p.BootstrapIdleTTL
	label := "no active gameweek"
	current := events.Get("#(is_current==true)")
	if current.Exists() && !current.Get("finished").Bool() {
		ttl = p.BootstrapActiveTTL
		label = "gameweek in progress"
	}

	if age := entry.Age(now); age > ttl {
		return true, fmt.Sprintf("%s, age %s exceeds ttl %s", label, age.Truncate(time.Second), ttl)
	}
	return false, label
}

// CurrentGameweek extracts the in-progress gameweek number from a bootstrap
// payload, or 0 if none is active.
func CurrentGameweek(data []byte) int {
	current := gjson.GetBytes(data, "events.#(is_current==true)")
	if !current.Exists() {
		return 0
	}
	return int(current.Get("id").Int())
}
