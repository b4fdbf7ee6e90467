package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// Source identifies one of the three upstream data providers.
type Source string

const (
	SourceBootstrap Source = "bootstrap"
	SourceFixtures  Source = "fixtures"
	SourceGithub    Source = "github"
)

// Sources returns all known sources in a stable order.
func Sources() []Source {
	return []Source{SourceBootstrap, SourceFixtures, SourceGithub}
}

// Era is the coarse twice-daily freshness epoch used by the GitHub CSV feed.
// The feed is regenerated upstream twice a day, so the era boundary is the
// refresh opportunity rather than a duration-based TTL.
type Era string

const (
	EraMorning Era = "morning"
	EraEvening Era = "evening"
)

// EraAt maps a wall-clock instant to its era: morning for UTC hours
// [5,17), evening otherwise.
func EraAt(t time.Time) Era {
	hour := t.UTC().Hour()
	if hour >= 5 && hour < 17 {
		return EraMorning
	}
	return EraEvening
}

// Entry is the cached state of a single source. Data is the normalized
// payload as fetched; nil means the source has never been fetched
// successfully, in which case FetchedAt is nil as well. Era is only set on
// the GitHub feed entry.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt *time.Time      `json:"fetched_at"`
	Era       Era             `json:"era,omitempty"`
}

// HasData reports whether the entry holds a previously fetched payload.
func (e Entry) HasData() bool {
	return e.Data != nil && e.FetchedAt != nil
}

// Age returns the entry age relative to now, or -1 if never fetched.
func (e Entry) Age(now time.Time) time.Duration {
	if e.FetchedAt == nil {
		return -1
	}
	return now.Sub(*e.FetchedAt)
}

// Stats carries the monotonic diagnostics counters owned by the Store.
type Stats struct {
	TotalFetches uint64     `json:"total_fetches"`
	CacheHits    uint64     `json:"cache_hits"`
	CacheMisses  uint64     `json:"cache_misses"`
	LastFetchAt  *time.Time `json:"last_fetch_at"`
}

// Snapshot is the full serialized form of a Store. It is written to disk
// wholesale (never partially) and restored all-or-nothing.
type Snapshot struct {
	Entries map[Source]Entry `json:"entries"`
	Stats   Stats            `json:"stats"`
	SavedAt time.Time        `json:"saved_at"`
}

// Store is the single shared mutable resource of the gateway: a keyed record
// of per-source cache entries plus the stats counters. It is an explicitly
// owned value injected into fetchers and the orchestrator, never a package
// singleton, so tests can construct a fresh one per case.
type Store struct {
	mu      sync.RWMutex
	entries map[Source]Entry
	stats   Stats
}

// NewStore returns an empty store with all sources unfetched.
func NewStore() *Store {
	return &Store{entries: make(map[Source]Entry, 3)}
}

// Entry returns a copy of the entry for the given source. The Data slice is
// shared with the store; callers must treat it as read-only.
func (s *Store) Entry(source Source) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[source]
}

// SetEntry records a successful fetch: payload, the instant of success, and
// (for the GitHub feed) the era derived from that instant. It also advances
// the fetch counters, keeping the "store write == successful fetch"
// invariant in one place.
func (s *Store) SetEntry(source Source, data []byte, fetchedAt time.Time, era Era) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := fetchedAt
	s.entries[source] = Entry{
		Data:      json.RawMessage(data),
		FetchedAt: &at,
		Era:       era,
	}
	s.stats.TotalFetches++
	s.stats.LastFetchAt = &at
}

// RecordHit counts a combined read served entirely from cache.
func (s *Store) RecordHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.CacheHits++
}

// RecordMiss counts a combined read that triggered at least one fetch.
func (s *Store) RecordMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.CacheMisses++
}

// Stats returns a copy of the current counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Export produces a deep copy of the full store state for persistence or
// diagnostics. Every known source appears in the snapshot, unfetched ones
// as empty entries, so the on-disk shape mirrors the store verbatim.
func (s *Store) Export(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Entries: make(map[Source]Entry, len(s.entries)),
		Stats:   s.stats,
		SavedAt: now,
	}
	for _, source := range Sources() {
		snap.Entries[source] = copyEntry(s.entries[source])
	}
	if s.stats.LastFetchAt != nil {
		at := *s.stats.LastFetchAt
		snap.Stats.LastFetchAt = &at
	}
	return snap
}

// Restore replaces the whole store state with the snapshot. All-or-nothing:
// the caller decides beforehand whether the snapshot qualifies; Restore
// itself never merges.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[Source]Entry, len(snap.Entries))
	for source, entry := range snap.Entries {
		if !entry.HasData() {
			continue
		}
		s.entries[source] = copyEntry(entry)
	}
	s.stats = snap.Stats
	if snap.Stats.LastFetchAt != nil {
		at := *snap.Stats.LastFetchAt
		s.stats.LastFetchAt = &at
	}
}

func copyEntry(entry Entry) Entry {
	out := Entry{Era: entry.Era}
	if entry.Data != nil {
		out.Data = append(json.RawMessage(nil), entry.Data...)
	}
	if entry.FetchedAt != nil {
		at := *entry.FetchedAt
		out.FetchedAt = &at
	}
	return out
}
