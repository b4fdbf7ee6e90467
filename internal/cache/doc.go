// Package cache holds the in-memory freshness cache that shields the three
// upstream data providers from per-request traffic. The Store keeps one
// Entry per source together with hit/miss counters; Policy decides, per
// source, whether a cached entry is still fresh; Persister snapshots the
// whole Store to a local JSON file and restores it across restarts. The
// package contains no network code: fetchers write through the Store and
// the gateway reads it back.
package cache
