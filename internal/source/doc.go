// Package source implements the per-upstream fetchers. Each fetcher issues
// a bounded network call, normalizes the payload, and writes through the
// cache store on success. On failure it falls back to the previously cached
// payload when one exists; only a source that has never been fetched
// surfaces an error to the caller. The package also holds the uncached
// client for per-manager team lookups, which have no fallback.
package source
