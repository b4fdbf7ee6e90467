package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fplboard/fplboard/internal/cache"
	"github.com/fplboard/fplboard/internal/logging"
)

// Request timeouts per source. The CSV feed gets longer because the payload
// is larger and parsed synchronously after download.
const (
	DefaultAPITimeout  = 10 * time.Second
	DefaultFeedTimeout = 15 * time.Second
)

// Fetcher retrieves one source's payload and writes it through the cache
// store. Fetch returns the payload now held by the store; after a failed
// upstream call with prior data cached, that is the previous payload
// verbatim (stale fallback), reported as success.
type Fetcher interface {
	Source() cache.Source
	Fetch(ctx context.Context) (json.RawMessage, error)
}

// fetcherCore carries the pieces every fetcher shares.
type fetcherCore struct {
	source  cache.Source
	url     string
	timeout time.Duration
	client  *http.Client
	store   *cache.Store
	logger  *logrus.Logger
	now     func() time.Time
}

func (f *fetcherCore) Source() cache.Source {
	return f.source
}

// complete records a successful fetch in the store, stamping the instant of
// success (not of request start) and, for the GitHub feed, the era derived
// from it.
func (f *fetcherCore) complete(payload []byte) json.RawMessage {
	at := f.now().UTC()
	era := cache.Era("")
	if f.source == cache.SourceGithub {
		era = cache.EraAt(at)
	}
	f.store.SetEntry(f.source, payload, at, era)
	return payload
}

// fallback absorbs an upstream failure into the previously cached payload
// when one exists. Only a source with no history escalates.
func (f *fetcherCore) fallback(cause error) (json.RawMessage, error) {
	entry := f.store.Entry(f.source)
	if entry.HasData() {
		f.logger.WithError(cause).
			WithFields(logging.SourceFields(f.source, "stale_fallback")).
			Warn("upstream failed, serving cached data")
		return entry.Data, nil
	}
	return nil, &SourceError{Source: f.source, Err: fmt.Errorf("%w: %v", ErrSourceUnavailable, cause)}
}

// jsonFetcher serves the two live-API sources. The payload passes through
// as-is after a syntax check; upstream business semantics are not
// interpreted here.
type jsonFetcher struct {
	fetcherCore
}

// NewBootstrapFetcher fetches the bootstrap-static payload (players, teams,
// gameweek calendar).
func NewBootstrapFetcher(client *http.Client, store *cache.Store, logger *logrus.Logger, url string, timeout time.Duration) Fetcher {
	return newJSONFetcher(cache.SourceBootstrap, client, store, logger, url, timeout)
}

// NewFixturesFetcher fetches the fixtures list.
func NewFixturesFetcher(client *http.Client, store *cache.Store, logger *logrus.Logger, url string, timeout time.Duration) Fetcher {
	return newJSONFetcher(cache.SourceFixtures, client, store, logger, url, timeout)
}

func newJSONFetcher(source cache.Source, client *http.Client, store *cache.Store, logger *logrus.Logger, url string, timeout time.Duration) Fetcher {
	if timeout <= 0 {
		timeout = DefaultAPITimeout
	}
	return &jsonFetcher{fetcherCore{
		source:  source,
		url:     url,
		timeout: timeout,
		client:  client,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}}
}

func (f *jsonFetcher) Fetch(ctx context.Context) (json.RawMessage, error) {
	body, err := get(ctx, f.client, f.url, f.timeout)
	if err != nil {
		return f.fallback(err)
	}
	if !json.Valid(body) {
		return f.fallback(fmt.Errorf("unparseable response body"))
	}
	f.logger.WithFields(logging.SourceFields(f.source, "fetched")).
		WithField("bytes", len(body)).
		Info("source refreshed")
	return f.complete(body), nil
}

// csvFetcher serves the externally hosted CSV feed, normalizing it to a
// JSON array of row objects.
type csvFetcher struct {
	fetcherCore
}

// NewGithubFeedFetcher fetches the merged player-stats CSV feed.
func NewGithubFeedFetcher(client *http.Client, store *cache.Store, logger *logrus.Logger, url string, timeout time.Duration) Fetcher {
	if timeout <= 0 {
		timeout = DefaultFeedTimeout
	}
	return &csvFetcher{fetcherCore{
		source:  cache.SourceGithub,
		url:     url,
		timeout: timeout,
		client:  client,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}}
}

func (f *csvFetcher) Fetch(ctx context.Context) (json.RawMessage, error) {
	body, err := get(ctx, f.client, f.url, f.timeout)
	if err != nil {
		return f.fallback(err)
	}

	normalized, warnings, err := normalizeCSV(body)
	if err != nil {
		return f.fallback(err)
	}
	if warnings > 0 {
		f.logger.WithFields(logging.SourceFields(f.source, "parse_warning")).
			WithField("skipped_rows", warnings).
			Warn("feed rows skipped")
	}
	f.logger.WithFields(logging.SourceFields(f.source, "fetched")).
		WithField("bytes", len(body)).
		Info("source refreshed")
	return f.complete(normalized), nil
}

// NewFetchers builds the standard fetcher set keyed by source.
func NewFetchers(client *http.Client, store *cache.Store, logger *logrus.Logger, bootstrapURL, fixturesURL, feedURL string, apiTimeout, feedTimeout time.Duration) map[cache.Source]Fetcher {
	return map[cache.Source]Fetcher{
		cache.SourceBootstrap: NewBootstrapFetcher(client, store, logger, bootstrapURL, apiTimeout),
		cache.SourceFixtures:  NewFixturesFetcher(client, store, logger, fixturesURL, apiTimeout),
		cache.SourceGithub:    NewGithubFeedFetcher(client, store, logger, feedURL, feedTimeout),
	}
}
