// Package gateway orchestrates reads against the freshness cache: it asks
// the policy which sources are due, runs the due fetches in parallel, and
// assembles the combined dashboard payload plus metadata.
package gateway

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fplboard/fplboard/internal/cache"
	"github.com/fplboard/fplboard/internal/source"
)

// Orchestrator drives the two read paths of the gateway. All collaborators
// are injected; tests wire stub fetchers and a fixed clock.
type Orchestrator struct {
	store    *cache.Store
	policy   cache.Policy
	fetchers map[cache.Source]source.Fetcher
	users    *source.UserClient
	logger   *logrus.Logger
	now      func() time.Time
}

// Options collects the orchestrator dependencies.
type Options struct {
	Store    *cache.Store
	Policy   cache.Policy
	Fetchers map[cache.Source]source.Fetcher
	Users    *source.UserClient
	Logger   *logrus.Logger
	Now      func() time.Time
}

// New builds an orchestrator from its dependencies.
func New(opts Options) *Orchestrator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:    opts.Store,
		policy:   opts.Policy,
		fetchers: opts.Fetchers,
		users:    opts.Users,
		logger:   opts.Logger,
		now:      now,
	}
}

// Meta is the derived metadata attached to every combined response. Ages
// are milliseconds since the source's last successful fetch, null when a
// source has never been fetched.
type Meta struct {
	Cached       bool   `json:"cached"`
	BootstrapAge *int64 `json:"bootstrap_age"`
	FixturesAge  *int64 `json:"fixtures_age"`
	GithubAge    *int64 `json:"github_age"`
	GithubEra    string `json:"github_era"`
	CurrentEra   string `json:"current_era"`
	Timestamp    string `json:"timestamp"`
}

// CombinedResponse is the payload served to the dashboard on the combined
// read.
type CombinedResponse struct {
	Bootstrap json.RawMessage `json:"bootstrap"`
	Fixtures  json.RawMessage `json:"fixtures"`
	Github    json.RawMessage `json:"github"`
	Meta      Meta            `json:"meta"`
}

// CombinedRead serves the dashboard's combined payload. Per source it
// refetches only when forced or due; all due fetches run concurrently and
// the response is assembled after every one has settled. There is
// deliberately no deduplication of logically concurrent reads: two requests
// that both find a source stale each issue their own upstream call, and the
// store keeps the last writer's payload.
func (o *Orchestrator) CombinedRead(ctx context.Context, force bool) (*CombinedResponse, error) {
	now := o.now().UTC()

	due := make([]cache.Source, 0, 3)
	for _, src := range cache.Sources() {
		needs, reason := o.policy.ShouldRefresh(src, o.store.Entry(src), now)
		if force || needs {
			if force {
				reason = "forced refresh"
			}
			o.logger.WithFields(logrus.Fields{
				"source": string(src),
				"reason": reason,
			}).Debug("refetch due")
			due = append(due, src)
		}
	}

	if len(due) == 0 {
		o.store.RecordHit()
		return o.assemble(true), nil
	}

	o.store.RecordMiss()

	// Plain errgroup, not WithContext: a terminal failure on one source must
	// not cancel the others mid-flight, every fetch settles on its own.
	var g errgroup.Group
	for _, src := range due {
		fetcher := o.fetchers[src]
		g.Go(func() error {
			_, err := fetcher.Fetch(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return o.assemble(false), nil
}

// assemble builds the response from whatever the store currently holds.
func (o *Orchestrator) assemble(cached bool) *CombinedResponse {
	now := o.now().UTC()
	bootstrap := o.store.Entry(cache.SourceBootstrap)
	fixtures := o.store.Entry(cache.SourceFixtures)
	github := o.store.Entry(cache.SourceGithub)

	return &CombinedResponse{
		Bootstrap: bootstrap.Data,
		Fixtures:  fixtures.Data,
		Github:    github.Data,
		Meta: Meta{
			Cached:       cached,
			BootstrapAge: ageMillis(bootstrap, now),
			FixturesAge:  ageMillis(fixtures, now),
			GithubAge:    ageMillis(github, now),
			GithubEra:    string(github.Era),
			CurrentEra:   string(cache.EraAt(now)),
			Timestamp:    now.Format(time.RFC3339),
		},
	}
}

func ageMillis(entry cache.Entry, now time.Time) *int64 {
	if !entry.HasData() {
		return nil
	}
	ms := entry.Age(now).Milliseconds()
	return &ms
}

// DueSources reports which sources the policy currently considers stale,
// in stable order. Used by diagnostics output.
func (o *Orchestrator) DueSources() []string {
	now := o.now().UTC()
	due := make([]string, 0, 3)
	for _, src := range cache.Sources() {
		if needs, _ := o.policy.ShouldRefresh(src, o.store.Entry(src), now); needs {
			due = append(due, string(src))
		}
	}
	sort.Strings(due)
	return due
}
