package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fplboard/fplboard/internal/cache"
	"github.com/fplboard/fplboard/internal/source"
)

var errNoActiveGameweek = errors.New("no active gameweek in bootstrap payload")

// TeamResponse is one manager's team record plus their picks for the
// active gameweek.
type TeamResponse struct {
	Team      json.RawMessage `json:"team"`
	Picks     json.RawMessage `json:"picks"`
	Gameweek  int             `json:"gameweek"`
	Timestamp string          `json:"timestamp"`
}

// TeamRead serves a single manager's team-plus-picks lookup. Bootstrap is
// refreshed first when due, to discover the active gameweek; the team
// record and that gameweek's picks are then fetched concurrently, live and
// uncached. Either lookup failing fails the whole request.
func (o *Orchestrator) TeamRead(ctx context.Context, teamID int) (*TeamResponse, error) {
	bootstrap := o.store.Entry(cache.SourceBootstrap)
	if needs, _ := o.policy.ShouldRefresh(cache.SourceBootstrap, bootstrap, o.now().UTC()); needs {
		if _, err := o.fetchers[cache.SourceBootstrap].Fetch(ctx); err != nil {
			return nil, err
		}
		bootstrap = o.store.Entry(cache.SourceBootstrap)
	}

	gameweek := cache.CurrentGameweek(bootstrap.Data)
	if gameweek == 0 {
		return nil, &source.UserDataError{What: "gameweek lookup", Err: errNoActiveGameweek}
	}

	var (
		team  json.RawMessage
		picks json.RawMessage
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		team, err = o.users.Team(ctx, teamID)
		return err
	})
	g.Go(func() error {
		var err error
		picks, err = o.users.Picks(ctx, teamID, gameweek)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &TeamResponse{
		Team:      team,
		Picks:     picks,
		Gameweek:  gameweek,
		Timestamp: o.now().UTC().Format(time.RFC3339),
	}, nil
}
