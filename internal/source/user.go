package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// UserClient performs the uncached per-manager lookups against the live
// API. Every call is a live fetch: user-specific data has no cache entry
// and therefore no stale fallback.
type UserClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// NewUserClient builds a client rooted at the API base URL.
func NewUserClient(client *http.Client, baseURL string, timeout time.Duration) *UserClient {
	if timeout <= 0 {
		timeout = DefaultAPITimeout
	}
	return &UserClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Team returns the manager's entry record.
func (u *UserClient) Team(ctx context.Context, teamID int) (json.RawMessage, error) {
	body, err := u.get(ctx, fmt.Sprintf("%s/entry/%d/", u.baseURL, teamID))
	if err != nil {
		return nil, &UserDataError{What: "team lookup", Err: err}
	}
	return body, nil
}

// Picks returns the manager's squad picks for the given gameweek.
func (u *UserClient) Picks(ctx context.Context, teamID, gameweek int) (json.RawMessage, error) {
	body, err := u.get(ctx, fmt.Sprintf("%s/entry/%d/event/%d/picks/", u.baseURL, teamID, gameweek))
	if err != nil {
		return nil, &UserDataError{What: "picks lookup", Err: err}
	}
	return body, nil
}

func (u *UserClient) get(ctx context.Context, url string) (json.RawMessage, error) {
	body, err := get(ctx, u.client, url, u.timeout)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("unparseable response body")
	}
	return body, nil
}
