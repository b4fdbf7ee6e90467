package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/fplboard/fplboard/internal/cache"
	"github.com/fplboard/fplboard/internal/gateway"
	"github.com/fplboard/fplboard/internal/server"
	"github.com/fplboard/fplboard/internal/source"
)

const bootstrapPayload = `{"events":[{"id":7,"is_current":true,"finished":false}]}`

type apiFixture struct {
	app      *fiber.App
	store    *cache.Store
	upstream *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bootstrap-static/":
			w.Write([]byte(bootstrapPayload))
		case "/fixtures/":
			w.Write([]byte(`[{"id":1}]`))
		case "/feed.csv":
			w.Write([]byte("name,team\nHaaland,Man City\n"))
		case "/entry/42/":
			w.Write([]byte(`{"id":42}`))
		case "/entry/42/event/7/picks/":
			w.Write([]byte(`{"picks":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := cache.NewStore()
	client := upstream.Client()
	orch := gateway.New(gateway.Options{
		Store:  store,
		Policy: cache.DefaultPolicy(),
		Fetchers: source.NewFetchers(
			client, store, logger,
			upstream.URL+"/bootstrap-static/",
			upstream.URL+"/fixtures/",
			upstream.URL+"/feed.csv",
			time.Second, time.Second,
		),
		Users:  source.NewUserClient(client, upstream.URL, time.Second),
		Logger: logger,
	})

	app, err := server.NewApp(server.AppOptions{Logger: logger, Orchestrator: orch})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	RegisterAPIRoutes(app, Options{
		Orchestrator: orch,
		Store:        store,
		Logger:       logger,
		StartedAt:    time.Now().UTC(),
	})

	return &apiFixture{app: app, store: store, upstream: upstream}
}

func getJSON(t *testing.T, app *fiber.App, path string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d for %s, got %d (body=%s)", wantStatus, path, resp.StatusCode, string(body))
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	fx := newAPIFixture(t)
	payload := getJSON(t, fx.app, "/health", fiber.StatusOK)
	if payload["status"] != "healthy" {
		t.Fatalf("expected healthy status, got %v", payload["status"])
	}
	if payload["timestamp"] == "" {
		t.Fatalf("expected timestamp")
	}
}

func TestCombinedEndpointHitMissFlow(t *testing.T) {
	fx := newAPIFixture(t)

	first := getJSON(t, fx.app, "/api/fpl-data", fiber.StatusOK)
	meta := first["meta"].(map[string]any)
	if meta["cached"] != false {
		t.Fatalf("cold read should not be cached")
	}
	if fx.store.Stats().CacheMisses != 1 {
		t.Fatalf("expected 1 miss, got %d", fx.store.Stats().CacheMisses)
	}

	second := getJSON(t, fx.app, "/api/fpl-data", fiber.StatusOK)
	meta = second["meta"].(map[string]any)
	if meta["cached"] != true {
		t.Fatalf("warm read should be cached")
	}
	if fx.store.Stats().CacheHits != 1 {
		t.Fatalf("expected 1 hit, got %d", fx.store.Stats().CacheHits)
	}
	if meta["github_era"] != meta["current_era"] {
		t.Fatalf("freshly fetched feed should be in the current era")
	}
	if meta["bootstrap_age"] == nil {
		t.Fatalf("expected bootstrap_age after fetch")
	}
}

func TestCombinedEndpointForceRefresh(t *testing.T) {
	fx := newAPIFixture(t)

	getJSON(t, fx.app, "/api/fpl-data", fiber.StatusOK)
	forced := getJSON(t, fx.app, "/api/fpl-data?refresh=true", fiber.StatusOK)
	meta := forced["meta"].(map[string]any)
	if meta["cached"] != false {
		t.Fatalf("refresh=true must bypass the cache")
	}
	if fx.store.Stats().CacheMisses != 2 {
		t.Fatalf("expected 2 misses, got %d", fx.store.Stats().CacheMisses)
	}
}

func TestCombinedEndpointUpstreamDown(t *testing.T) {
	fx := newAPIFixture(t)
	fx.upstream.Close()

	payload := getJSON(t, fx.app, "/api/fpl-data", fiber.StatusInternalServerError)
	if payload["error"] != "source_unavailable" {
		t.Fatalf("expected source_unavailable, got %v", payload["error"])
	}
	if payload["message"] == "" {
		t.Fatalf("expected error message naming the source")
	}
}

func TestTeamEndpoint(t *testing.T) {
	fx := newAPIFixture(t)

	payload := getJSON(t, fx.app, "/api/team/42", fiber.StatusOK)
	if payload["gameweek"] != float64(7) {
		t.Fatalf("expected gameweek 7, got %v", payload["gameweek"])
	}
	if payload["team"] == nil || payload["picks"] == nil {
		t.Fatalf("expected team and picks payloads")
	}
}

func TestTeamEndpointRejectsBadID(t *testing.T) {
	fx := newAPIFixture(t)

	payload := getJSON(t, fx.app, "/api/team/not-a-number", fiber.StatusBadRequest)
	if payload["error"] != "invalid_team_id" {
		t.Fatalf("expected invalid_team_id, got %v", payload["error"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	fx := newAPIFixture(t)
	getJSON(t, fx.app, "/api/fpl-data", fiber.StatusOK)

	payload := getJSON(t, fx.app, "/api/stats", fiber.StatusOK)

	sources := payload["sources"].(map[string]any)
	github := sources["github"].(map[string]any)
	if github["cached"] != true {
		t.Fatalf("expected github source cached after combined read")
	}
	if github["era"] == nil {
		t.Fatalf("expected era on github source")
	}
	stats := payload["stats"].(map[string]any)
	if stats["total_fetches"] != float64(3) {
		t.Fatalf("expected 3 fetches, got %v", stats["total_fetches"])
	}
	if payload["uptime_seconds"] == nil || payload["timestamp"] == nil {
		t.Fatalf("expected uptime and timestamp")
	}
}
