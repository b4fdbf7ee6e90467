package integration

import (
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fplboard/fplboard/internal/cache"
)

// A restart within the snapshot ceiling serves the first request straight
// from the restored cache without touching upstream.
func TestSnapshotSurvivesRestart(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	snapshotPath := filepath.Join(t.TempDir(), "fpl-cache.json")

	// First process lifetime: fetch everything, then write the shutdown
	// snapshot.
	st := newStack(t, cache.NewStore())
	if status, _ := st.get(t, "/api/fpl-data"); status != http.StatusOK {
		t.Fatalf("seed read failed with %d", status)
	}
	persister := cache.NewPersister(st.store, snapshotPath, time.Minute, cache.DefaultSnapshotMaxAge, logger)
	if err := persister.Write(); err != nil {
		t.Fatalf("final snapshot failed: %v", err)
	}

	// Second process lifetime: restore, wire a fresh stack around the
	// restored store, and read.
	restored := cache.NewStore()
	if ok := cache.NewPersister(restored, snapshotPath, time.Minute, cache.DefaultSnapshotMaxAge, logger).Restore(); !ok {
		t.Fatalf("expected snapshot to be restored")
	}

	st2 := newStack(t, restored)
	status, payload := st2.get(t, "/api/fpl-data")
	if status != http.StatusOK {
		t.Fatalf("post-restart read failed with %d", status)
	}
	if payload["meta"].(map[string]any)["cached"] != true {
		t.Fatalf("post-restart read should be served from the restored cache")
	}
	if got := st2.hits.Load(); got != 0 {
		t.Fatalf("post-restart read should not hit upstream, got %d", got)
	}
}

// A snapshot older than the ceiling is discarded and the restart begins
// cold.
func TestStaleSnapshotIsDiscarded(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	snapshotPath := filepath.Join(t.TempDir(), "fpl-cache.json")

	old := cache.NewStore()
	ancient := time.Now().UTC().Add(-25 * time.Hour)
	old.SetEntry(cache.SourceBootstrap, []byte(bootstrapPayload), ancient, "")
	old.SetEntry(cache.SourceFixtures, []byte(`[]`), ancient, "")
	if err := cache.NewPersister(old, snapshotPath, time.Minute, cache.DefaultSnapshotMaxAge, logger).Write(); err != nil {
		t.Fatalf("snapshot write failed: %v", err)
	}

	restored := cache.NewStore()
	if ok := cache.NewPersister(restored, snapshotPath, time.Minute, cache.DefaultSnapshotMaxAge, logger).Restore(); ok {
		t.Fatalf("snapshot beyond the ceiling must be discarded")
	}

	st := newStack(t, restored)
	status, payload := st.get(t, "/api/fpl-data")
	if status != http.StatusOK {
		t.Fatalf("cold read failed with %d", status)
	}
	if payload["meta"].(map[string]any)["cached"] != false {
		t.Fatalf("discarded snapshot means a cold first read")
	}
	if got := st.hits.Load(); got != 3 {
		t.Fatalf("cold read should hit all 3 upstreams, got %d", got)
	}
}
