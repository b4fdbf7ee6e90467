package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSnapshotMaxAge is the ceiling beyond which a restored snapshot is
// discarded at startup. The bootstrap entry's fetch time stands in for the
// age of the whole snapshot.
const DefaultSnapshotMaxAge = 24 * time.Hour

// DefaultSnapshotInterval is how often the periodic snapshot runs.
const DefaultSnapshotInterval = 5 * time.Minute

// Persister serializes the full Store to a local JSON file on a fixed
// interval and restores it at startup. It never participates in the request
// path; write failures are logged and otherwise ignored. The interval
// ticker and the shutdown hook are driven by the process owner through
// Run's context and a final explicit Write.
type Persister struct {
	store    *Store
	path     string
	interval time.Duration
	maxAge   time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

// NewPersister wires a persister to a store and a snapshot file path.
func NewPersister(store *Store, path string, interval, maxAge time.Duration, logger *logrus.Logger) *Persister {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultSnapshotMaxAge
	}
	return &Persister{
		store:    store,
		path:     path,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
}

// Run writes a snapshot every interval until the context is cancelled. The
// caller is expected to follow cancellation with one final Write.
func (p *Persister) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Write(); err != nil {
				p.logger.WithError(err).WithFields(logrus.Fields{
					"action": "snapshot_write",
					"path":   p.path,
				}).Warn("periodic snapshot failed")
			}
		}
	}
}

// Write serializes the whole store to the snapshot file, overwriting the
// previous one. Temp file + rename keeps the file either old or new, never
// half-written.
func (p *Persister) Write() error {
	snap := p.store.Export(p.now().UTC())
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, writeErr := tempFile.Write(payload)
	closeErr := tempFile.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tempName)
		return writeErr
	}

	if err := os.Rename(tempName, p.path); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

// Restore offers the on-disk snapshot to the store. The store is replaced
// wholesale only when the snapshot parses and its bootstrap entry is
// younger than the ceiling; every other outcome leaves the store empty.
// Never fatal: a missing or corrupt file is logged and startup continues.
func (p *Persister) Restore() bool {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"action": "snapshot_restore",
				"path":   p.path,
			}).Warn("snapshot unreadable, starting empty")
		}
		return false
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"action": "snapshot_restore",
			"path":   p.path,
		}).Warn("snapshot corrupt, starting empty")
		return false
	}

	bootstrap := snap.Entries[SourceBootstrap]
	if bootstrap.FetchedAt == nil {
		p.logger.WithFields(logrus.Fields{
			"action": "snapshot_restore",
			"path":   p.path,
		}).Info("snapshot has no bootstrap data, starting empty")
		return false
	}

	age := p.now().Sub(*bootstrap.FetchedAt)
	if age >= p.maxAge {
		p.logger.WithFields(logrus.Fields{
			"action": "snapshot_restore",
			"path":   p.path,
			"age":    age.Truncate(time.Second).String(),
		}).Info("snapshot too old, starting empty")
		return false
	}

	p.store.Restore(snap)
	p.logger.WithFields(logrus.Fields{
		"action": "snapshot_restore",
		"path":   p.path,
		"age":    age.Truncate(time.Second).String(),
	}).Info("cache restored from snapshot")
	return true
}
