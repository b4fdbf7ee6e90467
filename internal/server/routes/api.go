// Package routes registers the gateway's HTTP surface on a fiber app.
package routes

import (
	"errors"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/fplboard/fplboard/internal/cache"
	"github.com/fplboard/fplboard/internal/gateway"
	"github.com/fplboard/fplboard/internal/logging"
	"github.com/fplboard/fplboard/internal/server"
	"github.com/fplboard/fplboard/internal/source"
)

// Options collects the dependencies the API handlers need.
type Options struct {
	Orchestrator *gateway.Orchestrator
	Store        *cache.Store
	Logger       *logrus.Logger
	StartedAt    time.Time
	Now          func() time.Time
}

// RegisterAPIRoutes mounts the dashboard API and the liveness endpoint.
func RegisterAPIRoutes(app *fiber.App, opts Options) {
	if app == nil || opts.Orchestrator == nil || opts.Store == nil {
		return
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	app.Get("/api/fpl-data", func(c fiber.Ctx) error {
		force := strings.EqualFold(fiber.Query[string](c, "refresh"), "true")
		started := time.Now()

		resp, err := opts.Orchestrator.CombinedRead(c.Context(), force)
		if err != nil {
			return renderSourceFailure(c, opts.Logger, err)
		}

		opts.Logger.WithFields(logging.RequestFields(server.RequestID(c), resp.Meta.Cached, nil)).
			WithField("elapsed_ms", time.Since(started).Milliseconds()).
			Info("combined read served")
		return c.JSON(resp)
	})

	app.Get("/api/team/:teamId", func(c fiber.Ctx) error {
		teamID, err := strconv.Atoi(c.Params("teamId"))
		if err != nil || teamID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_team_id",
				"message": "team id must be a positive integer",
			})
		}

		resp, err := opts.Orchestrator.TeamRead(c.Context(), teamID)
		if err != nil {
			return renderSourceFailure(c, opts.Logger, err)
		}
		return c.JSON(resp)
	})

	app.Get("/api/stats", func(c fiber.Ctx) error {
		at := now().UTC()
		stats := opts.Store.Stats()

		sources := fiber.Map{}
		for _, src := range cache.Sources() {
			entry := opts.Store.Entry(src)
			info := fiber.Map{
				"cached": entry.HasData(),
				"age_ms": nil,
			}
			if entry.HasData() {
				info["age_ms"] = entry.Age(at).Milliseconds()
				info["fetched_at"] = entry.FetchedAt.Format(time.RFC3339)
			}
			if src == cache.SourceGithub && entry.Era != "" {
				info["era"] = string(entry.Era)
			}
			sources[string(src)] = info
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		return c.JSON(fiber.Map{
			"sources":        sources,
			"stats":          stats,
			"due_sources":    opts.Orchestrator.DueSources(),
			"current_era":    string(cache.EraAt(at)),
			"uptime_seconds": int64(at.Sub(opts.StartedAt).Seconds()),
			"memory_mb":      mem.Alloc / 1024 / 1024,
			"timestamp":      at.Format(time.RFC3339),
		})
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": now().UTC().Format(time.RFC3339),
		})
	})
}

// renderSourceFailure maps gateway errors to the 500 contract: {error,
// message} naming the unavailable data.
func renderSourceFailure(c fiber.Ctx, logger *logrus.Logger, err error) error {
	code := "internal_error"

	var srcErr *source.SourceError
	var userErr *source.UserDataError
	switch {
	case errors.As(err, &srcErr):
		code = "source_unavailable"
	case errors.As(err, &userErr):
		code = "user_data_unavailable"
	}

	if logger != nil {
		logger.WithError(err).WithField("request_id", server.RequestID(c)).Error("request failed")
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   code,
		"message": err.Error(),
	})
}
