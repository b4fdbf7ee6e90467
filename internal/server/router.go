// Package server builds the fiber application that exposes the gateway over
// HTTP. Route handlers live in the routes subpackage; this package owns the
// middleware chain (panic recovery, request IDs) and app construction.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fplboard/fplboard/internal/gateway"
)

const contextKeyRequestID = "_fplboard_request_id"

// AppOptions controls how the fiber application is assembled.
type AppOptions struct {
	Logger       *logrus.Logger
	Orchestrator *gateway.Orchestrator
}

// NewApp builds a fiber application with panic recovery and request-ID
// middleware. Routes are registered separately by the caller.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	return app, nil
}

// requestIDMiddleware tags every request with a UUID echoed back in the
// X-Request-ID header.
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
