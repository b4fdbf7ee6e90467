package source

import (
	"errors"
	"fmt"

	"github.com/fplboard/fplboard/internal/cache"
)

// ErrSourceUnavailable marks the terminal failure case: the upstream call
// failed and there is no previously cached payload to fall back to.
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceError wraps an upstream failure with the source it belongs to.
type SourceError struct {
	Source cache.Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// UserDataError marks a failed per-manager lookup. Team data is never
// cached, so there is no fallback and the error always reaches the caller.
type UserDataError struct {
	What string
	Err  error
}

func (e *UserDataError) Error() string {
	return fmt.Sprintf("%s: %v", e.What, e.Err)
}

func (e *UserDataError) Unwrap() error {
	return e.Err
}
