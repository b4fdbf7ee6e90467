package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/fplboard/fplboard/internal/cache"
)

// BaseFields builds the action + config path fields shared by the CLI
// entrypoints.
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// SourceFields builds the per-source fields reused by fetcher and gateway
// logs.
func SourceFields(source cache.Source, state string) logrus.Fields {
	return logrus.Fields{
		"source": string(source),
		"state":  state,
	}
}

// RequestFields builds the fields attached to combined-read logs.
func RequestFields(requestID string, cached bool, fetched []string) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"cached":     cached,
		"fetched":    fetched,
	}
}
