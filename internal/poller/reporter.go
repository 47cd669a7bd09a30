package poller

import (
	"log/slog"

	"github.com/tinytelemetry/hllstatus/internal/fetch"
	"github.com/tinytelemetry/hllstatus/internal/model"
)

// Reporter receives every fetch failure of a live session.
type Reporter interface {
	Report(err *fetch.Error, consecutive int)
}

// Observer is notified after every completed fetch of a live session,
// with err == nil on success. Called with the session lock held; must not
// block or call back into the session.
type Observer interface {
	ObserveFetch(domain model.Domain, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(domain model.Domain, err error)

func (f ObserverFunc) ObserveFetch(domain model.Domain, err error) { f(domain, err) }

// SlogReporter logs fetch failures as structured records.
type SlogReporter struct {
	Logger *slog.Logger
}

func (r SlogReporter) Report(err *fetch.Error, consecutive int) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("status fetch failed",
		"domain", err.Domain.String(),
		"kind", err.Kind.String(),
		"consecutive", consecutive,
		"err", err.Cause,
	)
}
