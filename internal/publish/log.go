package publish

import (
	"log/slog"
	"sync"

	"github.com/tinytelemetry/hllstatus/internal/status"
)

// LogSink writes each view as a structured log record. It only logs when
// the rendered line changes, so redundant publishes stay quiet.
type LogSink struct {
	logger *slog.Logger

	mu        sync.Mutex
	last      string
	lastTitle string
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Render(view status.View) {
	line := view.Line()
	s.mu.Lock()
	changed := line != s.last
	s.last = line
	s.mu.Unlock()
	if !changed {
		return
	}
	s.logger.Info("status updated",
		"server", view.Name(),
		"line", line,
		"players", view.Players(),
		"map", view.MapName(),
	)
}

// SetTitle logs title changes; the daemon has no window to retitle.
func (s *LogSink) SetTitle(title string) {
	s.mu.Lock()
	changed := title != s.lastTitle
	s.lastTitle = title
	s.mu.Unlock()
	if changed {
		s.logger.Debug("title updated", "title", title)
	}
}
