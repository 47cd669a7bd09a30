package poller

import (
	"time"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

// DomainHealth tracks per-domain fetch outcomes for status surfaces.
type DomainHealth struct {
	Domain            model.Domain
	InFlight          int
	Fetches           int
	Failures          int
	SkippedTicks      int
	ConsecutiveErrors int
	LastSuccessAt     time.Time
	LastError         string
	LastErrorAt       time.Time
}

// OK reports whether the most recent completed fetch succeeded.
func (h DomainHealth) OK() bool {
	return h.ConsecutiveErrors == 0
}
