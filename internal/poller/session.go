// Package poller drives the fixed-cadence refresh of both status domains
// and publishes merged views while a session is active.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinytelemetry/hllstatus/internal/fetch"
	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/status"
)

var (
	ErrAlreadyActive = errors.New("poller: session already active")
	ErrInactive      = errors.New("poller: session not active")
)

// Fetcher performs one domain fetch. *fetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, domain model.Domain) (fetch.Payload, error)
}

// Publisher receives every merged view. *publish.Publisher satisfies it.
type Publisher interface {
	Publish(view status.View)
}

// Session owns the recurring timer, the current view and the liveness of
// one activation. Start and Stop may be called from any goroutine.
type Session struct {
	id        string
	fetcher   Fetcher
	publisher Publisher
	reporter  Reporter
	observers []Observer
	clock     Clock
	interval  time.Duration
	overlap   OverlapPolicy
	logger    *slog.Logger

	mu     sync.Mutex
	view   status.View
	health map[model.Domain]*DomainHealth
	run    *run
}

// run is the state of a single activation. Everything except ctx and
// cancel is guarded by Session.mu.
type run struct {
	alive    bool
	ctx      context.Context
	cancel   context.CancelFunc
	ticker   Ticker
	done     chan struct{}
	inFlight map[model.Domain]int
	issued   map[model.Domain]uint64
	applied  map[model.Domain]uint64
}

// Option configures a Session.
type Option func(*Session)

// WithInterval sets the poll period. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOverlapPolicy selects how overlapping ticks are handled.
func WithOverlapPolicy(p OverlapPolicy) Option {
	return func(s *Session) { s.overlap = p }
}

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithReporter routes fetch failures to r.
func WithReporter(r Reporter) Option {
	return func(s *Session) { s.reporter = r }
}

// WithObserver adds an observer of fetch outcomes.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates an inactive session.
func New(f Fetcher, pub Publisher, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		fetcher:   f,
		publisher: pub,
		clock:     realClock{},
		interval:  model.DefaultPollInterval,
		overlap:   OverlapSkip,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = SlogReporter{Logger: s.logger}
	}
	s.logger = s.logger.With("session_id", s.id)
	s.health = newHealth()
	return s
}

func newHealth() map[model.Domain]*DomainHealth {
	h := make(map[model.Domain]*DomainHealth, len(model.Domains))
	for _, d := range model.Domains {
		h[d] = &DomainHealth{Domain: d}
	}
	return h
}

// ID returns the session identifier used in log records.
func (s *Session) ID() string { return s.id }

// Interval returns the poll period.
func (s *Session) Interval() time.Duration { return s.interval }

// Start activates the session: it fetches both domains immediately and
// then once per domain on every tick. Cancelling ctx stops the session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		return ErrAlreadyActive
	}

	rctx, cancel := context.WithCancel(ctx)
	r := &run{
		alive:    true,
		ctx:      rctx,
		cancel:   cancel,
		ticker:   s.clock.NewTicker(s.interval),
		done:     make(chan struct{}),
		inFlight: make(map[model.Domain]int, len(model.Domains)),
		issued:   make(map[model.Domain]uint64, len(model.Domains)),
		applied:  make(map[model.Domain]uint64, len(model.Domains)),
	}
	s.run = r
	s.view = status.View{}
	s.health = newHealth()

	s.logger.Info("poll session started", "interval", s.interval, "overlap", s.overlap.String())

	s.dispatchLocked(r)
	go s.loop(r)
	return nil
}

// Stop deactivates the session. The ticker is stopped and in-flight
// fetches are cancelled before Stop returns; any of their results that
// still arrive are discarded. Stop is safe to call repeatedly.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(s.run)
}

func (s *Session) stopLocked(r *run) {
	if r == nil || s.run != r || !r.alive {
		return
	}
	r.alive = false
	r.ticker.Stop()
	close(r.done)
	r.cancel()
	s.run = nil
	s.logger.Info("poll session stopped")
}

// Active reports whether the session is currently polling.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// Refresh triggers one extra fetch cycle outside the regular cadence,
// subject to the overlap policy. It returns how many domains were
// dispatched; under OverlapSkip a busy domain is not.
func (s *Session) Refresh() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return 0, ErrInactive
	}
	return s.dispatchLocked(s.run), nil
}

// View returns the latest merged view.
func (s *Session) View() status.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Health returns a copy of per-domain fetch health.
func (s *Session) Health() map[model.Domain]DomainHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.Domain]DomainHealth, len(s.health))
	for d, h := range s.health {
		out[d] = *h
	}
	return out
}

func (s *Session) loop(r *run) {
	for {
		select {
		case <-r.ticker.C():
			s.tick(r)
		case <-r.ctx.Done():
			s.mu.Lock()
			s.stopLocked(r)
			s.mu.Unlock()
			return
		case <-r.done:
			return
		}
	}
}

func (s *Session) tick(r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !r.alive {
		return
	}
	s.dispatchLocked(r)
}

// dispatchLocked starts one fetch per domain and returns the number
// started. Each domain's outcome is applied as soon as it completes,
// independent of the other.
func (s *Session) dispatchLocked(r *run) int {
	n := 0
	for _, d := range model.Domains {
		h := s.health[d]
		if s.overlap == OverlapSkip && r.inFlight[d] > 0 {
			h.SkippedTicks++
			s.logger.Debug("tick skipped, fetch still in flight", "domain", d.String())
			continue
		}
		r.inFlight[d]++
		h.InFlight = r.inFlight[d]
		r.issued[d]++
		go s.fetchOne(r, d, r.issued[d])
		n++
	}
	return n
}

func (s *Session) fetchOne(r *run, d model.Domain, seq uint64) {
	p, err := s.fetcher.Fetch(r.ctx, d)
	s.complete(r, d, seq, p, err)
}

func (s *Session) complete(r *run, d model.Domain, seq uint64, p fetch.Payload, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.inFlight[d]--
	if !r.alive {
		return
	}

	h := s.health[d]
	h.InFlight = r.inFlight[d]
	h.Fetches++

	// A slower, older fetch must never overwrite a newer snapshot, nor
	// mark a domain failing once a newer fetch has succeeded.
	if seq < r.applied[d] {
		s.logger.Debug("discarding stale completion", "domain", d.String(), "seq", seq)
		if err != nil {
			s.reporter.Report(asFetchError(d, err), h.ConsecutiveErrors)
		}
		return
	}

	if err != nil {
		s.failLocked(d, h, asFetchError(d, err))
		return
	}
	u, ok := toUpdate(d, p)
	if !ok {
		s.failLocked(d, h, &fetch.Error{Domain: d, Kind: fetch.KindTransport, Cause: errors.New("empty payload")})
		return
	}
	r.applied[d] = seq

	h.ConsecutiveErrors = 0
	h.LastError = ""
	h.LastSuccessAt = s.clock.Now()

	s.view = status.Merge(s.view, u)
	s.notifyLocked(d, nil)
	if s.publisher != nil {
		s.publisher.Publish(s.view)
	}
}

func (s *Session) failLocked(d model.Domain, h *DomainHealth, fe *fetch.Error) {
	h.Failures++
	h.ConsecutiveErrors++
	h.LastError = fe.Error()
	h.LastErrorAt = s.clock.Now()
	s.reporter.Report(fe, h.ConsecutiveErrors)
	s.notifyLocked(d, fe)
}

func asFetchError(d model.Domain, err error) *fetch.Error {
	if fe, ok := fetch.AsError(err); ok {
		return fe
	}
	return &fetch.Error{Domain: d, Kind: fetch.KindTransport, Cause: err}
}

func (s *Session) notifyLocked(d model.Domain, err error) {
	for _, o := range s.observers {
		o.ObserveFetch(d, err)
	}
}

func toUpdate(d model.Domain, p fetch.Payload) (status.Update, bool) {
	at := p.FetchedAt
	switch d {
	case model.DomainIdentity:
		if p.Identity == nil {
			return status.Update{}, false
		}
		return status.IdentityUpdate(*p.Identity, at), true
	case model.DomainGameState:
		if p.GameState == nil {
			return status.Update{}, false
		}
		return status.GameStateUpdate(*p.GameState, at), true
	}
	return status.Update{}, false
}
