package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

// Payload is the successful result of one domain fetch. Exactly one of
// Identity or GameState is set, matching Domain.
type Payload struct {
	Domain    model.Domain
	Identity  *model.ServerIdentity
	GameState *model.GameState
	FetchedAt time.Time
}

// Fetcher wraps a StatusSource and turns every outcome into either a
// Payload or a *Error. It never retries.
type Fetcher struct {
	src     model.StatusSource
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds each fetch. Zero leaves the deadline to the caller's
// context and the transport.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithNow overrides the clock used to stamp payloads.
func WithNow(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New creates a Fetcher for src.
func New(src model.StatusSource, opts ...Option) *Fetcher {
	f := &Fetcher{src: src, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues the remote call for domain. Any failure, including a panic
// inside the source, is returned as a *Error.
func (f *Fetcher) Fetch(ctx context.Context, domain model.Domain) (p Payload, err error) {
	if f.src == nil {
		return Payload{}, &Error{Domain: domain, Kind: KindTransport, Cause: errors.New("no status source configured")}
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p = Payload{}
			err = &Error{Domain: domain, Kind: KindTransport, Cause: fmt.Errorf("source panic: %v", r)}
		}
	}()

	switch domain {
	case model.DomainIdentity:
		id, ferr := f.src.GetIdentity(ctx)
		if ferr != nil {
			return Payload{}, classify(ctx, domain, ferr)
		}
		id = id.Normalize()
		return Payload{Domain: domain, Identity: &id, FetchedAt: f.now()}, nil
	case model.DomainGameState:
		gs, ferr := f.src.GetGameState(ctx)
		if ferr != nil {
			return Payload{}, classify(ctx, domain, ferr)
		}
		gs = gs.Normalize()
		return Payload{Domain: domain, GameState: &gs, FetchedAt: f.now()}, nil
	default:
		return Payload{}, &Error{Domain: domain, Kind: KindTransport, Cause: fmt.Errorf("unknown domain %d", int(domain))}
	}
}

func classify(ctx context.Context, domain model.Domain, err error) *Error {
	if fe, ok := AsError(err); ok {
		return &Error{Domain: domain, Kind: fe.Kind, Cause: fe.Cause}
	}

	var env EnvelopeFailure
	if errors.As(err, &env) && env.EnvelopeFailed() {
		return &Error{Domain: domain, Kind: KindEnvelope, Cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Domain: domain, Kind: KindTimeout, Cause: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Domain: domain, Kind: KindTimeout, Cause: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Domain: domain, Kind: KindCanceled, Cause: err}
	}
	return &Error{Domain: domain, Kind: KindTransport, Cause: err}
}
