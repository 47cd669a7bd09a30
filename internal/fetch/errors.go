package fetch

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

// Kind classifies why a fetch failed.
type Kind int

const (
	KindTransport Kind = iota // network, decode or remote-side failure
	KindTimeout               // deadline exceeded before a response
	KindEnvelope              // response arrived but reported failure
	KindCanceled              // caller canceled (session stopped)
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindEnvelope:
		return "envelope"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrTransport = &Error{Kind: KindTransport}
	ErrTimeout   = &Error{Kind: KindTimeout}
	ErrEnvelope  = &Error{Kind: KindEnvelope}
	ErrCanceled  = &Error{Kind: KindCanceled}
)

// Error is the only failure type produced by a Fetcher. It is always
// scoped to a single domain.
type Error struct {
	Domain model.Domain
	Kind   Kind
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("fetch %s: %s", e.Domain, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Domain, e.Kind, e.Cause)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a fetch error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// EnvelopeFailure is implemented by transport errors that represent a
// well-formed response whose envelope reported failure.
type EnvelopeFailure interface {
	error
	EnvelopeFailed() bool
}

// AsError extracts a *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
