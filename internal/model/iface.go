package model

import "context"

// StatusSource provides the two remote status calls the poller consumes.
// Implementations return a fully parsed snapshot or an error; they never
// return a partially populated value alongside a nil error.
type StatusSource interface {
	GetIdentity(ctx context.Context) (ServerIdentity, error)
	GetGameState(ctx context.Context) (GameState, error)
}
