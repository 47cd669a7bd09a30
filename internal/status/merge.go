package status

import (
	"time"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

// Update is one domain's successfully fetched snapshot.
type Update struct {
	Domain    model.Domain
	Identity  model.ServerIdentity
	GameState model.GameState
	At        time.Time
}

// IdentityUpdate builds an Update for the identity domain.
func IdentityUpdate(id model.ServerIdentity, at time.Time) Update {
	return Update{Domain: model.DomainIdentity, Identity: id, At: at}
}

// GameStateUpdate builds an Update for the game-state domain.
func GameStateUpdate(gs model.GameState, at time.Time) Update {
	return Update{Domain: model.DomainGameState, GameState: gs, At: at}
}

// Merge returns a new View in which u's domain is replaced wholesale and
// every other field of prev passes through. prev is never modified.
// Merges of different domains commute.
func Merge(prev View, u Update) View {
	next := prev
	switch u.Domain {
	case model.DomainIdentity:
		next.identity = u.Identity.Clone()
		next.hasIdentity = true
		next.identityAt = u.At
	case model.DomainGameState:
		next.gameState = u.GameState
		next.hasGameState = true
		next.gameStateAt = u.At
	}
	return next
}
