// Package status holds the merged, immutable status view and the pure
// merge that folds one domain's snapshot into it.
package status

import (
	"fmt"
	"time"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

// Display defaults used before a domain has ever been fetched.
const (
	UnknownMap        = "Unknown Map"
	DefaultTimeRemain = "0:00:00"
)

// View is a snapshot of the latest successful fetch for each domain.
// The zero value is the "nothing fetched yet" view.
type View struct {
	identity    model.ServerIdentity
	hasIdentity bool
	identityAt  time.Time

	gameState    model.GameState
	hasGameState bool
	gameStateAt  time.Time
}

// Identity returns the identity snapshot and whether one has been applied.
func (v View) Identity() (model.ServerIdentity, bool) {
	return v.identity.Clone(), v.hasIdentity
}

// GameState returns the game-state snapshot and whether one has been applied.
func (v View) GameState() (model.GameState, bool) {
	return v.gameState, v.hasGameState
}

// UpdatedAt returns when domain was last replaced, or the zero time.
func (v View) UpdatedAt(domain model.Domain) time.Time {
	switch domain {
	case model.DomainIdentity:
		return v.identityAt
	case model.DomainGameState:
		return v.gameStateAt
	}
	return time.Time{}
}

// Populated reports whether domain has received at least one snapshot.
func (v View) Populated(domain model.Domain) bool {
	switch domain {
	case model.DomainIdentity:
		return v.hasIdentity
	case model.DomainGameState:
		return v.hasGameState
	}
	return false
}

func (v View) Name() string      { return v.identity.Name }
func (v View) ShortName() string { return v.identity.ShortName }

func (v View) CurrentPlayers() int { return v.identity.CurrentPlayers }
func (v View) MaxPlayers() int     { return v.identity.MaxPlayers }

// MapName is the pretty map name or UnknownMap when absent.
func (v View) MapName() string {
	if v.identity.Map == nil || v.identity.Map.PrettyName == "" {
		return UnknownMap
	}
	return v.identity.Map.PrettyName
}

// Players renders "<current>/<max>".
func (v View) Players() string {
	return fmt.Sprintf("%d/%d", v.identity.CurrentPlayers, v.identity.MaxPlayers)
}

// Balance renders "<allied>vs<axis>".
func (v View) Balance() string {
	return fmt.Sprintf("%dvs%d", v.gameState.AlliedPlayers, v.gameState.AxisPlayers)
}

// Score renders "<alliedScore>:<axisScore>".
func (v View) Score() string {
	return fmt.Sprintf("%d:%d", v.gameState.AlliedScore, v.gameState.AxisScore)
}

// TimeRemaining is the preformatted duration, "0:00:00" until known.
func (v View) TimeRemaining() string {
	if v.gameState.RawTimeRemaining == "" {
		return DefaultTimeRemain
	}
	return v.gameState.RawTimeRemaining
}

// Line renders the single-line presentation of the view:
// "42/64 (20vs22) - Foy - 0:14:32 - 3:1".
func (v View) Line() string {
	return fmt.Sprintf("%s (%s) - %s - %s - %s",
		v.Players(), v.Balance(), v.MapName(), v.TimeRemaining(), v.Score())
}

// Title renders the host title string: "(42) SRV".
func (v View) Title() string {
	return fmt.Sprintf("(%d) %s", v.identity.CurrentPlayers, v.identity.ShortName)
}

// Snapshot is the flattened, serializable form of a View.
type Snapshot struct {
	Name               string    `json:"name"`
	ShortName          string    `json:"short_name"`
	Map                string    `json:"map"`
	CurrentPlayers     int       `json:"current_players"`
	MaxPlayers         int       `json:"max_players"`
	Balance            string    `json:"balance"`
	Score              string    `json:"score"`
	TimeRemaining      string    `json:"time_remaining"`
	Line               string    `json:"line"`
	Title              string    `json:"title"`
	IdentityUpdatedAt  time.Time `json:"identity_updated_at"`
	GameStateUpdatedAt time.Time `json:"gamestate_updated_at"`
}

// Snapshot flattens v for JSON surfaces.
func (v View) Snapshot() Snapshot {
	return Snapshot{
		Name:               v.Name(),
		ShortName:          v.ShortName(),
		Map:                v.MapName(),
		CurrentPlayers:     v.CurrentPlayers(),
		MaxPlayers:         v.MaxPlayers(),
		Balance:            v.Balance(),
		Score:              v.Score(),
		TimeRemaining:      v.TimeRemaining(),
		Line:               v.Line(),
		Title:              v.Title(),
		IdentityUpdatedAt:  v.identityAt,
		GameStateUpdatedAt: v.gameStateAt,
	}
}
