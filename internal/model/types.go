package model

// Domain identifies one of the two independently fetched status facets.
type Domain int

const (
	DomainIdentity Domain = iota
	DomainGameState
)

// Domains lists every domain in a stable order.
var Domains = []Domain{DomainIdentity, DomainGameState}

func (d Domain) String() string {
	switch d {
	case DomainIdentity:
		return "identity"
	case DomainGameState:
		return "gamestate"
	default:
		return "unknown"
	}
}

// MapInfo describes the map currently loaded on the server.
type MapInfo struct {
	PrettyName string `json:"pretty_name"`
}

// ServerIdentity is the identity/roster facet returned by get_status.
type ServerIdentity struct {
	Name           string   `json:"name"`
	Map            *MapInfo `json:"map"` // nil when the server reports no map
	CurrentPlayers int      `json:"current_players"`
	MaxPlayers     int      `json:"max_players"`
	ShortName      string   `json:"short_name"`
}

// GameState is the live match facet returned by get_gamestate.
type GameState struct {
	AlliedPlayers    int    `json:"num_allied_players"`
	AxisPlayers      int    `json:"num_axis_players"`
	AlliedScore      int    `json:"allied_score"`
	AxisScore        int    `json:"axis_score"`
	RawTimeRemaining string `json:"raw_time_remaining"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing the map pointer.
func (s ServerIdentity) Clone() ServerIdentity {
	out := s
	if s.Map != nil {
		m := *s.Map
		out.Map = &m
	}
	return out
}

// Normalize clamps counts that must never be negative.
func (s ServerIdentity) Normalize() ServerIdentity {
	out := s.Clone()
	out.CurrentPlayers = max(0, out.CurrentPlayers)
	out.MaxPlayers = max(0, out.MaxPlayers)
	return out
}

// Normalize clamps counts that must never be negative.
func (g GameState) Normalize() GameState {
	g.AlliedPlayers = max(0, g.AlliedPlayers)
	g.AxisPlayers = max(0, g.AxisPlayers)
	g.AlliedScore = max(0, g.AlliedScore)
	g.AxisScore = max(0, g.AxisScore)
	return g
}
