package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

var (
	t0 = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	serverA = model.ServerIdentity{
		Name:           "Server A",
		Map:            &model.MapInfo{PrettyName: "Foy"},
		CurrentPlayers: 42,
		MaxPlayers:     64,
		ShortName:      "SRV",
	}
	matchA = model.GameState{
		AlliedPlayers:    20,
		AxisPlayers:      22,
		AlliedScore:      3,
		AxisScore:        1,
		RawTimeRemaining: "0:14:32",
	}
)

func TestView_Defaults(t *testing.T) {
	t.Parallel()

	var v View
	require.Equal(t, "", v.Name())
	require.Equal(t, "0/0", v.Players())
	require.Equal(t, "0vs0", v.Balance())
	require.Equal(t, "0:0", v.Score())
	require.Equal(t, "0:00:00", v.TimeRemaining())
	require.Equal(t, "Unknown Map", v.MapName())
	require.Equal(t, "0/0 (0vs0) - Unknown Map - 0:00:00 - 0:0", v.Line())
	require.False(t, v.Populated(model.DomainIdentity))
	require.False(t, v.Populated(model.DomainGameState))
}

func TestMerge_EndToEndScenario(t *testing.T) {
	t.Parallel()

	v := Merge(View{}, IdentityUpdate(serverA, t0))
	v = Merge(v, GameStateUpdate(matchA, t0.Add(time.Second)))

	require.Equal(t, "42/64 (20vs22) - Foy - 0:14:32 - 3:1", v.Line())
	require.Equal(t, "(42) SRV", v.Title())
	require.Equal(t, "Server A", v.Name())
	require.Equal(t, t0, v.UpdatedAt(model.DomainIdentity))
	require.Equal(t, t0.Add(time.Second), v.UpdatedAt(model.DomainGameState))
}

func TestMerge_CommutesAcrossDomains(t *testing.T) {
	t.Parallel()

	id := IdentityUpdate(serverA, t0)
	gs := GameStateUpdate(matchA, t0.Add(2*time.Second))

	for _, base := range []View{{}, Merge(Merge(View{}, IdentityUpdate(model.ServerIdentity{Name: "old"}, t0)), GameStateUpdate(model.GameState{AxisScore: 4}, t0))} {
		a := Merge(Merge(base, id), gs)
		b := Merge(Merge(base, gs), id)
		require.Equal(t, a.Snapshot(), b.Snapshot())
		require.Equal(t, a.Line(), b.Line())
	}
}

func TestMerge_DoesNotMutatePrevious(t *testing.T) {
	t.Parallel()

	prev := Merge(View{}, IdentityUpdate(serverA, t0))
	before := prev.Snapshot()

	next := Merge(prev, IdentityUpdate(model.ServerIdentity{Name: "Server B", CurrentPlayers: 1}, t0.Add(time.Minute)))
	require.Equal(t, before, prev.Snapshot())
	require.Equal(t, "Server B", next.Name())
	require.Equal(t, "Unknown Map", next.MapName())
}

func TestMerge_ReplacesOnlyItsDomain(t *testing.T) {
	t.Parallel()

	v := Merge(Merge(View{}, IdentityUpdate(serverA, t0)), GameStateUpdate(matchA, t0))
	v = Merge(v, GameStateUpdate(model.GameState{AlliedPlayers: 1, AxisPlayers: 2, RawTimeRemaining: "1:00:00"}, t0.Add(time.Minute)))

	require.Equal(t, "42/64", v.Players())
	require.Equal(t, "Foy", v.MapName())
	require.Equal(t, "1vs2", v.Balance())
	require.Equal(t, "0:0", v.Score())
	require.Equal(t, t0, v.UpdatedAt(model.DomainIdentity))
}

func TestView_IdentityAccessorReturnsCopy(t *testing.T) {
	t.Parallel()

	v := Merge(View{}, IdentityUpdate(serverA, t0))
	id, ok := v.Identity()
	require.True(t, ok)
	id.Map.PrettyName = "mutated"
	require.Equal(t, "Foy", v.MapName())
}
