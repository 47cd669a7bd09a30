package fakercon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/rconapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, rconapi.Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env rconapi.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestGameStateEnvelope(t *testing.T) {
	s := New("")
	w, env := get(t, s.Handler(), "/api/get_gamestate")
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, env.Failed)
	require.Equal(t, rconapi.CommandGameState, env.Command)

	var gs model.GameState
	require.NoError(t, json.Unmarshal(env.Result, &gs))
	require.Equal(t, "0:14:32", gs.RawTimeRemaining)
	require.Equal(t, 3, gs.AlliedScore)
	require.Equal(t, 1, s.Hits(rconapi.CommandGameState))
}

func TestInjectedEnvelopeFailure(t *testing.T) {
	s := New("")
	s.SetFailure(rconapi.CommandStatus, Failure{Message: "boom"})
	w, env := get(t, s.Handler(), "/api/get_status")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Failed)
	require.Equal(t, "boom", env.Error)
}

func TestAuthorizeRejectsMissingKey(t *testing.T) {
	s := New("", WithAPIKey("k"))
	w, env := get(t, s.Handler(), "/api/get_status")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.True(t, env.Failed)
}

func TestAdvanceRunsClockDown(t *testing.T) {
	s := New("")
	s.SetGameState(model.GameState{AlliedScore: 2, AxisScore: 3, RawTimeRemaining: "0:00:10"})
	s.Advance(4 * time.Second)
	require.Equal(t, 6*time.Second, s.remaining)

	s.Advance(10 * time.Second)
	require.Equal(t, 90*time.Minute, s.remaining)
	require.Equal(t, 2, s.gameState.AlliedScore)
	require.Equal(t, 2, s.gameState.AxisScore)
}

func TestRemainingFormat(t *testing.T) {
	require.Equal(t, "1:30:00", formatRemaining(90*time.Minute))
	require.Equal(t, "0:00:00", formatRemaining(-time.Second))
	require.Equal(t, 14*time.Minute+32*time.Second, parseRemaining("0:14:32"))
	require.Zero(t, parseRemaining("soon"))
}
