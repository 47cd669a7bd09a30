package rconapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/hllstatus/internal/fakercon"
	"github.com/tinytelemetry/hllstatus/internal/fetch"
	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/rconapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newFake(t *testing.T, opts ...fakercon.Option) (*fakercon.Server, *httptest.Server) {
	t.Helper()
	fake := fakercon.New("", opts...)
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	return fake, ts
}

func TestClientGetIdentity(t *testing.T) {
	fake, ts := newFake(t)
	fake.SetIdentity(model.ServerIdentity{
		Name:           "Server One",
		Map:            &model.MapInfo{PrettyName: "Foy"},
		CurrentPlayers: 42,
		MaxPlayers:     64,
		ShortName:      "SRV",
	})

	c, err := rconapi.New(ts.URL+"/", rconapi.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	require.Equal(t, ts.URL, c.BaseURL())

	id, err := c.GetIdentity(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Server One", id.Name)
	require.NotNil(t, id.Map)
	require.Equal(t, "Foy", id.Map.PrettyName)
	require.Equal(t, 42, id.CurrentPlayers)
	require.Equal(t, 64, id.MaxPlayers)
	require.Equal(t, "SRV", id.ShortName)
	require.Equal(t, 1, fake.Hits(rconapi.CommandStatus))
}

func TestClientGetGameState(t *testing.T) {
	fake, ts := newFake(t)
	fake.SetGameState(model.GameState{
		AlliedPlayers:    20,
		AxisPlayers:      22,
		AlliedScore:      3,
		AxisScore:        1,
		RawTimeRemaining: "0:14:32",
	})

	c, err := rconapi.New(ts.URL + "/")
	require.NoError(t, err)

	gs, err := c.GetGameState(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.GameState{
		AlliedPlayers:    20,
		AxisPlayers:      22,
		AlliedScore:      3,
		AxisScore:        1,
		RawTimeRemaining: "0:14:32",
	}, gs)
}

func TestClientNullMapDecodesAsAbsent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/get_status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"name":"S","map":null,"current_players":1,"max_players":2,"short_name":"s"},"command":"get_status","failed":false,"error":null,"version":"v9"}`))
	}))
	defer ts.Close()

	c, err := rconapi.New(ts.URL)
	require.NoError(t, err)
	id, err := c.GetIdentity(context.Background())
	require.NoError(t, err)
	require.Nil(t, id.Map)
}

func TestClientEnvelopeFailure(t *testing.T) {
	fake, ts := newFake(t)
	fake.SetFailure(rconapi.CommandGameState, fakercon.Failure{Message: "game server unreachable"})

	c, err := rconapi.New(ts.URL)
	require.NoError(t, err)

	_, err = c.GetGameState(context.Background())
	require.Error(t, err)
	require.True(t, rconapi.IsEnvelopeError(err))
	require.Contains(t, err.Error(), "game server unreachable")

	// The fetch layer classifies it as an envelope failure.
	_, ferr := fetch.New(c).Fetch(context.Background(), model.DomainGameState)
	require.ErrorIs(t, ferr, fetch.ErrEnvelope)

	fake.ClearFailure(rconapi.CommandGameState)
	_, err = c.GetGameState(context.Background())
	require.NoError(t, err)
}

func TestClientEmptyResultIsEnvelopeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null,"command":"get_gamestate","failed":false,"error":null}`))
	}))
	defer ts.Close()

	c, err := rconapi.New(ts.URL)
	require.NoError(t, err)
	_, err = c.GetGameState(context.Background())
	require.True(t, rconapi.IsEnvelopeError(err))
}

func TestClientHTTPStatusError(t *testing.T) {
	fake, ts := newFake(t)
	fake.SetFailure(rconapi.CommandStatus, fakercon.Failure{HTTPStatus: http.StatusBadGateway, Message: "upstream down"})

	c, err := rconapi.New(ts.URL)
	require.NoError(t, err)

	_, err = c.GetIdentity(context.Background())
	var se *rconapi.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.StatusCode)
	require.Equal(t, "upstream down", se.Message)

	_, ferr := fetch.New(c).Fetch(context.Background(), model.DomainIdentity)
	require.ErrorIs(t, ferr, fetch.ErrTransport)
}

func TestClientMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer ts.Close()

	c, err := rconapi.New(ts.URL)
	require.NoError(t, err)
	_, err = c.GetIdentity(context.Background())
	require.Error(t, err)
	require.False(t, rconapi.IsEnvelopeError(err))
}

func TestClientAPIKey(t *testing.T) {
	_, ts := newFake(t, fakercon.WithAPIKey("s3cret"))

	anon, err := rconapi.New(ts.URL)
	require.NoError(t, err)
	_, err = anon.GetIdentity(context.Background())
	var se *rconapi.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusUnauthorized, se.StatusCode)

	authed, err := rconapi.New(ts.URL, rconapi.WithAPIKey("s3cret"))
	require.NoError(t, err)
	_, err = authed.GetIdentity(context.Background())
	require.NoError(t, err)
}

func TestClientHonorsContextDeadline(t *testing.T) {
	fake, ts := newFake(t)
	fake.SetDelay(time.Second)

	c, err := rconapi.New(ts.URL)
	require.NoError(t, err)

	_, ferr := fetch.New(c, fetch.WithTimeout(50*time.Millisecond)).Fetch(context.Background(), model.DomainIdentity)
	require.ErrorIs(t, ferr, fetch.ErrTimeout)
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://host", "http://", "::nope"} {
		_, err := rconapi.New(raw)
		require.Error(t, err, raw)
	}
}
