package publish

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/status"
)

func scenarioView() status.View {
	at := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	v := status.Merge(status.View{}, status.IdentityUpdate(model.ServerIdentity{
		Name:           "Server A",
		Map:            &model.MapInfo{PrettyName: "Foy"},
		CurrentPlayers: 42,
		MaxPlayers:     64,
		ShortName:      "SRV",
	}, at))
	return status.Merge(v, status.GameStateUpdate(model.GameState{
		AlliedPlayers:    20,
		AxisPlayers:      22,
		AlliedScore:      3,
		AxisScore:        1,
		RawTimeRemaining: "0:14:32",
	}, at))
}

func TestPublish_TitleAndSinks(t *testing.T) {
	t.Parallel()

	var titles []string
	var lines []string
	p := New(
		TitleFunc(func(s string) { titles = append(titles, s) }),
		SinkFunc(func(v status.View) { lines = append(lines, v.Line()) }),
		nil,
	)

	p.Publish(scenarioView())
	require.Equal(t, []string{"(42) SRV"}, titles)
	require.Equal(t, []string{"42/64 (20vs22) - Foy - 0:14:32 - 3:1"}, lines)

	// Redundant publishes repeat the same side effects.
	p.Publish(scenarioView())
	require.Equal(t, []string{"(42) SRV", "(42) SRV"}, titles)
	require.Len(t, lines, 2)
	require.Equal(t, lines[0], lines[1])
}

func TestPublish_NilTitleSurface(t *testing.T) {
	t.Parallel()

	called := 0
	p := New(nil, SinkFunc(func(status.View) { called++ }))
	p.Publish(status.View{})
	require.Equal(t, 1, called)

	var nilPub *Publisher
	nilPub.Publish(status.View{})
}

func TestMailbox_LatestWinsWithoutBlocking(t *testing.T) {
	t.Parallel()

	mb := NewMailbox()
	mb.Render(status.View{})
	mb.SetTitle("(42) SRV")
	mb.Render(scenarioView())

	select {
	case <-mb.C():
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-mb.C():
		t.Fatal("notifications should coalesce into one")
	default:
	}

	v, title, seq := mb.Latest()
	require.Equal(t, "(42) SRV", title)
	require.Equal(t, uint64(2), seq)
	require.Equal(t, "42/64 (20vs22) - Foy - 0:14:32 - 3:1", v.Line())
}

func TestLogSink_OnlyLogsChanges(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	sink.Render(scenarioView())
	sink.Render(scenarioView())
	sink.Render(status.View{})

	require.Equal(t, 2, strings.Count(buf.String(), "status updated"))
	require.Contains(t, buf.String(), "Foy")
}

func TestLogSink_TitleChangesOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	pub := New(sink, sink)

	pub.Publish(scenarioView())
	pub.Publish(scenarioView())

	require.Equal(t, 1, strings.Count(buf.String(), "title updated"))
	require.Contains(t, buf.String(), `title="(42) SRV"`)
}
