package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/poller"
)

func TestView_Initializing(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(&fakeSession{})
	if got := m.View(); got != "Initializing..." {
		t.Fatalf("View() = %q, want Initializing...", got)
	}

	m.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	if got := m.View(); !strings.Contains(got, "too small") {
		t.Fatalf("View() = %q, want size warning", got)
	}
}

func TestView_EmptyShowsDefaults(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(&fakeSession{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	out := m.View()
	for _, want := range []string{
		"0/0 (0vs0) - Unknown Map - 0:00:00 - 0:0",
		"Waiting for server...",
		"waiting for first update",
		"no team data yet",
		"Stopped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_RendersStatusAndHealth(t *testing.T) {
	t.Parallel()

	s := &fakeSession{active: true}
	m, clock := newTestModel(s)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	updated := clock.Now().Add(-30 * time.Second)
	m.view = sampleView(updated)
	m.health = map[model.Domain]poller.DomainHealth{
		model.DomainIdentity: {Domain: model.DomainIdentity, LastSuccessAt: updated},
		model.DomainGameState: {
			Domain:            model.DomainGameState,
			LastSuccessAt:     updated,
			ConsecutiveErrors: 2,
			LastError:         "gamestate: timeout",
		},
	}

	out := m.View()
	for _, want := range []string{
		"42/64 (20vs22) - Foy - 0:14:32 - 3:1",
		"Server One",
		"[SRV]",
		"Foy",
		"30 seconds ago",
		"2 consecutive errors: gamestate: timeout",
		"Live",
		"Update: 15s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
