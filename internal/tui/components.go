package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/poller"
)

// renderBranding renders "HLL!" with a green to light blue gradient.
func (m *StatusModel) renderBranding() string {
	colors := []string{"#49E209", "#21D955", "#00D0A1", "#00CAC7"}
	chars := []string{"H", "L", "L", "!"}

	var result string
	for i, char := range chars {
		style := lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(lipgloss.Color(colors[i])).Bold(true)
		result += style.Render(char)
	}
	return result
}

func (m *StatusModel) interval() time.Duration {
	if m.session == nil {
		return model.DefaultPollInterval
	}
	return m.session.Interval()
}

// domainDot picks the connectivity color for one domain: gray before any
// outcome, red while failing, amber when the last success is stale.
func (m *StatusModel) domainDot(h poller.DomainHealth) lipgloss.Color {
	switch {
	case h.ConsecutiveErrors > 0:
		return ColorRed
	case h.LastSuccessAt.IsZero():
		return ColorGray
	case m.now().Sub(h.LastSuccessAt) > 3*m.interval():
		return ColorAmber
	default:
		return ColorGreen
	}
}

// renderDomainHealth renders one line of per-domain freshness and errors.
func (m *StatusModel) renderDomainHealth(d model.Domain) string {
	h, ok := m.health[d]
	if !ok {
		h = poller.DomainHealth{Domain: d, LastSuccessAt: m.view.UpdatedAt(d)}
	}

	dot := lipgloss.NewStyle().Foreground(m.domainDot(h)).Render("●")
	parts := []string{fmt.Sprintf("%s %-10s", dot, d.String())}

	if h.LastSuccessAt.IsZero() {
		parts = append(parts, faintStyle.Render("waiting for first update"))
	} else {
		parts = append(parts, "updated "+humanize.RelTime(h.LastSuccessAt, m.now(), "ago", "from now"))
	}
	if h.ConsecutiveErrors > 0 {
		errText := fmt.Sprintf("%d consecutive %s", h.ConsecutiveErrors, pluralize("error", h.ConsecutiveErrors))
		if h.LastError != "" {
			errText += ": " + truncate(h.LastError, 60)
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorRed).Render(errText))
	}
	if h.SkippedTicks > 0 {
		parts = append(parts, faintStyle.Render(fmt.Sprintf("%d skipped %s", h.SkippedTicks, pluralize("tick", h.SkippedTicks))))
	}
	return strings.Join(parts, "  ")
}

// renderStatusLine renders the status/help line at the bottom of the screen.
func (m *StatusModel) renderStatusLine() string {
	baseStyle := lipgloss.NewStyle().
		Background(ColorNavy).
		Foreground(ColorWhite)

	w := m.width
	narrow := w < 80

	leftText := "○ Stopped"
	if m.session != nil && m.session.Active() {
		leftText = "● Live"
	}

	statusText := m.activeNotice()
	if statusText == "" {
		if narrow {
			statusText = "r • ? • q"
		} else {
			statusText = "r: Refresh • ?: Help • q: Quit"
		}
	}

	var rightParts []string
	if m.dataSource != "" && !narrow {
		rightParts = append(rightParts, m.dataSource)
	}
	rightParts = append(rightParts, fmt.Sprintf("Update: %s", m.interval()))
	if w >= 30 {
		rightParts = append(rightParts, m.renderBranding())
	}
	rightText := strings.Join(rightParts, "  ")

	leftWidth := lipgloss.Width(leftText) + 2
	rightWidth := lipgloss.Width(rightText) + 2
	if leftWidth+rightWidth >= w {
		return baseStyle.Width(max(w, 0)).Render(leftText)
	}
	centerWidth := w - leftWidth - rightWidth
	if lipgloss.Width(statusText) > centerWidth {
		statusText = truncate(statusText, centerWidth)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		baseStyle.Align(lipgloss.Left).Width(leftWidth).Render(leftText),
		baseStyle.Align(lipgloss.Center).Width(centerWidth).Render(statusText),
		baseStyle.Align(lipgloss.Right).Width(rightWidth).Render(rightText),
	)
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
