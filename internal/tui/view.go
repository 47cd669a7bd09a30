package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

const (
	minWidth  = 50
	minHeight = 16
)

// View renders the status screen.
func (m *StatusModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}
	if m.width < minWidth || m.height < minHeight {
		return "Terminal too small. Resize to at least 50x16."
	}

	header := m.renderHeader()
	line := lineStyle.Render(m.view.Line())

	details := panelStyle.Render(m.renderDetails())
	chartWidth := m.width - lipgloss.Width(details) - 2
	detailsHeight := lipgloss.Height(details)
	var chart string
	if gs, ok := m.view.GameState(); ok {
		chart = renderBalanceChart(gs, min(chartWidth, 24), detailsHeight-2)
	} else {
		chart = faintStyle.Render("no team data yet")
	}
	middle := lipgloss.JoinHorizontal(lipgloss.Top, details, "  ", panelStyle.Render(chart))

	health := lipgloss.JoinVertical(lipgloss.Left,
		m.renderDomainHealth(model.DomainIdentity),
		m.renderDomainHealth(model.DomainGameState),
	)

	sections := []string{header, line, "", middle, "", health}
	if m.showHelp {
		sections = append(sections, "", m.help.View(m.keys))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	bodyHeight := m.height - 1
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Width(m.width).MaxWidth(m.width).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusLine())
}

func (m *StatusModel) renderHeader() string {
	name := m.view.Name()
	if name == "" {
		name = "Waiting for server..."
	}
	header := nameStyle.Render(name)
	if short := m.view.ShortName(); short != "" {
		header += " " + faintStyle.Render("["+short+"]")
	}
	return header
}

func (m *StatusModel) renderDetails() string {
	rows := []struct{ label, value string }{
		{"Map", m.view.MapName()},
		{"Players", m.view.Players()},
		{"Balance", m.view.Balance()},
		{"Score", m.view.Score()},
		{"Time remaining", m.view.TimeRemaining()},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r.label)+valueStyle.Render(r.value))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
