package tui

import tea "github.com/charmbracelet/bubbletea"

// StatusPageID identifies the live status page.
const StatusPageID = "status"

// StatusPage adapts StatusModel to the Page interface.
type StatusPage struct {
	model *StatusModel
}

// NewStatusPage wraps m as a Page.
func NewStatusPage(m *StatusModel) *StatusPage {
	return &StatusPage{model: m}
}

func (p *StatusPage) ID() string { return StatusPageID }

func (p *StatusPage) Init() tea.Cmd { return p.model.Init() }

func (p *StatusPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	_, cmd := p.model.Update(msg)
	return cmd, nil
}

func (p *StatusPage) View(width, height int) string {
	if p.model.width != width || p.model.height != height {
		p.model.width, p.model.height = width, height
		p.model.help.Width = width
	}
	return p.model.View()
}

func (p *StatusPage) Unmount() { p.model.Unmount() }
