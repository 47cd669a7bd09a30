package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/poller"
)

// Update handles messages.
func (m *StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case sessionStartedMsg:
		if msg.err != nil && !errors.Is(msg.err, poller.ErrAlreadyActive) {
			m.startErr = msg.err
			m.setNotice(fmt.Sprintf("session failed to start: %v", msg.err))
		}
		return m, nil

	case viewUpdatedMsg:
		var cmds []tea.Cmd
		if msg.seq > m.seq {
			m.seq = msg.seq
			m.view = msg.view
			if msg.title != m.title {
				m.title = msg.title
				cmds = append(cmds, tea.SetWindowTitle(msg.title))
			}
		}
		if m.mounted {
			cmds = append(cmds, waitForView(m.mailbox, m.unmounted()))
		}
		return m, tea.Batch(cmds...)

	case TickMsg:
		if m.session != nil {
			m.health = m.session.Health()
		}
		if !m.mounted {
			return m, nil
		}
		return m, tickCmd()
	}

	return m, nil
}

func (m *StatusModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		m.Unmount()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Escape):
		m.showHelp = false
		m.help.ShowAll = false

	case key.Matches(msg, m.keys.Refresh):
		m.requestRefresh()
	}
	return m, nil
}

// requestRefresh runs an extra fetch cycle unless the limiter denies it.
func (m *StatusModel) requestRefresh() {
	if m.session == nil {
		return
	}
	if !m.limiter.AllowN(m.now(), 1) {
		m.setNotice("refresh rate limited")
		return
	}
	n, err := m.session.Refresh()
	if err != nil {
		m.setNotice(fmt.Sprintf("refresh failed: %v", err))
		return
	}
	switch total := len(model.Domains); {
	case n == 0:
		m.setNotice("refresh skipped: fetches still in flight")
		return
	case n < total:
		m.setNotice(fmt.Sprintf("refreshing %d of %d domains...", n, total))
	default:
		m.setNotice("refreshing...")
	}
	m.refreshes++
}
