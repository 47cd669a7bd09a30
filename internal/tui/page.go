package tui

import tea "github.com/charmbracelet/bubbletea"

// Page represents a top-level screen in the TUI. Init mounts the page and
// Unmount releases whatever Init acquired; Unmount may be called more
// than once.
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
	Unmount()
}

// PageNav is returned from Update to request a page switch.
type PageNav struct {
	PageID string
	Params interface{}
}
