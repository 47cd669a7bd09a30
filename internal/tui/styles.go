package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy  = lipgloss.Color("#1B2A41")
	ColorWhite = lipgloss.Color("#F2F2F2")
	ColorGray  = lipgloss.Color("8")
	ColorBlue  = lipgloss.Color("39")
	ColorGreen = lipgloss.Color("#44FF44")
	ColorAmber = lipgloss.Color("#FFAA00")
	ColorRed   = lipgloss.Color("#FF4444")

	// Team colors for the balance chart.
	ColorAllied = lipgloss.Color("#5B8DEF")
	ColorAxis   = lipgloss.Color("#D9534F")
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(ColorGray).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	lineStyle  = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
	faintStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorNavy).
		Padding(0, 1)
)
