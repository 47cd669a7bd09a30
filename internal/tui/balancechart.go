package tui

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

// renderBalanceChart draws allied and axis player counts as two bars with
// a legend underneath.
func renderBalanceChart(gs model.GameState, width, height int) string {
	chartHeight := height - 1
	if chartHeight < 2 || width < 8 {
		return ""
	}

	barWidth := (width - 2) / 2
	if barWidth > 8 {
		barWidth = 8
	}
	chartWidth := barWidth*2 + 2

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(2),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)

	alliedStyle := lipgloss.NewStyle().Foreground(ColorAllied).Background(ColorAllied)
	axisStyle := lipgloss.NewStyle().Foreground(ColorAxis).Background(ColorAxis)

	bc.Push(barchart.BarData{
		Label:  "Allies",
		Values: []barchart.BarValue{{Name: "Allies", Value: float64(gs.AlliedPlayers), Style: alliedStyle}},
	})
	bc.Push(barchart.BarData{
		Label:  "Axis",
		Values: []barchart.BarValue{{Name: "Axis", Value: float64(gs.AxisPlayers), Style: axisStyle}},
	})
	bc.Draw()

	legend := fmt.Sprintf("%s %d  %s %d",
		lipgloss.NewStyle().Foreground(ColorAllied).Render("■ Allies"), gs.AlliedPlayers,
		lipgloss.NewStyle().Foreground(ColorAxis).Render("■ Axis"), gs.AxisPlayers,
	)

	return lipgloss.JoinVertical(lipgloss.Left, bc.View(), legend)
}
