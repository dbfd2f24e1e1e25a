package views

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/flowd/internal/analytics"
	"github.com/sandeepkv93/flowd/internal/model"
)

const ChartDays = 14

var (
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(model.ColorBlue))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// CompletionBars turns the sparse per-day counts into one bar per calendar
// day for the days ending at now, filling gaps with zero.
func CompletionBars(counts []analytics.DayCount, now time.Time, days int, loc *time.Location) []barchart.BarData {
	if days <= 0 {
		days = ChartDays
	}
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Count
	}

	today := model.CivilDay(now, loc)
	bars := make([]barchart.BarData, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		n := byDay[d.Format(dayLayout)]
		style := barStyle
		if n == 0 {
			style = emptyStyle
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Format("02"),
			Values: []barchart.BarValue{{Name: d.Format(dayLayout), Value: float64(n), Style: style}},
		})
	}
	return bars
}

// RenderCompletionChart draws completed tasks per day as a bar chart.
func RenderCompletionChart(counts []analytics.DayCount, now time.Time, loc *time.Location, width, height int) string {
	if width <= 0 {
		width = 2*DefaultPanelWidth + 2
	}
	if height <= 0 {
		height = 8
	}
	bars := CompletionBars(counts, now, ChartDays, loc)

	chart := barchart.New(width, height)
	chart.PushAll(bars)
	chart.Draw()

	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return fmt.Sprintf("completed, last %d days (%d in window):\n%s", ChartDays, total, chart.View())
}
