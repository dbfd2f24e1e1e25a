package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/flowd/internal/analytics"
	"github.com/sandeepkv93/flowd/internal/model"
)

const dayLayout = "2006-01-02"

func RenderAgendaPanel(a analytics.Agenda, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("agenda:\n")
	renderTaskSection(&b, "Overdue", a.Overdue, loc)
	renderTaskSection(&b, "Today", a.Today, loc)
	renderTaskSection(&b, "Upcoming", a.Upcoming, loc)

	b.WriteString("\nReminders:\n")
	if len(a.Reminders) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, r := range a.Reminders {
		b.WriteString(fmt.Sprintf("  %s %s @%s\n", priorityBadge(r.Priority), r.Title, r.DueDate.In(loc).Format("Jan 02 15:04")))
	}

	if len(a.NextOccurrences) > 0 {
		b.WriteString("\nRepeats:\n")
		for _, occ := range a.NextOccurrences {
			b.WriteString(fmt.Sprintf("  %s next %s\n", occ.Title, occ.At.In(loc).Format(dayLayout)))
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderStatsPanel(s analytics.Snapshot, goals []model.Goal) string {
	var b strings.Builder
	b.WriteString("stats:\n")
	b.WriteString(fmt.Sprintf("productivity: %d%%\n", s.ProductivityScore))

	b.WriteString("\nBy project:\n")
	if len(s.CompletedTasksByProject) == 0 {
		b.WriteString("  (no completions)\n")
	}
	for _, p := range s.CompletedTasksByProject {
		b.WriteString(fmt.Sprintf("  %-20s %d\n", p.Label, p.Count))
	}

	b.WriteString("\nGoals:\n")
	if len(s.GoalProgress) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, g := range s.GoalProgress {
		b.WriteString(fmt.Sprintf("  %-20s %s %3.0f%%\n", g.Label, progressBar(g.Progress, 10), g.Progress))
	}

	if len(s.Streaks) > 0 {
		b.WriteString("\nStreaks:\n")
		for _, st := range s.Streaks {
			b.WriteString(fmt.Sprintf("  %-20s %dd\n", st.Label, st.Count))
		}
	}
	if active := countActive(goals); active > 0 {
		b.WriteString(fmt.Sprintf("\nactive goals: %d\n", active))
	}
	return strings.TrimSpace(b.String())
}

var activityStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
}

// RenderActivityPanel draws the month as rows of weeks, one cell per day.
func RenderActivityPanel(days []analytics.ActivityDay) string {
	if len(days) == 0 {
		return "activity:\n(none)"
	}
	first, err := time.Parse(dayLayout, days[0].Day)
	if err != nil {
		return "activity:\n(invalid)"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("activity %s:\n", first.Format("January 2006")))
	b.WriteString("Su Mo Tu We Th Fr Sa\n")
	b.WriteString(strings.Repeat("   ", int(first.Weekday())))
	for i, d := range days {
		level := d.Level
		if level < 0 || level >= len(activityStyles) {
			level = 0
		}
		b.WriteString(activityStyles[level].Render("■■"))
		if first.AddDate(0, 0, i).Weekday() == time.Saturday {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return strings.TrimRight(b.String(), " \n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func renderTaskSection(b *strings.Builder, title string, tasks []model.Task, loc *time.Location) {
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	if len(tasks) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, t := range tasks {
		b.WriteString(fmt.Sprintf("  %s %s", priorityBadge(t.Priority), t.Title))
		if t.DueDate != nil {
			b.WriteString(fmt.Sprintf(" due:%s", t.DueDate.In(loc).Format(dayLayout)))
		}
		if done, total := subtaskCounts(t); total > 0 {
			b.WriteString(fmt.Sprintf(" [%d/%d]", done, total))
		}
		b.WriteString("\n")
	}
}

func priorityBadge(p model.Priority) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color()))
	return style.Render("[" + string(p) + "]")
}

func progressBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func subtaskCounts(t model.Task) (done, total int) {
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

func countActive(goals []model.Goal) int {
	n := 0
	for _, g := range goals {
		if !g.Completed() {
			n++
		}
	}
	return n
}
