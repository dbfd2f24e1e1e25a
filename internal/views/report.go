package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/flowd/internal/analytics"
	"github.com/sandeepkv93/flowd/internal/model"
)

type ReportData struct {
	Now       time.Time
	Location  *time.Location
	Analytics analytics.Snapshot
	Agenda    analytics.Agenda
	Goals     []model.Goal
	Activity  []analytics.ActivityDay
}

// Report builds a markdown summary of the snapshot.
func Report(data ReportData) string {
	loc := data.Location
	if loc == nil {
		loc = time.Local
	}
	s := data.Analytics

	var b strings.Builder
	fmt.Fprintf(&b, "# flowd report, %s\n\n", data.Now.In(loc).Format("Monday, Jan 2 2006"))
	fmt.Fprintf(&b, "**Productivity score:** %d%%\n\n", s.ProductivityScore)

	b.WriteString("## Completed by day\n\n")
	if len(s.CompletedTasksByDay) == 0 {
		b.WriteString("_No completions in the last 30 days._\n\n")
	} else {
		b.WriteString("| Day | Completed |\n|---|---:|\n")
		for _, d := range s.CompletedTasksByDay {
			fmt.Fprintf(&b, "| %s | %d |\n", d.Day, d.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Completed by project\n\n")
	if len(s.CompletedTasksByProject) == 0 {
		b.WriteString("_Nothing completed yet._\n\n")
	} else {
		b.WriteString("| Project | Completed |\n|---|---:|\n")
		for _, p := range s.CompletedTasksByProject {
			fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(p.Label), p.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Goals\n\n")
	if len(s.GoalProgress) == 0 {
		b.WriteString("_No goals._\n\n")
	} else {
		for _, g := range s.GoalProgress {
			fmt.Fprintf(&b, "- %s: %.0f%%\n", g.Label, g.Progress)
		}
		b.WriteString("\n")
	}

	if len(s.Streaks) > 0 {
		b.WriteString("## Streaks\n\n")
		for _, st := range s.Streaks {
			fmt.Fprintf(&b, "- %s: %d day(s)\n", st.Label, st.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Agenda\n\n")
	writeTaskList(&b, "Overdue", data.Agenda.Overdue, loc)
	writeTaskList(&b, "Today", data.Agenda.Today, loc)
	writeTaskList(&b, "Upcoming", data.Agenda.Upcoming, loc)
	if len(data.Agenda.Reminders) > 0 {
		b.WriteString("**Reminders**\n\n")
		for _, r := range data.Agenda.Reminders {
			fmt.Fprintf(&b, "- %s (%s)\n", r.Title, r.DueDate.In(loc).Format("Jan 2 15:04"))
		}
		b.WriteString("\n")
	}

	if active := countActive(data.Goals); active > 0 {
		fmt.Fprintf(&b, "_%d active goal(s)._\n", active)
	}
	if n := activeDays(data.Activity); n > 0 {
		fmt.Fprintf(&b, "_Active on %d day(s) this month._\n", n)
	}
	return b.String()
}

// RenderReport is Report rendered for the terminal.
func RenderReport(data ReportData) string {
	return RenderMarkdown(Report(data))
}

func writeTaskList(b *strings.Builder, title string, tasks []model.Task, loc *time.Location) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, t := range tasks {
		line := fmt.Sprintf("- [%s] %s", t.Priority, t.Title)
		if t.DueDate != nil {
			line += " (due " + t.DueDate.In(loc).Format(dayLayout) + ")"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func activeDays(days []analytics.ActivityDay) int {
	n := 0
	for _, d := range days {
		if d.Count > 0 {
			n++
		}
	}
	return n
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
