package views

import (
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/flowd/internal/analytics"
	"github.com/sandeepkv93/flowd/internal/model"
)

var now = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func TestCompletionBarsFillGaps(t *testing.T) {
	counts := []analytics.DayCount{{Day: "2025-01-13", Count: 2}, {Day: "2025-01-15", Count: 1}, {Day: "2024-12-01", Count: 9}}
	bars := CompletionBars(counts, now, 3, time.UTC)
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	want := []float64{2, 0, 1}
	for i, b := range bars {
		if got := b.Values[0].Value; got != want[i] {
			t.Fatalf("bar %d = %v, want %v", i, got, want[i])
		}
	}
	if bars[2].Label != "15" {
		t.Fatalf("last bar should be today, got %q", bars[2].Label)
	}
}

func TestRenderCompletionChart(t *testing.T) {
	out := RenderCompletionChart([]analytics.DayCount{{Day: "2025-01-15", Count: 3}}, now, time.UTC, 40, 6)
	if !strings.Contains(out, "3 in window") {
		t.Fatalf("missing total in chart header: %q", out)
	}
}

func TestRenderAgendaPanel(t *testing.T) {
	due := now.Add(-24 * time.Hour)
	a := analytics.Agenda{
		Overdue: []model.Task{{Title: "Pay bill", Priority: model.PriorityP1, DueDate: &due,
			Subtasks: []model.Subtask{{ID: "s1", Title: "find invoice", Completed: true}, {ID: "s2", Title: "pay"}}}},
		Reminders: []model.Reminder{{Title: "Call mom", Priority: model.PriorityP3, DueDate: now.Add(time.Hour)}},
	}
	out := RenderAgendaPanel(a, time.UTC)
	for _, want := range []string{"Overdue:", "Pay bill", "due:2025-01-14", "[1/2]", "Call mom", "Today:\n  (none)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("agenda missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatsPanel(t *testing.T) {
	s := analytics.Snapshot{
		ProductivityScore:       67,
		CompletedTasksByProject: []analytics.ProjectCount{{ProjectID: "inbox", Label: "Inbox", Count: 2}},
		GoalProgress:            []analytics.GoalProgress{{GoalID: "g1", Label: "Read", Progress: 50}},
		Streaks:                 []analytics.Streak{{GoalID: "g2", Label: "Run", Count: 4}},
	}
	out := RenderStatsPanel(s, nil)
	for _, want := range []string{"productivity: 67%", "Inbox", "Read", "█████░░░░░", "4d"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestRenderActivityPanel(t *testing.T) {
	in := analytics.Input{Tasks: []model.Task{{Completed: true, UpdatedAt: now}}}
	out := RenderActivityPanel(analytics.Activity(in, now, time.UTC))
	if !strings.HasPrefix(out, "activity January 2025:") {
		t.Fatalf("unexpected header: %q", out)
	}
	if got := strings.Count(out, "■■"); got != 31 {
		t.Fatalf("expected 31 cells, got %d", got)
	}
	if RenderActivityPanel(nil) != "activity:\n(none)" {
		t.Fatal("empty month should render placeholder")
	}
}

func TestReportMarkdown(t *testing.T) {
	md := Report(ReportData{
		Now:      now,
		Location: time.UTC,
		Analytics: analytics.Snapshot{
			ProductivityScore:       50,
			CompletedTasksByDay:     []analytics.DayCount{{Day: "2025-01-15", Count: 1}},
			CompletedTasksByProject: []analytics.ProjectCount{{Label: "A|B", Count: 1}},
		},
		Activity: []analytics.ActivityDay{{Day: "2025-01-15", Count: 1, Level: 1}},
	})
	for _, want := range []string{"# flowd report, Wednesday, Jan 15 2025", "**Productivity score:** 50%", "| 2025-01-15 | 1 |", `A\|B`, "_No goals._", "Active on 1 day(s)"} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
	if strings.TrimSpace(RenderReport(ReportData{Now: now})) == "" {
		t.Fatal("rendered report is empty")
	}
}

func TestRenderAppIncludesChartAndNotification(t *testing.T) {
	out := RenderApp(AppData{Header: "flowd", LeftPane: "left", RightPane: "right", Chart: "chart", StatusLine: "sync error", Notification: "due"})
	for _, want := range []string{"flowd", "left", "right", "chart", "sync error", "due"} {
		if !strings.Contains(out, want) {
			t.Fatalf("app missing %q", want)
		}
	}
}
