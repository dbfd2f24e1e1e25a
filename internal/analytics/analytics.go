// Package analytics turns the current collections into read-only rollups. Every
// function here is pure: no I/O, no clocks, no shared state.
//
// Each call rescans its whole input, which is O(n) in the number of entities.
// That is fine at personal scale; larger datasets would want running counters
// maintained on each mutation instead.
package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

// Window is how far back completedTasksByDay looks.
const Window = 30 * 24 * time.Hour

type Input struct {
	Tasks     []model.Task
	Projects  []model.Project
	Goals     []model.Goal
	Reminders []model.Reminder
}

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ProjectCount is keyed by project id. ProjectID is empty for tasks whose
// project is missing or unknown; they share the fallback label.
type ProjectCount struct {
	ProjectID string `json:"projectId"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
}

type GoalProgress struct {
	GoalID   string  `json:"goalId"`
	Label    string  `json:"label"`
	Progress float64 `json:"progress"`
}

type Streak struct {
	GoalID            string     `json:"goalId"`
	Label             string     `json:"label"`
	Count             int        `json:"count"`
	LastCompletedDate *time.Time `json:"lastCompletedDate,omitempty"`
}

// TimeSpent is reserved; nothing records time yet.
type TimeSpent struct {
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
}

type Snapshot struct {
	CompletedTasksByDay     []DayCount     `json:"completedTasksByDay"`
	CompletedTasksByProject []ProjectCount `json:"completedTasksByProject"`
	GoalProgress            []GoalProgress `json:"goalProgress"`
	ProductivityScore       int            `json:"productivityScore"`
	Streaks                 []Streak       `json:"streaks"`
	TimeSpent               []TimeSpent    `json:"timeSpent"`
	GeneratedAt             time.Time      `json:"generatedAt"`
}

// Compute builds the analytics snapshot for in as of now. Calendar days are
// taken in loc.
func Compute(in Input, now time.Time, loc *time.Location) Snapshot {
	return Snapshot{
		CompletedTasksByDay:     CompletedByDay(in.Tasks, now, loc),
		CompletedTasksByProject: CompletedByProject(in.Tasks, in.Projects),
		GoalProgress:            GoalProgressOf(in.Goals),
		ProductivityScore:       ProductivityScore(in.Tasks),
		Streaks:                 Streaks(in.Goals),
		TimeSpent:               []TimeSpent{},
		GeneratedAt:             now,
	}
}

// CompletedByDay counts completed tasks whose updatedAt falls in the trailing
// window, per calendar day. Days without completions are omitted.
func CompletedByDay(tasks []model.Task, now time.Time, loc *time.Location) []DayCount {
	cutoff := now.Add(-Window)
	counts := make(map[string]int)
	for _, t := range tasks {
		if !t.Completed || t.UpdatedAt.Before(cutoff) {
			continue
		}
		counts[model.DayKey(t.UpdatedAt, loc)]++
	}
	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Day: day, Count: n})
	}
	slices.SortFunc(out, func(a, b DayCount) int { return cmp.Compare(a.Day, b.Day) })
	return out
}

func CompletedByProject(tasks []model.Task, projects []model.Project) []ProjectCount {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	byID := make(map[string]*ProjectCount)
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		id, label := "", model.NoProjectLabel
		if name, ok := names[t.ProjectID]; ok && t.ProjectID != "" {
			id, label = t.ProjectID, name
		}
		pc, ok := byID[id]
		if !ok {
			pc = &ProjectCount{ProjectID: id, Label: label}
			byID[id] = pc
		}
		pc.Count++
	}
	out := make([]ProjectCount, 0, len(byID))
	for _, pc := range byID {
		out = append(out, *pc)
	}
	slices.SortFunc(out, func(a, b ProjectCount) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(a.Label, b.Label),
			cmp.Compare(a.ProjectID, b.ProjectID),
		)
	})
	return out
}

// GoalProgressOf has one entry per goal, so goals sharing a title stay apart.
func GoalProgressOf(goals []model.Goal) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalProgress{GoalID: g.ID, Label: g.Title, Progress: g.Progress()})
	}
	slices.SortFunc(out, func(a, b GoalProgress) int {
		return cmp.Or(cmp.Compare(a.Label, b.Label), cmp.Compare(a.GoalID, b.GoalID))
	})
	return out
}

// ProductivityScore is the rounded share of completed tasks, 0 with no tasks.
func ProductivityScore(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(tasks)) * 100))
}

// Streaks lists habits with a running streak, longest first.
func Streaks(goals []model.Goal) []Streak {
	out := make([]Streak, 0)
	for _, g := range goals {
		if !g.IsHabit || g.StreakCount <= 0 {
			continue
		}
		var last *time.Time
		if g.LastCompletedDate != nil {
			v := *g.LastCompletedDate
			last = &v
		}
		out = append(out, Streak{GoalID: g.ID, Label: g.Title, Count: g.StreakCount, LastCompletedDate: last})
	}
	slices.SortFunc(out, func(a, b Streak) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Label, b.Label), cmp.Compare(a.GoalID, b.GoalID))
	})
	return out
}
