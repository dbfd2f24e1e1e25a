package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/flowd/internal/model"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func task(id string, completed bool, updated time.Time) model.Task {
	return model.Task{ID: id, Title: id, Completed: completed, CreatedAt: updated.Add(-time.Hour), UpdatedAt: updated}
}

func TestProductivityScore(t *testing.T) {
	assert.Equal(t, 0, ProductivityScore(nil))
	tasks := []model.Task{task("a", true, now), task("b", true, now), task("c", false, now)}
	assert.Equal(t, 67, ProductivityScore(tasks))
}

func TestCompletedByDaySparse(t *testing.T) {
	tasks := []model.Task{
		task("a", true, now.Add(-24*time.Hour)),
		task("b", true, now.Add(-72*time.Hour)),
		task("c", false, now),
		task("d", false, now),
		task("e", false, now),
		task("old", true, now.Add(-31*24*time.Hour)),
	}
	got := CompletedByDay(tasks, now, time.UTC)
	want := []DayCount{{Day: "2025-03-12", Count: 1}, {Day: "2025-03-14", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("CompletedByDay mismatch (-want +got):\n%s", diff)
	}

	tasks[1].UpdatedAt = now.Add(-23 * time.Hour)
	got = CompletedByDay(tasks, now, time.UTC)
	want = []DayCount{{Day: "2025-03-14", Count: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("same-day merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletedByProjectFallback(t *testing.T) {
	projects := []model.Project{{ID: "work", Name: "Work"}, {ID: "inbox", Name: "Inbox"}}
	a := task("a", true, now)
	a.ProjectID = "work"
	b := task("b", true, now)
	b.ProjectID = "work"
	c := task("c", true, now)
	c.ProjectID = "deleted-project"
	d := task("d", true, now)
	e := task("e", false, now)
	e.ProjectID = "inbox"

	got := CompletedByProject([]model.Task{a, b, c, d, e}, projects)
	want := []ProjectCount{
		{ProjectID: "", Label: model.NoProjectLabel, Count: 2},
		{ProjectID: "work", Label: "Work", Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("CompletedByProject mismatch (-want +got):\n%s", diff)
	}
}

func TestGoalProgressKeyedByID(t *testing.T) {
	target := 4.0
	goals := []model.Goal{
		{ID: "g2", Title: "Read", TargetValue: &target, CurrentValue: 1},
		{ID: "g1", Title: "Read", TargetValue: &target, CurrentValue: 2},
		{ID: "g3", Title: "Meditate", IsHabit: true, StreakCount: 3},
	}
	got := GoalProgressOf(goals)
	require.Len(t, got, 3, "duplicate titles must not collapse")
	assert.Equal(t, GoalProgress{GoalID: "g3", Label: "Meditate", Progress: 0}, got[0])
	assert.Equal(t, GoalProgress{GoalID: "g1", Label: "Read", Progress: 50}, got[1])
	assert.Equal(t, GoalProgress{GoalID: "g2", Label: "Read", Progress: 25}, got[2])
}

func TestStreaksOnlyActiveHabits(t *testing.T) {
	last := now.Add(-time.Hour)
	goals := []model.Goal{
		{ID: "g1", Title: "Run", IsHabit: true, StreakCount: 2, LastCompletedDate: &last},
		{ID: "g2", Title: "Read", IsHabit: true, StreakCount: 5},
		{ID: "g3", Title: "Idle", IsHabit: true},
		{ID: "g4", Title: "Save", StreakCount: 9},
	}
	got := Streaks(goals)
	require.Len(t, got, 2)
	assert.Equal(t, "g2", got[0].GoalID)
	assert.Equal(t, "g1", got[1].GoalID)
	require.NotNil(t, got[1].LastCompletedDate)
	assert.True(t, got[1].LastCompletedDate.Equal(last))
}

func TestComputeSnapshot(t *testing.T) {
	snap := Compute(Input{}, now, time.UTC)
	assert.Zero(t, snap.ProductivityScore)
	assert.NotNil(t, snap.TimeSpent)
	assert.Empty(t, snap.TimeSpent)
	assert.Empty(t, snap.CompletedTasksByDay)
	assert.Equal(t, now, snap.GeneratedAt)
}

func TestBuildAgenda(t *testing.T) {
	at := func(d int) *time.Time {
		v := time.Date(2025, 3, d, 9, 0, 0, 0, time.UTC)
		return &v
	}
	today := task("today", false, now)
	today.DueDate = at(15)
	overdue := task("overdue", false, now)
	overdue.DueDate = at(10)
	soon := task("soon", false, now)
	soon.DueDate = at(20)
	far := task("far", false, now)
	far.DueDate = at(30)
	done := task("done", true, now)
	done.DueDate = at(15)
	weekly := task("weekly", false, now)
	weekly.DueDate = at(3)
	weekly.Recurrence = &model.Recurrence{Type: model.RecurrenceWeekly, Interval: 1}

	target := 2.0
	in := Input{
		Tasks: []model.Task{today, overdue, soon, far, done, weekly},
		Reminders: []model.Reminder{
			{ID: "r-past", DueDate: *at(1)},
			{ID: "r-next", DueDate: *at(16)},
			{ID: "r-done", DueDate: *at(16), Completed: true},
		},
		Goals: []model.Goal{
			{ID: "open", TargetValue: &target, CurrentValue: 1},
			{ID: "met", TargetValue: &target, CurrentValue: 2},
		},
	}
	a := BuildAgenda(in, now, time.UTC)

	ids := func(ts []model.Task) []string {
		out := []string{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}
	assert.Equal(t, []string{"today"}, ids(a.Today))
	assert.Equal(t, []string{"weekly", "overdue"}, ids(a.Overdue))
	assert.Equal(t, []string{"soon"}, ids(a.Upcoming))
	require.Len(t, a.Reminders, 1)
	assert.Equal(t, "r-next", a.Reminders[0].ID)
	require.Len(t, a.ActiveGoals, 1)
	assert.Equal(t, "open", a.ActiveGoals[0].ID)
	require.Len(t, a.NextOccurrences, 1)
	assert.Equal(t, "2025-03-17", a.NextOccurrences[0].At.Format(time.DateOnly))
}

func TestActivityHeatmap(t *testing.T) {
	var tasks []model.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, task("busy", true, time.Date(2025, 2, 10, 8, i, 0, 0, time.UTC)))
	}
	tasks = append(tasks, task("one", true, time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)))
	last := time.Date(2025, 2, 3, 20, 0, 0, 0, time.UTC)
	goals := []model.Goal{{ID: "h", IsHabit: true, StreakCount: 1, LastCompletedDate: &last}}

	days := Activity(Input{Tasks: tasks, Goals: goals}, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), time.UTC)
	require.Len(t, days, 28)
	assert.Equal(t, "2025-02-01", days[0].Day)
	assert.Equal(t, ActivityDay{Day: "2025-02-03", Count: 2, Level: 2}, days[2])
	assert.Equal(t, ActivityDay{Day: "2025-02-10", Count: 5, Level: 4}, days[9])
	assert.Equal(t, 0, days[27].Level)
}

func TestIntensity(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 12: 4} {
		assert.Equal(t, want, Intensity(n), "count %d", n)
	}
}
