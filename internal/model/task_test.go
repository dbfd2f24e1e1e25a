package model

import (
	"errors"
	"testing"
	"time"
)

func validTask(now time.Time) Task {
	t := Task{
		ID:        "task-1",
		Title:     "  Pay bill ",
		Tags:      []string{"home", " home", "", "Home"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Normalize()
	return t
}

func TestTaskNormalizeAndValidate(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := validTask(now)

	if task.Title != "Pay bill" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.Priority != PriorityP3 {
		t.Fatalf("expected default priority P3, got %s", task.Priority)
	}
	if len(task.Tags) != 2 || task.Tags[0] != "home" || task.Tags[1] != "Home" {
		t.Fatalf("unexpected tags: %v", task.Tags)
	}
	if task.Subtasks == nil || task.LinkedItems.Tasks == nil {
		t.Fatal("expected empty collections instead of nil")
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateFailures(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name   string
		mutate func(*Task)
		target error
	}{
		{name: "missing title", mutate: func(t *Task) { t.Title = " " }, target: ErrValidation},
		{name: "bad priority", mutate: func(t *Task) { t.Priority = "P9" }, target: ErrInvalidPriority},
		{name: "duplicate tag", mutate: func(t *Task) { t.Tags = []string{"a", "a"} }, target: ErrDuplicateTag},
		{name: "due before start", mutate: func(t *Task) { t.StartDate = &now; t.DueDate = &earlier }, target: ErrValidation},
		{name: "updated before created", mutate: func(t *Task) { t.UpdatedAt = earlier }, target: ErrValidation},
		{name: "bad recurrence", mutate: func(t *Task) { t.Recurrence = &Recurrence{Type: RecurrenceDaily} }, target: ErrInvalidInterval},
		{name: "subtask without title", mutate: func(t *Task) { t.Subtasks = []Subtask{{ID: "s1"}} }, target: ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := validTask(now)
			tc.mutate(&task)
			err := task.Validate()
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected error to wrap ErrValidation, got %v", err)
			}
		})
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := validTask(now)
	task.DueDate = &now
	task.Subtasks = []Subtask{{ID: "s1", Title: "call"}}

	clone := task.Clone()
	clone.Tags[0] = "changed"
	clone.Subtasks[0].Completed = true
	*clone.DueDate = now.Add(time.Hour)

	if task.Tags[0] != "home" || task.Subtasks[0].Completed || !task.DueDate.Equal(now) {
		t.Fatal("clone shares state with original")
	}
}

func TestPriorityColor(t *testing.T) {
	want := map[Priority]string{
		PriorityP1: ColorRed,
		PriorityP2: ColorAmber,
		PriorityP3: ColorBlue,
		PriorityP4: ColorGray,
	}
	for p, color := range want {
		if p.Color() != color {
			t.Fatalf("%s color = %s, want %s", p, p.Color(), color)
		}
	}
}

func TestDayKeyUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

	if got := DayKey(ts, loc); got != "2026-03-01" {
		t.Fatalf("DayKey = %s, want 2026-03-01", got)
	}
	if !SameDay(ts, time.Date(2026, 3, 1, 12, 0, 0, 0, loc), loc) {
		t.Fatal("expected same calendar day in loc")
	}
}
