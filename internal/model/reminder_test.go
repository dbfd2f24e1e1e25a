package model

import (
	"errors"
	"testing"
	"time"
)

func TestReminderValidate(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	r := Reminder{ID: "r1", Title: "Stretch", DueDate: now, CreatedAt: now, UpdatedAt: now}
	r.Normalize()
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid reminder, got %v", err)
	}

	r.DueDate = time.Time{}
	if err := r.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing due date, got %v", err)
	}

	before := now.Add(-time.Minute)
	r.DueDate = now
	r.EndDate = &before
	if err := r.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for end before due, got %v", err)
	}
}

func TestEventNormalizeAndDerived(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	e := CalendarEvent{ID: "e1", Title: "Standup", StartDate: now, EndDate: now, Priority: PriorityP1, CreatedAt: now, UpdatedAt: now}
	e.Normalize()
	if e.Color != ColorRed {
		t.Fatalf("expected color from priority, got %s", e.Color)
	}
	if e.IsDerived() {
		t.Fatal("user event must not be derived")
	}
	e.LinkedItems.Tasks = []string{"t1"}
	if !e.IsDerived() {
		t.Fatal("event linked to a task must be derived")
	}
	e.EndDate = now.Add(-time.Hour)
	if err := e.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGoalProgressAndMilestones(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	target := 10.0
	g := Goal{
		ID:           "g1",
		Title:        "Read books",
		TargetValue:  &target,
		CurrentValue: 5,
		Milestones: []Milestone{
			{ID: "m1", Title: "half", TargetValue: 5},
			{ID: "m2", Title: "all", TargetValue: 10},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.Normalize()
	if err := g.Validate(); err != nil {
		t.Fatalf("expected valid goal, got %v", err)
	}
	if g.Category != DefaultGoalCategory {
		t.Fatalf("expected default category, got %q", g.Category)
	}
	if g.Progress() != 50 {
		t.Fatalf("progress = %v, want 50", g.Progress())
	}
	if g.Completed() {
		t.Fatal("goal must not be completed at half target")
	}
	if !g.SyncMilestones(now) {
		t.Fatal("expected milestone change")
	}
	if !g.Milestones[0].Completed || g.Milestones[0].CompletedAt == nil || g.Milestones[1].Completed {
		t.Fatalf("unexpected milestones: %+v", g.Milestones)
	}
	if g.SyncMilestones(now) {
		t.Fatal("second sync must be a no-op")
	}

	g.CurrentValue = 10
	if !g.Completed() {
		t.Fatal("goal at target must be completed")
	}
	g.IsHabit = true
	if g.Completed() {
		t.Fatal("habits never complete")
	}

	g.CurrentValue = -1
	if err := g.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative value, got %v", err)
	}
}

func TestDefaultSettingsValid(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	s := DefaultSettings(now)
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	if !s.RemindersEnabled() {
		t.Fatal("reminders should be enabled by default")
	}
	s.Privacy.PinLock = true
	if err := s.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected pin lock without pin to fail, got %v", err)
	}
}

func TestQuickAddDefaults(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	q := QuickAdd{Kind: QuickAddTask, Title: "Buy milk"}
	if err := q.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := q.Task()
	if task.Priority != PriorityP3 || task.ProjectID != InboxProjectID {
		t.Fatalf("unexpected task defaults: %+v", task)
	}

	ev := q.Event(now)
	if !ev.StartDate.Equal(now) || ev.EndDate.Sub(ev.StartDate) != time.Hour || ev.Color != ColorBlue || ev.IsAllDay {
		t.Fatalf("unexpected event defaults: %+v", ev)
	}
	if g := q.Goal(); g.Category != DefaultGoalCategory {
		t.Fatalf("unexpected goal category: %q", g.Category)
	}
	if r := q.Reminder(now); !r.DueDate.Equal(now) {
		t.Fatalf("unexpected reminder due date: %s", r.DueDate)
	}

	if err := (QuickAdd{Kind: "note", Title: "x"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid kind error, got %v", err)
	}
}
