package model

import (
	"fmt"
	"time"
)

type QuickAddKind string

const (
	QuickAddTask     QuickAddKind = "task"
	QuickAddEvent    QuickAddKind = "event"
	QuickAddGoal     QuickAddKind = "goal"
	QuickAddReminder QuickAddKind = "reminder"
)

func (k QuickAddKind) IsValid() bool {
	switch k {
	case QuickAddTask, QuickAddEvent, QuickAddGoal, QuickAddReminder:
		return true
	default:
		return false
	}
}

const DefaultEventDuration = time.Hour

// QuickAdd is the minimal one-line capture form. The builders fill in the
// defaults for everything the line does not say.
type QuickAdd struct {
	Kind      QuickAddKind
	Title     string
	Due       *time.Time
	Priority  Priority
	Tags      []string
	ProjectID string
}

func (q QuickAdd) Validate() error {
	if !q.Kind.IsValid() {
		return invalidf("unknown quick add kind %q", q.Kind)
	}
	if err := requireTitle(string(q.Kind), q.Title); err != nil {
		return err
	}
	if q.Priority != "" {
		if err := validatePriority(q.Priority); err != nil {
			return fmt.Errorf("quick add: %w", err)
		}
	}
	return nil
}

func (q QuickAdd) priority() Priority {
	if q.Priority == "" {
		return DefaultPriority
	}
	return q.Priority
}

func (q QuickAdd) Task() Task {
	project := q.ProjectID
	if project == "" {
		project = InboxProjectID
	}
	return Task{
		Title:     q.Title,
		Priority:  q.priority(),
		DueDate:   copyTime(q.Due),
		ProjectID: project,
		Tags:      NormalizeTags(q.Tags),
	}
}

func (q QuickAdd) Event(now time.Time) CalendarEvent {
	start := now
	if q.Due != nil {
		start = *q.Due
	}
	return CalendarEvent{
		Title:     q.Title,
		StartDate: start,
		EndDate:   start.Add(DefaultEventDuration),
		Color:     ColorBlue,
		Priority:  q.priority(),
		Tags:      NormalizeTags(q.Tags),
	}
}

func (q QuickAdd) Goal() Goal {
	return Goal{
		Title:    q.Title,
		Category: DefaultGoalCategory,
		Deadline: copyTime(q.Due),
		Priority: q.priority(),
		Tags:     NormalizeTags(q.Tags),
	}
}

func (q QuickAdd) Reminder(now time.Time) Reminder {
	due := now
	if q.Due != nil {
		due = *q.Due
	}
	return Reminder{
		Title:    q.Title,
		DueDate:  due,
		Priority: q.priority(),
		Tags:     NormalizeTags(q.Tags),
	}
}
