package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

// UpcomingDays is how far ahead the agenda's upcoming bucket reaches.
const UpcomingDays = 7

type Occurrence struct {
	TaskID string    `json:"taskId"`
	Title  string    `json:"title"`
	At     time.Time `json:"at"`
}

type Agenda struct {
	Today           []model.Task     `json:"today"`
	Overdue         []model.Task     `json:"overdue"`
	Upcoming        []model.Task     `json:"upcoming"`
	Reminders       []model.Reminder `json:"reminders"`
	ActiveGoals     []model.Goal     `json:"activeGoals"`
	NextOccurrences []Occurrence     `json:"nextOccurrences"`
}

// BuildAgenda buckets incomplete work around the calendar day of now.
func BuildAgenda(in Input, now time.Time, loc *time.Location) Agenda {
	today := model.CivilDay(now, loc)
	horizon := today.AddDate(0, 0, UpcomingDays+1)

	a := Agenda{
		Today:           []model.Task{},
		Overdue:         []model.Task{},
		Upcoming:        []model.Task{},
		Reminders:       []model.Reminder{},
		ActiveGoals:     []model.Goal{},
		NextOccurrences: []Occurrence{},
	}
	for _, t := range in.Tasks {
		if t.Recurrence != nil {
			if anchor := recurrenceAnchor(t); anchor != nil {
				if next, ok := t.Recurrence.NextAfter(*anchor, now); ok {
					a.NextOccurrences = append(a.NextOccurrences, Occurrence{TaskID: t.ID, Title: t.Title, At: next})
				}
			}
		}
		if t.Completed || t.DueDate == nil {
			continue
		}
		due := model.CivilDay(*t.DueDate, loc)
		switch {
		case due.Equal(today):
			a.Today = append(a.Today, t)
		case due.Before(today):
			a.Overdue = append(a.Overdue, t)
		case due.Before(horizon):
			a.Upcoming = append(a.Upcoming, t)
		}
	}
	for _, r := range in.Reminders {
		if r.Completed || model.CivilDay(r.DueDate, loc).Before(today) {
			continue
		}
		a.Reminders = append(a.Reminders, r)
	}
	for _, g := range in.Goals {
		if !g.Completed() {
			a.ActiveGoals = append(a.ActiveGoals, g)
		}
	}

	byDue := func(x, y model.Task) int {
		return cmp.Or(x.DueDate.Compare(*y.DueDate), cmp.Compare(x.ID, y.ID))
	}
	slices.SortFunc(a.Today, byDue)
	slices.SortFunc(a.Overdue, byDue)
	slices.SortFunc(a.Upcoming, byDue)
	slices.SortFunc(a.Reminders, func(x, y model.Reminder) int {
		return cmp.Or(x.DueDate.Compare(y.DueDate), cmp.Compare(x.ID, y.ID))
	})
	slices.SortFunc(a.NextOccurrences, func(x, y Occurrence) int {
		return cmp.Or(x.At.Compare(y.At), cmp.Compare(x.TaskID, y.TaskID))
	})
	return a
}

func recurrenceAnchor(t model.Task) *time.Time {
	if t.StartDate != nil {
		return t.StartDate
	}
	return t.DueDate
}
