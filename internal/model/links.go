package model

import (
	"slices"
	"time"
)

type LinkedItems struct {
	Tasks     []string `json:"tasks"`
	Goals     []string `json:"goals"`
	Reminders []string `json:"reminders"`
	Events    []string `json:"events"`
}

func (l LinkedItems) IsZero() bool {
	return len(l.Tasks) == 0 && len(l.Goals) == 0 && len(l.Reminders) == 0 && len(l.Events) == 0
}

// Normalized returns a copy with nil slices replaced by empty ones so the JSON
// form always carries all four keys.
func (l LinkedItems) Normalized() LinkedItems {
	return LinkedItems{
		Tasks:     nonNil(l.Tasks),
		Goals:     nonNil(l.Goals),
		Reminders: nonNil(l.Reminders),
		Events:    nonNil(l.Events),
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}

// CivilDay returns midnight of the calendar day t falls on in loc.
func CivilDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayKey formats the calendar day of t in loc as yyyy-mm-dd.
func DayKey(t time.Time, loc *time.Location) string {
	return CivilDay(t, loc).Format(time.DateOnly)
}

func SameDay(a, b time.Time, loc *time.Location) bool {
	return CivilDay(a, loc).Equal(CivilDay(b, loc))
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// touched returns the updatedAt to stamp on a mutation at now, never earlier
// than created.
func touched(created, now time.Time) time.Time {
	if now.Before(created) {
		return created
	}
	return now
}

func (t *Task) Touch(now time.Time)          { t.UpdatedAt = touched(t.CreatedAt, now) }
func (p *Project) Touch(now time.Time)       { p.UpdatedAt = touched(p.CreatedAt, now) }
func (g *Goal) Touch(now time.Time)          { g.UpdatedAt = touched(g.CreatedAt, now) }
func (r *Reminder) Touch(now time.Time)      { r.UpdatedAt = touched(r.CreatedAt, now) }
func (e *CalendarEvent) Touch(now time.Time) { e.UpdatedAt = touched(e.CreatedAt, now) }
func (s *Settings) Touch(now time.Time)      { s.UpdatedAt = touched(s.CreatedAt, now) }
