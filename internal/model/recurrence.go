package model

import (
	"fmt"
	"slices"
	"time"
)

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	RecurrenceCustom  RecurrenceType = "custom"
)

var (
	ErrInvalidRecurrenceType = fmt.Errorf("%w: invalid recurrence type", ErrValidation)
	ErrInvalidInterval       = fmt.Errorf("%w: invalid recurrence interval", ErrValidation)
)

// Recurrence describes how a task repeats. The series is anchored at the
// task's own start or due date; the rule itself only carries the cadence.
type Recurrence struct {
	Type       RecurrenceType `json:"type"`
	Interval   int            `json:"interval"`
	DaysOfWeek []int          `json:"daysOfWeek,omitempty"`
	EndDate    *time.Time     `json:"endDate,omitempty"`
}

func (r Recurrence) Validate() error {
	switch r.Type {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceCustom:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceType, r.Type)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	seen := make(map[int]bool, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return invalidf("recurrence weekday %d out of range", d)
		}
		if seen[d] {
			return invalidf("duplicate weekday %d in recurrence", d)
		}
		seen[d] = true
	}
	return nil
}

func (r Recurrence) Clone() Recurrence {
	out := r
	out.DaysOfWeek = slices.Clone(r.DaysOfWeek)
	out.EndDate = copyTime(r.EndDate)
	return out
}

// NextAfter returns the first occurrence of the series anchored at anchor that
// falls strictly after from. It reports false when the rule is invalid or the
// series ended before that occurrence.
func (r Recurrence) NextAfter(anchor, from time.Time) (time.Time, bool) {
	if r.Validate() != nil || anchor.IsZero() {
		return time.Time{}, false
	}
	var next time.Time
	switch {
	case len(r.DaysOfWeek) > 0 && (r.Type == RecurrenceWeekly || r.Type == RecurrenceCustom):
		next = r.nextWeekday(anchor, from)
	case r.Type == RecurrenceDaily || r.Type == RecurrenceCustom:
		next = stepDays(anchor, from, r.Interval)
	case r.Type == RecurrenceWeekly:
		next = stepDays(anchor, from, 7*r.Interval)
	case r.Type == RecurrenceMonthly:
		next = stepMonths(anchor, from, r.Interval)
	case r.Type == RecurrenceYearly:
		next = stepMonths(anchor, from, 12*r.Interval)
	}
	if next.IsZero() {
		return time.Time{}, false
	}
	if r.EndDate != nil && next.After(*r.EndDate) {
		return time.Time{}, false
	}
	return next, true
}

func (r Recurrence) Preview(anchor, from time.Time, count int) []time.Time {
	out := make([]time.Time, 0, max(count, 0))
	cursor := from
	for i := 0; i < count; i++ {
		next, ok := r.NextAfter(anchor, cursor)
		if !ok {
			break
		}
		out = append(out, next)
		cursor = next
	}
	return out
}

func stepDays(anchor, from time.Time, interval int) time.Time {
	if from.Before(anchor) {
		return anchor
	}
	k := daysBetween(anchor, from) / interval
	candidate := anchor.AddDate(0, 0, k*interval)
	for !candidate.After(from) {
		k++
		candidate = anchor.AddDate(0, 0, k*interval)
	}
	return candidate
}

func stepMonths(anchor, from time.Time, interval int) time.Time {
	if from.Before(anchor) {
		return anchor
	}
	ay, am, _ := anchor.Date()
	fy, fm, _ := from.In(anchor.Location()).Date()
	k := max(((fy-ay)*12+int(fm-am))/interval, 0)
	candidate := addMonthsClamped(anchor, k*interval)
	for !candidate.After(from) {
		k++
		candidate = addMonthsClamped(anchor, k*interval)
	}
	return candidate
}

// addMonthsClamped moves t by n months, pinning the day to the last day of the
// target month instead of overflowing into the next one.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, last), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func (r Recurrence) nextWeekday(anchor, from time.Time) time.Time {
	allowed := make(map[time.Weekday]bool, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		allowed[time.Weekday(d)] = true
	}
	weekStart := anchor.AddDate(0, 0, -int(anchor.Weekday()))
	cand := anchor
	if from.After(anchor) {
		cand = withAnchorClock(from.In(anchor.Location()), anchor)
	}
	for i := 0; i < 7*(r.Interval+2); i++ {
		week := daysBetween(weekStart, cand) / 7
		if allowed[cand.Weekday()] && week%r.Interval == 0 && cand.After(from) && !cand.Before(anchor) {
			return cand
		}
		cand = cand.AddDate(0, 0, 1)
	}
	return time.Time{}
}

// daysBetween counts calendar days from a to b in a's location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func withAnchorClock(date time.Time, anchor time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}
