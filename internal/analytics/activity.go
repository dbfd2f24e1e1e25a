package analytics

import (
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

type ActivityDay struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// Activity returns one cell per day of the month containing month, counting
// completed tasks and habit check-ins on that day.
func Activity(in Input, month time.Time, loc *time.Location) []ActivityDay {
	first := model.CivilDay(month, loc).AddDate(0, 0, 1-month.In(locOrLocal(loc)).Day())
	next := first.AddDate(0, 1, 0)

	counts := make(map[string]int)
	for _, t := range in.Tasks {
		if t.Completed {
			counts[model.DayKey(t.UpdatedAt, loc)]++
		}
	}
	for _, g := range in.Goals {
		if g.IsHabit && g.LastCompletedDate != nil {
			counts[model.DayKey(*g.LastCompletedDate, loc)]++
		}
	}

	out := make([]ActivityDay, 0, 31)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		n := counts[key]
		out = append(out, ActivityDay{Day: key, Count: n, Level: Intensity(n)})
	}
	return out
}

// Intensity buckets a day's activity count into heatmap levels 0..4.
func Intensity(n int) int {
	switch {
	case n >= 5:
		return 4
	case n >= 3:
		return 3
	case n >= 2:
		return 2
	case n >= 1:
		return 1
	default:
		return 0
	}
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
