package storage

import (
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

const (
	orderCreatedDesc = "created_at DESC, id DESC"
	orderSortKeyAsc  = "sort_key ASC, id ASC"
)

// Collections is the set of typed collections bound to one querier: the
// database itself, or a single transaction.
type Collections struct {
	Tasks     *Collection[model.Task]
	Projects  *Collection[model.Project]
	Goals     *Collection[model.Goal]
	Reminders *Collection[model.Reminder]
	Events    *Collection[model.CalendarEvent]
	Settings  *Collection[model.Settings]
}

func bind(q querier) Collections {
	return Collections{
		Tasks: &Collection[model.Task]{q: q, schema: schema[model.Task]{
			table:   "tasks",
			orderBy: orderCreatedDesc,
			id:      func(t model.Task) string { return t.ID },
			sortKey: func(t model.Task) string { return formatSortTime(t.CreatedAt) },
			stamps:  func(t model.Task) (time.Time, time.Time) { return t.CreatedAt, t.UpdatedAt },
		}},
		Projects: &Collection[model.Project]{q: q, schema: schema[model.Project]{
			table:   "projects",
			orderBy: orderSortKeyAsc,
			id:      func(p model.Project) string { return p.ID },
			sortKey: func(p model.Project) string { return p.Name },
			stamps:  func(p model.Project) (time.Time, time.Time) { return p.CreatedAt, p.UpdatedAt },
		}},
		Goals: &Collection[model.Goal]{q: q, schema: schema[model.Goal]{
			table:   "goals",
			orderBy: orderCreatedDesc,
			id:      func(g model.Goal) string { return g.ID },
			sortKey: func(g model.Goal) string { return formatSortTime(g.CreatedAt) },
			stamps:  func(g model.Goal) (time.Time, time.Time) { return g.CreatedAt, g.UpdatedAt },
		}},
		Reminders: &Collection[model.Reminder]{q: q, schema: schema[model.Reminder]{
			table:   "reminders",
			orderBy: orderSortKeyAsc,
			id:      func(r model.Reminder) string { return r.ID },
			sortKey: func(r model.Reminder) string { return formatSortTime(r.DueDate) },
			stamps:  func(r model.Reminder) (time.Time, time.Time) { return r.CreatedAt, r.UpdatedAt },
		}},
		Events: &Collection[model.CalendarEvent]{q: q, schema: schema[model.CalendarEvent]{
			table:   "calendar_events",
			orderBy: orderSortKeyAsc,
			id:      func(e model.CalendarEvent) string { return e.ID },
			sortKey: func(e model.CalendarEvent) string { return formatSortTime(e.StartDate) },
			stamps:  func(e model.CalendarEvent) (time.Time, time.Time) { return e.CreatedAt, e.UpdatedAt },
		}},
		Settings: &Collection[model.Settings]{q: q, schema: schema[model.Settings]{
			table:   "settings",
			orderBy: "id ASC",
			id:      func(s model.Settings) string { return s.ID },
			sortKey: func(s model.Settings) string { return s.ID },
			stamps:  func(s model.Settings) (time.Time, time.Time) { return s.CreatedAt, s.UpdatedAt },
		}},
	}
}
