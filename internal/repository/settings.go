package repository

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/flowd/internal/model"
)

func (r *Repository) GetSettings(ctx context.Context) (model.Settings, error) {
	return get(ctx, r.c.Settings, model.SettingsID)
}

// UpdateSettings edits the singleton in place. The id cannot change.
func (r *Repository) UpdateSettings(ctx context.Context, fn func(*model.Settings)) (model.Settings, error) {
	return mutate(ctx, r.c.Settings, model.SettingsID, r.Now(), func(s *model.Settings) error {
		fn(s)
		s.ID = model.SettingsID
		return nil
	})
}

// QuickAdded identifies what a quick add created.
type QuickAdded struct {
	Kind  model.QuickAddKind
	ID    string
	Title string
}

// QuickAdd creates an entity from the one-line capture form with the defaults
// of its kind.
func (r *Repository) QuickAdd(ctx context.Context, q model.QuickAdd) (QuickAdded, error) {
	if err := q.Validate(); err != nil {
		return QuickAdded{}, err
	}
	out := QuickAdded{Kind: q.Kind}
	switch q.Kind {
	case model.QuickAddTask:
		t, err := r.CreateTask(ctx, q.Task())
		if err != nil {
			return QuickAdded{}, err
		}
		out.ID, out.Title = t.ID, t.Title
	case model.QuickAddEvent:
		e, err := r.CreateEvent(ctx, q.Event(r.Now()))
		if err != nil {
			return QuickAdded{}, err
		}
		out.ID, out.Title = e.ID, e.Title
	case model.QuickAddGoal:
		g, err := r.CreateGoal(ctx, q.Goal())
		if err != nil {
			return QuickAdded{}, err
		}
		out.ID, out.Title = g.ID, g.Title
	case model.QuickAddReminder:
		rem, err := r.CreateReminder(ctx, q.Reminder(r.Now()))
		if err != nil {
			return QuickAdded{}, err
		}
		out.ID, out.Title = rem.ID, rem.Title
	default:
		return QuickAdded{}, fmt.Errorf("quick add: unsupported kind %q", q.Kind)
	}
	return out, nil
}
