package derive

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/repository"
)

// ApplyProgress sets a goal's current value. For habits, a strictly larger
// value counts as a completion for the calendar day of now in loc:
//   - same day as the last completion: streak unchanged
//   - the day after: streak + 1
//   - any other gap, or the first completion: streak restarts at 1
//
// Equal or smaller values never touch the streak.
func ApplyProgress(g *model.Goal, value float64, now time.Time, loc *time.Location) error {
	if value < 0 {
		return fmt.Errorf("%w: goal currentValue must be >= 0, got %v", model.ErrValidation, value)
	}
	if g.IsHabit && value > g.CurrentValue {
		today := model.CivilDay(now, loc)
		var last time.Time
		if g.LastCompletedDate != nil {
			last = model.CivilDay(*g.LastCompletedDate, loc)
		}
		switch {
		case g.LastCompletedDate != nil && model.SameDay(*g.LastCompletedDate, now, loc):
		case g.LastCompletedDate != nil && last.Equal(today.AddDate(0, 0, -1)):
			g.StreakCount++
			g.LastCompletedDate = &now
		default:
			g.StreakCount = 1
			g.LastCompletedDate = &now
		}
	}
	g.CurrentValue = value
	g.SyncMilestones(now)
	return nil
}

// RecordProgress sets the goal's value and applies the streak rules in one
// transaction.
func (e *Engine) RecordProgress(ctx context.Context, goalID string, value float64) (model.Goal, error) {
	return e.updateProgress(ctx, goalID, func(g *model.Goal) float64 { return value })
}

// IncrementProgress adds delta to the goal's current value.
func (e *Engine) IncrementProgress(ctx context.Context, goalID string, delta float64) (model.Goal, error) {
	return e.updateProgress(ctx, goalID, func(g *model.Goal) float64 { return g.CurrentValue + delta })
}

func (e *Engine) updateProgress(ctx context.Context, goalID string, next func(*model.Goal) float64) (model.Goal, error) {
	var out model.Goal
	err := e.repo.InTx(ctx, func(tx *repository.Repository) error {
		now := tx.Now()
		g, err := tx.MutateGoal(ctx, goalID, func(g *model.Goal) error {
			return ApplyProgress(g, next(g), now, e.loc)
		})
		if err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return model.Goal{}, err
	}
	e.logger.Debug("goal progress recorded",
		zap.String("goal_id", out.ID),
		zap.Float64("value", out.CurrentValue),
		zap.Int("streak", out.StreakCount),
	)
	return out, nil
}

// CreateTaskWithEvent stores a task together with its derived event, if it
// needs one, so neither exists without the other.
func (e *Engine) CreateTaskWithEvent(ctx context.Context, in model.Task) (model.Task, *model.CalendarEvent, error) {
	var (
		task  model.Task
		event *model.CalendarEvent
	)
	err := e.repo.InTx(ctx, func(tx *repository.Repository) (err error) {
		if task, err = tx.CreateTask(ctx, in); err != nil {
			return err
		}
		ev, ok := EventForTask(task)
		event, err = storeDerived(ctx, tx, ev, ok)
		return err
	})
	if err != nil {
		return model.Task{}, nil, err
	}
	return task, event, nil
}

// CreateGoalWithEvent is CreateTaskWithEvent for goals with a deadline.
func (e *Engine) CreateGoalWithEvent(ctx context.Context, in model.Goal) (model.Goal, *model.CalendarEvent, error) {
	var (
		goal  model.Goal
		event *model.CalendarEvent
	)
	err := e.repo.InTx(ctx, func(tx *repository.Repository) (err error) {
		if goal, err = tx.CreateGoal(ctx, in); err != nil {
			return err
		}
		ev, ok := EventForGoal(goal)
		event, err = storeDerived(ctx, tx, ev, ok)
		return err
	})
	if err != nil {
		return model.Goal{}, nil, err
	}
	return goal, event, nil
}

// QuickAdd creates the entity of a quick add and, for tasks and goals, its
// derived event in the same transaction.
func (e *Engine) QuickAdd(ctx context.Context, q model.QuickAdd) (repository.QuickAdded, *model.CalendarEvent, error) {
	var (
		added repository.QuickAdded
		event *model.CalendarEvent
	)
	err := e.repo.InTx(ctx, func(tx *repository.Repository) (err error) {
		if added, err = tx.QuickAdd(ctx, q); err != nil {
			return err
		}
		switch added.Kind {
		case model.QuickAddTask:
			t, err := tx.GetTask(ctx, added.ID)
			if err != nil {
				return err
			}
			ev, ok := EventForTask(t)
			event, err = storeDerived(ctx, tx, ev, ok)
			return err
		case model.QuickAddGoal:
			g, err := tx.GetGoal(ctx, added.ID)
			if err != nil {
				return err
			}
			ev, ok := EventForGoal(g)
			event, err = storeDerived(ctx, tx, ev, ok)
			return err
		}
		return nil
	})
	if err != nil {
		return repository.QuickAdded{}, nil, err
	}
	return added, event, nil
}

func storeDerived(ctx context.Context, tx *repository.Repository, ev model.CalendarEvent, ok bool) (*model.CalendarEvent, error) {
	if !ok {
		return nil, nil
	}
	stored, err := tx.CreateEvent(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("create derived event: %w", err)
	}
	return &stored, nil
}
