package repository

import (
	"context"
	"slices"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

type ReminderPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Completed    *bool
	Priority     *model.Priority
	Tags         []string
	LinkedItems  *model.LinkedItems
}

func (r *Repository) CreateReminder(ctx context.Context, in model.Reminder) (model.Reminder, error) {
	now := r.Now()
	rem := in.Clone()
	rem.ID = r.newID()
	rem.CreatedAt, rem.UpdatedAt = now, now
	return insert(ctx, r.c.Reminders, rem)
}

func (r *Repository) GetReminder(ctx context.Context, id string) (model.Reminder, error) {
	return get(ctx, r.c.Reminders, id)
}

func (r *Repository) UpdateReminder(ctx context.Context, id string, patch ReminderPatch) (model.Reminder, error) {
	return mutate(ctx, r.c.Reminders, id, r.Now(), func(rem *model.Reminder) error {
		set(&rem.Title, patch.Title)
		set(&rem.Description, patch.Description)
		set(&rem.DueDate, patch.DueDate)
		setTime(&rem.EndDate, patch.EndDate, patch.ClearEndDate)
		set(&rem.Completed, patch.Completed)
		set(&rem.Priority, patch.Priority)
		set(&rem.LinkedItems, patch.LinkedItems)
		if patch.Tags != nil {
			rem.Tags = slices.Clone(patch.Tags)
		}
		return nil
	})
}

func (r *Repository) DeleteReminder(ctx context.Context, id string) error {
	return remove(ctx, r.c.Reminders, id)
}

// ListReminders returns reminders by due date.
func (r *Repository) ListReminders(ctx context.Context) ([]model.Reminder, error) {
	return r.c.Reminders.List(ctx)
}

type EventPatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	IsAllDay    *bool
	Color       *string
	Priority    *model.Priority
	Tags        []string
	Location    *string
	LinkedItems *model.LinkedItems
}

// CreateEvent stores a calendar event. Derivation metadata on in is kept.
func (r *Repository) CreateEvent(ctx context.Context, in model.CalendarEvent) (model.CalendarEvent, error) {
	now := r.Now()
	e := in.Clone()
	e.ID = r.newID()
	e.CreatedAt, e.UpdatedAt = now, now
	return insert(ctx, r.c.Events, e)
}

func (r *Repository) GetEvent(ctx context.Context, id string) (model.CalendarEvent, error) {
	return get(ctx, r.c.Events, id)
}

func (r *Repository) UpdateEvent(ctx context.Context, id string, patch EventPatch) (model.CalendarEvent, error) {
	return mutate(ctx, r.c.Events, id, r.Now(), func(e *model.CalendarEvent) error {
		set(&e.Title, patch.Title)
		set(&e.Description, patch.Description)
		set(&e.StartDate, patch.StartDate)
		set(&e.EndDate, patch.EndDate)
		set(&e.IsAllDay, patch.IsAllDay)
		set(&e.Color, patch.Color)
		set(&e.Priority, patch.Priority)
		set(&e.Location, patch.Location)
		set(&e.LinkedItems, patch.LinkedItems)
		if patch.Tags != nil {
			e.Tags = slices.Clone(patch.Tags)
		}
		return nil
	})
}

func (r *Repository) DeleteEvent(ctx context.Context, id string) error {
	return remove(ctx, r.c.Events, id)
}

// ListEvents returns events by start date.
func (r *Repository) ListEvents(ctx context.Context) ([]model.CalendarEvent, error) {
	return r.c.Events.List(ctx)
}
