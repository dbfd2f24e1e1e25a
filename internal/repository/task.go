package repository

import (
	"context"
	"slices"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

// TaskPatch carries the fields to change. Nil pointers and nil slices leave a
// field untouched; the Clear flags unset optional fields.
type TaskPatch struct {
	Title           *string
	Description     *string
	Completed       *bool
	Priority        *model.Priority
	DueDate         *time.Time
	ClearDueDate    bool
	StartDate       *time.Time
	ClearStartDate  bool
	ProjectID       *string
	Tags            []string
	Location        *string
	Recurrence      *model.Recurrence
	ClearRecurrence bool
	Subtasks        []model.Subtask
	LinkedItems     *model.LinkedItems
}

func (p TaskPatch) apply(t *model.Task) {
	set(&t.Title, p.Title)
	set(&t.Description, p.Description)
	set(&t.Completed, p.Completed)
	set(&t.Priority, p.Priority)
	setTime(&t.DueDate, p.DueDate, p.ClearDueDate)
	setTime(&t.StartDate, p.StartDate, p.ClearStartDate)
	set(&t.ProjectID, p.ProjectID)
	set(&t.Location, p.Location)
	set(&t.LinkedItems, p.LinkedItems)
	if p.Tags != nil {
		t.Tags = slices.Clone(p.Tags)
	}
	if p.Subtasks != nil {
		t.Subtasks = slices.Clone(p.Subtasks)
	}
	switch {
	case p.ClearRecurrence:
		t.Recurrence = nil
	case p.Recurrence != nil:
		rec := p.Recurrence.Clone()
		t.Recurrence = &rec
	}
}

type TaskFilter struct {
	ProjectID string
	Completed *bool
	Tag       string
}

func (f TaskFilter) match(t model.Task) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Tag != "" && !slices.Contains(t.Tags, f.Tag) {
		return false
	}
	return true
}

// CreateTask stores a new task. Any id or timestamps on in are replaced.
func (r *Repository) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	now := r.Now()
	t := in.Clone()
	t.ID = r.newID()
	t.CreatedAt, t.UpdatedAt = now, now
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = r.newID()
		}
	}
	return insert(ctx, r.c.Tasks, t)
}

func (r *Repository) GetTask(ctx context.Context, id string) (model.Task, error) {
	return get(ctx, r.c.Tasks, id)
}

func (r *Repository) UpdateTask(ctx context.Context, id string, patch TaskPatch) (model.Task, error) {
	return mutate(ctx, r.c.Tasks, id, r.Now(), func(t *model.Task) error {
		patch.apply(t)
		return nil
	})
}

func (r *Repository) ToggleTaskCompletion(ctx context.Context, id string) (model.Task, error) {
	return mutate(ctx, r.c.Tasks, id, r.Now(), func(t *model.Task) error {
		t.Completed = !t.Completed
		return nil
	})
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	return remove(ctx, r.c.Tasks, id)
}

// ListTasks returns tasks newest first.
func (r *Repository) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	all, err := r.c.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	if filter == (TaskFilter{}) {
		return all, nil
	}
	out := all[:0]
	for _, t := range all {
		if filter.match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}
