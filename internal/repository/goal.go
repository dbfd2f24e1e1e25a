package repository

import (
	"context"
	"slices"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

// GoalPatch edits a goal's definition. Progress goes through the derivation
// engine so streaks stay consistent.
type GoalPatch struct {
	Title         *string
	Description   *string
	Category      *string
	TargetValue   *float64
	ClearTarget   bool
	Unit          *string
	StartDate     *time.Time
	Deadline      *time.Time
	ClearDeadline bool
	Priority      *model.Priority
	IsHabit       *bool
	Milestones    []model.Milestone
	Tags          []string
	Location      *string
	LinkedItems   *model.LinkedItems
}

func (p GoalPatch) apply(g *model.Goal) {
	set(&g.Title, p.Title)
	set(&g.Description, p.Description)
	set(&g.Category, p.Category)
	switch {
	case p.ClearTarget:
		g.TargetValue = nil
	case p.TargetValue != nil:
		v := *p.TargetValue
		g.TargetValue = &v
	}
	set(&g.Unit, p.Unit)
	setTime(&g.StartDate, p.StartDate, false)
	setTime(&g.Deadline, p.Deadline, p.ClearDeadline)
	set(&g.Priority, p.Priority)
	set(&g.IsHabit, p.IsHabit)
	set(&g.Location, p.Location)
	set(&g.LinkedItems, p.LinkedItems)
	if p.Milestones != nil {
		g.Milestones = slices.Clone(p.Milestones)
	}
	if p.Tags != nil {
		g.Tags = slices.Clone(p.Tags)
	}
}

func (r *Repository) CreateGoal(ctx context.Context, in model.Goal) (model.Goal, error) {
	now := r.Now()
	g := in.Clone()
	g.ID = r.newID()
	g.CreatedAt, g.UpdatedAt = now, now
	for i := range g.Milestones {
		if g.Milestones[i].ID == "" {
			g.Milestones[i].ID = r.newID()
		}
	}
	g.SyncMilestones(now)
	return insert(ctx, r.c.Goals, g)
}

func (r *Repository) GetGoal(ctx context.Context, id string) (model.Goal, error) {
	return get(ctx, r.c.Goals, id)
}

func (r *Repository) UpdateGoal(ctx context.Context, id string, patch GoalPatch) (model.Goal, error) {
	now := r.Now()
	return mutate(ctx, r.c.Goals, id, now, func(g *model.Goal) error {
		patch.apply(g)
		for i := range g.Milestones {
			if g.Milestones[i].ID == "" {
				g.Milestones[i].ID = r.newID()
			}
		}
		g.SyncMilestones(now)
		return nil
	})
}

// MutateGoal applies fn to the stored goal and saves the result. It is the
// hook the derivation engine uses for progress and streak changes.
func (r *Repository) MutateGoal(ctx context.Context, id string, fn func(*model.Goal) error) (model.Goal, error) {
	return mutate(ctx, r.c.Goals, id, r.Now(), fn)
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	return remove(ctx, r.c.Goals, id)
}

// ListGoals returns goals newest first.
func (r *Repository) ListGoals(ctx context.Context) ([]model.Goal, error) {
	return r.c.Goals.List(ctx)
}

type ProjectPatch struct {
	Name        *string
	Color       *string
	Description *string
}

func (r *Repository) CreateProject(ctx context.Context, in model.Project) (model.Project, error) {
	now := r.Now()
	p := in
	p.ID = r.newID()
	p.CreatedAt, p.UpdatedAt = now, now
	return insert(ctx, r.c.Projects, p)
}

func (r *Repository) GetProject(ctx context.Context, id string) (model.Project, error) {
	return get(ctx, r.c.Projects, id)
}

func (r *Repository) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (model.Project, error) {
	return mutate(ctx, r.c.Projects, id, r.Now(), func(p *model.Project) error {
		set(&p.Name, patch.Name)
		set(&p.Color, patch.Color)
		set(&p.Description, patch.Description)
		return nil
	})
}

func (r *Repository) DeleteProject(ctx context.Context, id string) error {
	return remove(ctx, r.c.Projects, id)
}

// ListProjects returns projects by name.
func (r *Repository) ListProjects(ctx context.Context) ([]model.Project, error) {
	return r.c.Projects.List(ctx)
}
