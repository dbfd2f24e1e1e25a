// Package derive keeps calendar events in step with task due dates and goal
// deadlines, and owns the habit streak rules.
package derive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/repository"
)

type Policy string

const (
	// PolicyAdditive only ever creates missing events.
	PolicyAdditive Policy = "additive"
	// PolicyRefresh also deletes or recreates engine-owned events whose
	// source changed, as long as the user has not edited them.
	PolicyRefresh Policy = "refresh"
)

func (p Policy) IsValid() bool {
	return p == PolicyAdditive || p == PolicyRefresh
}

type Option func(*Engine)

func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p.IsValid() {
			e.policy = p
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

type Engine struct {
	repo   *repository.Repository
	policy Policy
	loc    *time.Location
	logger *zap.Logger
}

func New(repo *repository.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		policy: PolicyAdditive,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy           { return e.policy }
func (e *Engine) Location() *time.Location { return e.loc }

// State is the slice of the collections derivation reads.
type State struct {
	Tasks  []model.Task
	Goals  []model.Goal
	Events []model.CalendarEvent
}

// Plan lists the writes one reconciliation pass needs.
type Plan struct {
	Create []model.CalendarEvent
	Delete []string
}

func (p Plan) Empty() bool { return len(p.Create) == 0 && len(p.Delete) == 0 }

type Result struct {
	Created []model.CalendarEvent
	Deleted []string
}

func (r Result) Changed() bool { return len(r.Created) > 0 || len(r.Deleted) > 0 }

// Plan computes the reconciliation for state without touching the store.
func (e *Engine) Plan(state State) Plan {
	tasks := make(map[string]model.Task, len(state.Tasks))
	for _, t := range state.Tasks {
		tasks[t.ID] = t
	}
	goals := make(map[string]model.Goal, len(state.Goals))
	for _, g := range state.Goals {
		goals[g.ID] = g
	}

	var plan Plan
	linkedTasks := make(map[string]bool)
	linkedGoals := make(map[string]bool)
	for _, ev := range state.Events {
		if !ev.IsDerived() {
			continue
		}
		if e.policy == PolicyRefresh && e.stale(ev, tasks, goals) {
			plan.Delete = append(plan.Delete, ev.ID)
			continue
		}
		for _, id := range ev.LinkedItems.Tasks {
			linkedTasks[id] = true
		}
		for _, id := range ev.LinkedItems.Goals {
			linkedGoals[id] = true
		}
	}

	for _, t := range state.Tasks {
		if linkedTasks[t.ID] {
			continue
		}
		if ev, ok := EventForTask(t); ok {
			plan.Create = append(plan.Create, ev)
			linkedTasks[t.ID] = true
		}
	}
	for _, g := range state.Goals {
		if linkedGoals[g.ID] {
			continue
		}
		if ev, ok := EventForGoal(g); ok {
			plan.Create = append(plan.Create, ev)
			linkedGoals[g.ID] = true
		}
	}
	return plan
}

// stale reports whether an engine-owned, unedited event no longer matches its
// source. Events the user changed since derivation are never stale.
func (e *Engine) stale(ev model.CalendarEvent, tasks map[string]model.Task, goals map[string]model.Goal) bool {
	d := ev.Derivation
	if d == nil || EventHash(ev) != d.EventHash {
		return false
	}
	var (
		want model.CalendarEvent
		ok   bool
	)
	switch {
	case strings.HasPrefix(d.Source, taskSource):
		if t, found := tasks[strings.TrimPrefix(d.Source, taskSource)]; found {
			want, ok = EventForTask(t)
		}
	case strings.HasPrefix(d.Source, goalSource):
		if g, found := goals[strings.TrimPrefix(d.Source, goalSource)]; found {
			want, ok = EventForGoal(g)
		}
	default:
		return false
	}
	return !ok || want.Derivation.SourceHash != d.SourceHash
}

// Reconcile applies the plan for state in a single transaction.
func (e *Engine) Reconcile(ctx context.Context, state State) (Result, error) {
	plan := e.Plan(state)
	if plan.Empty() {
		return Result{}, nil
	}
	var res Result
	err := e.repo.InTx(ctx, func(tx *repository.Repository) error {
		for _, id := range plan.Delete {
			if err := tx.DeleteEvent(ctx, id); err != nil {
				return fmt.Errorf("delete derived event %s: %w", id, err)
			}
		}
		for _, ev := range plan.Create {
			created, err := tx.CreateEvent(ctx, ev)
			if err != nil {
				return fmt.Errorf("create derived event %q: %w", ev.Title, err)
			}
			res.Created = append(res.Created, created)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Deleted = plan.Delete
	e.logger.Info("derived events reconciled",
		zap.Int("created", len(res.Created)),
		zap.Int("deleted", len(res.Deleted)),
		zap.String("policy", string(e.policy)),
	)
	return res, nil
}

// Backfill loads the current collections and reconciles them.
func (e *Engine) Backfill(ctx context.Context) (Result, error) {
	var state State
	var err error
	if state.Tasks, err = e.repo.ListTasks(ctx, repository.TaskFilter{}); err != nil {
		return Result{}, err
	}
	if state.Goals, err = e.repo.ListGoals(ctx); err != nil {
		return Result{}, err
	}
	if state.Events, err = e.repo.ListEvents(ctx); err != nil {
		return Result{}, err
	}
	return e.Reconcile(ctx, state)
}
