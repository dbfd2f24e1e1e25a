// Package coordinator owns the in-memory snapshot of the dataset. It reloads
// the store on a timer or on demand, runs derivation, recomputes analytics and
// publishes the result to subscribers.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/flowd/internal/analytics"
	"github.com/sandeepkv93/flowd/internal/derive"
	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/repository"
	"github.com/sandeepkv93/flowd/internal/scheduler"
	"github.com/sandeepkv93/flowd/internal/storage"
	"github.com/sandeepkv93/flowd/internal/transfer"
)

const (
	DefaultInterval = 30 * time.Second
	errorBuffer     = 16
)

// Snapshot is an immutable view of every collection plus derived rollups.
// Consumers must not modify the slices.
type Snapshot struct {
	Version   uint64
	Reason    string
	SyncedAt  time.Time
	Tasks     []model.Task
	Projects  []model.Project
	Goals     []model.Goal
	Reminders []model.Reminder
	Events    []model.CalendarEvent
	Settings  model.Settings
	Analytics analytics.Snapshot
	Agenda    analytics.Agenda
}

func (s Snapshot) Input() analytics.Input {
	return analytics.Input{Tasks: s.Tasks, Projects: s.Projects, Goals: s.Goals, Reminders: s.Reminders}
}

type Options struct {
	Interval time.Duration
	Location *time.Location
	Logger   *zap.Logger
	// WatchPath enables the store file watcher when set.
	WatchPath string
	// ReminderBuffer enables reminder dispatch when positive.
	ReminderBuffer int
}

type Coordinator struct {
	repo   *repository.Repository
	engine *derive.Engine
	opts   Options
	logger *zap.Logger

	syncMu   sync.Mutex
	inFlight atomic.Bool
	version  uint64

	mu    sync.RWMutex
	snap  Snapshot
	ready bool

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	triggers chan string
	errs     chan error

	reminders *scheduler.Engine
	watcher   *StoreWatcher

	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func New(repo *repository.Repository, engine *derive.Engine, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Location == nil {
		opts.Location = engine.Location()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Coordinator{
		repo:     repo,
		engine:   engine,
		opts:     opts,
		logger:   opts.Logger,
		subs:     make(map[int]chan Snapshot),
		triggers: make(chan string, 1),
		errs:     make(chan error, errorBuffer),
	}
	if opts.ReminderBuffer > 0 {
		c.reminders = scheduler.NewEngine(opts.ReminderBuffer)
	}
	return c
}

// Init bootstraps defaults and runs the first sync on the caller's goroutine.
func (c *Coordinator) Init(ctx context.Context) error {
	if err := c.repo.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("ensure defaults: %w", err)
	}
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	_, err := c.syncLocked(ctx, "init")
	return err
}

// Start launches the periodic loop, the store watcher and reminder dispatch.
func (c *Coordinator) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.cancel != nil || c.stopped {
		return nil
	}
	if c.opts.WatchPath != "" {
		w, err := NewStoreWatcher(c.opts.WatchPath, 0, c.logger, func() { c.Trigger("store-changed") })
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			w.Close()
			return fmt.Errorf("watch store: %w", err)
		}
		c.watcher = w
	}
	if c.reminders != nil {
		c.reminders.Start()
		c.scheduleReminders(c.Snapshot())
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.loop(loopCtx)
	return nil
}

// Stop cancels the loop and waits for an in-flight sync to finish. Subscriber
// channels and the reminder channel are closed afterwards.
func (c *Coordinator) Stop() {
	c.lifeMu.Lock()
	if c.stopped {
		c.lifeMu.Unlock()
		return
	}
	c.stopped = true
	cancel, done, watcher := c.cancel, c.done, c.watcher
	c.lifeMu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
	if cancel != nil {
		cancel()
		<-done
	}
	c.syncMu.Lock()
	if c.reminders != nil {
		c.reminders.Stop()
	}
	c.syncMu.Unlock()

	c.subsMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()
}

func (c *Coordinator) loop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.trySync(ctx, "tick")
		case reason := <-c.triggers:
			c.trySync(ctx, reason)
		}
	}
}

// trySync skips when another sync holds the lock. The sync itself runs
// detached from ctx so cancellation never interrupts a reload mid-way.
func (c *Coordinator) trySync(ctx context.Context, reason string) {
	if !c.syncMu.TryLock() {
		c.logger.Debug("sync coalesced", zap.String("reason", reason))
		return
	}
	defer c.syncMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	_, _ = c.syncLocked(context.WithoutCancel(ctx), reason)
}

// Trigger requests a sync. It is dropped when one is running or already
// queued.
func (c *Coordinator) Trigger(reason string) {
	if c.inFlight.Load() {
		c.logger.Debug("sync coalesced", zap.String("reason", reason))
		return
	}
	select {
	case c.triggers <- reason:
	default:
	}
}

// Foreground is the visibility-regain signal.
func (c *Coordinator) Foreground() { c.Trigger("foreground") }

// Sync runs a full pass now, waiting for any running one first.
func (c *Coordinator) Sync(ctx context.Context) (Snapshot, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.syncLocked(ctx, "manual")
}

func (c *Coordinator) syncLocked(ctx context.Context, reason string) (Snapshot, error) {
	c.inFlight.Store(true)
	defer c.inFlight.Store(false)

	start := time.Now()
	snap, err := c.build(ctx, reason)
	if err != nil {
		c.report(reason, err)
		return c.Snapshot(), err
	}
	c.publish(snap)
	c.scheduleReminders(snap)
	c.logger.Debug("sync complete",
		zap.String("reason", reason),
		zap.Uint64("version", snap.Version),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

func (c *Coordinator) build(ctx context.Context, reason string) (Snapshot, error) {
	snap, err := c.reload(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	res, err := c.engine.Reconcile(ctx, derive.State{Tasks: snap.Tasks, Goals: snap.Goals, Events: snap.Events})
	if err != nil {
		return Snapshot{}, fmt.Errorf("reconcile: %w", err)
	}
	if res.Changed() {
		if snap.Events, err = c.repo.ListEvents(ctx); err != nil {
			return Snapshot{}, fmt.Errorf("reload events: %w", err)
		}
	}

	now := c.repo.Now()
	in := snap.Input()
	snap.Analytics = analytics.Compute(in, now, c.opts.Location)
	snap.Agenda = analytics.BuildAgenda(in, now, c.opts.Location)
	snap.SyncedAt = now
	snap.Reason = reason
	c.version++
	snap.Version = c.version
	return snap, nil
}

func (c *Coordinator) reload(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Tasks, err = c.repo.ListTasks(gctx, repository.TaskFilter{})
		return err
	})
	g.Go(func() (err error) {
		snap.Projects, err = c.repo.ListProjects(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Goals, err = c.repo.ListGoals(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Reminders, err = c.repo.ListReminders(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Events, err = c.repo.ListEvents(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Settings, err = c.repo.GetSettings(gctx)
		if errors.Is(err, repository.ErrNotFound) {
			snap.Settings, err = model.DefaultSettings(c.repo.Now()), nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("reload: %w", err)
	}
	return snap, nil
}

func (c *Coordinator) report(reason string, err error) {
	fields := []zap.Field{zap.String("reason", reason), zap.Error(err)}
	if storage.IsStoreIO(err) {
		c.logger.Error("sync failed, keeping last snapshot", fields...)
	} else {
		c.logger.Warn("sync failed", fields...)
	}
	select {
	case c.errs <- err:
	default:
	}
}

func (c *Coordinator) publish(snap Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.ready = true
	c.mu.Unlock()

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		offer(ch, snap)
	}
}

// offer replaces any unread value so subscribers only ever see the latest.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Snapshot returns the last published snapshot.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Subscribe returns a channel that always holds the newest snapshot and a
// function that unsubscribes. The current snapshot is delivered immediately
// when one exists.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subsMu.Unlock()

	if snap, ok := c.current(); ok {
		c.subsMu.Lock()
		if _, live := c.subs[id]; live {
			offer(ch, snap)
		}
		c.subsMu.Unlock()
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

func (c *Coordinator) current() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.ready
}

// Errors reports sync failures. Errors are dropped when nobody reads.
func (c *Coordinator) Errors() <-chan error { return c.errs }

// Reminders delivers reminders as they come due. It is nil when dispatch is
// disabled.
func (c *Coordinator) Reminders() <-chan scheduler.Due {
	if c.reminders == nil {
		return nil
	}
	return c.reminders.C()
}

func (c *Coordinator) scheduleReminders(snap Snapshot) {
	if c.reminders == nil {
		return
	}
	var set []scheduler.Due
	if snap.Settings.RemindersEnabled() {
		now := c.repo.Now()
		for _, r := range snap.Reminders {
			if r.Completed || !r.DueDate.After(now) {
				continue
			}
			set = append(set, scheduler.Due{
				ReminderID: r.ID,
				Title:      r.Title,
				Priority:   string(r.Priority),
				DueAt:      r.DueDate,
			})
		}
	}
	if err := c.reminders.Replace(set); err != nil && !errors.Is(err, scheduler.ErrStopped) {
		c.logger.Warn("reminder schedule failed", zap.Error(err))
	}
}

// mutate runs write and a full sync under the sync lock so the returned
// snapshot already reflects the write. Only write errors reach the caller; a
// failed sync after a committed write is reported on Errors() and the last
// good snapshot is returned.
func (c *Coordinator) mutate(ctx context.Context, reason string, write func(context.Context) error) (Snapshot, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	if err := write(ctx); err != nil {
		return c.Snapshot(), err
	}
	snap, _ := c.syncLocked(ctx, reason)
	return snap, nil
}

func (c *Coordinator) CreateTask(ctx context.Context, in model.Task) (model.Task, Snapshot, error) {
	var out model.Task
	snap, err := c.mutate(ctx, "create-task", func(ctx context.Context) (err error) {
		out, _, err = c.engine.CreateTaskWithEvent(ctx, in)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) UpdateTask(ctx context.Context, id string, patch repository.TaskPatch) (model.Task, Snapshot, error) {
	var out model.Task
	snap, err := c.mutate(ctx, "update-task", func(ctx context.Context) (err error) {
		out, err = c.repo.UpdateTask(ctx, id, patch)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) ToggleTask(ctx context.Context, id string) (model.Task, Snapshot, error) {
	var out model.Task
	snap, err := c.mutate(ctx, "toggle-task", func(ctx context.Context) (err error) {
		out, err = c.repo.ToggleTaskCompletion(ctx, id)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) DeleteTask(ctx context.Context, id string) (Snapshot, error) {
	return c.mutate(ctx, "delete-task", func(ctx context.Context) error {
		return c.repo.DeleteTask(ctx, id)
	})
}

func (c *Coordinator) CreateProject(ctx context.Context, in model.Project) (model.Project, Snapshot, error) {
	var out model.Project
	snap, err := c.mutate(ctx, "create-project", func(ctx context.Context) (err error) {
		out, err = c.repo.CreateProject(ctx, in)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) CreateGoal(ctx context.Context, in model.Goal) (model.Goal, Snapshot, error) {
	var out model.Goal
	snap, err := c.mutate(ctx, "create-goal", func(ctx context.Context) (err error) {
		out, _, err = c.engine.CreateGoalWithEvent(ctx, in)
		return err
	})
	return out, snap, err
}

// UpdateGoalProgress sets the goal's current value, applying the streak rules.
func (c *Coordinator) UpdateGoalProgress(ctx context.Context, id string, value float64) (model.Goal, Snapshot, error) {
	var out model.Goal
	snap, err := c.mutate(ctx, "goal-progress", func(ctx context.Context) (err error) {
		out, err = c.engine.RecordProgress(ctx, id, value)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) IncrementGoal(ctx context.Context, id string, delta float64) (model.Goal, Snapshot, error) {
	var out model.Goal
	snap, err := c.mutate(ctx, "goal-progress", func(ctx context.Context) (err error) {
		out, err = c.engine.IncrementProgress(ctx, id, delta)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) CreateReminder(ctx context.Context, in model.Reminder) (model.Reminder, Snapshot, error) {
	var out model.Reminder
	snap, err := c.mutate(ctx, "create-reminder", func(ctx context.Context) (err error) {
		out, err = c.repo.CreateReminder(ctx, in)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) CreateEvent(ctx context.Context, in model.CalendarEvent) (model.CalendarEvent, Snapshot, error) {
	var out model.CalendarEvent
	snap, err := c.mutate(ctx, "create-event", func(ctx context.Context) (err error) {
		out, err = c.repo.CreateEvent(ctx, in)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) QuickAdd(ctx context.Context, q model.QuickAdd) (repository.QuickAdded, Snapshot, error) {
	var out repository.QuickAdded
	snap, err := c.mutate(ctx, "quick-add", func(ctx context.Context) (err error) {
		out, _, err = c.engine.QuickAdd(ctx, q)
		return err
	})
	return out, snap, err
}

func (c *Coordinator) UpdateSettings(ctx context.Context, fn func(*model.Settings)) (Snapshot, error) {
	return c.mutate(ctx, "settings", func(ctx context.Context) error {
		_, err := c.repo.UpdateSettings(ctx, fn)
		return err
	})
}

// Export writes the current store contents, not the cached snapshot.
func (c *Coordinator) Export(ctx context.Context, w io.Writer) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return transfer.Export(ctx, c.repo.Store(), w, c.repo.Now())
}

func (c *Coordinator) Import(ctx context.Context, r io.Reader) (transfer.Document, Snapshot, error) {
	var doc transfer.Document
	snap, err := c.mutate(ctx, "import", func(ctx context.Context) (err error) {
		doc, err = transfer.Import(ctx, c.repo.Store(), r)
		return err
	})
	return doc, snap, err
}

func (c *Coordinator) Reset(ctx context.Context) (Snapshot, error) {
	return c.mutate(ctx, "reset", func(ctx context.Context) error {
		return transfer.Reset(ctx, c.repo.Store())
	})
}
