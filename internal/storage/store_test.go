package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

var drivers = []string{DriverCGO, DriverPure}

func setupStore(t *testing.T, driver string) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "flowd-test.db")
	s, err := Open(context.Background(), driver, dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func newTask(id, title string, created time.Time) model.Task {
	task := model.Task{ID: id, Title: title, CreatedAt: created, UpdatedAt: created}
	task.Normalize()
	return task
}

func TestTaskCRUDAndOrder(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := setupStore(t, driver)
			ctx := context.Background()
			first := parseRFC3339(t, "2026-02-09T12:00:00Z")

			due := parseRFC3339(t, "2026-02-10T00:00:00Z")
			a := newTask("task-a", "Write schema", first)
			a.DueDate = &due
			b := newTask("task-b", "Review", first.Add(time.Hour))
			if err := s.Tasks.Add(ctx, a); err != nil {
				t.Fatalf("add task: %v", err)
			}
			if err := s.Tasks.Add(ctx, b); err != nil {
				t.Fatalf("add task: %v", err)
			}

			got, err := s.Tasks.Get(ctx, "task-a")
			if err != nil {
				t.Fatalf("get task: %v", err)
			}
			if got.Title != "Write schema" || got.DueDate == nil || !got.DueDate.Equal(due) {
				t.Fatalf("unexpected task: %+v", got)
			}

			list, err := s.Tasks.List(ctx)
			if err != nil {
				t.Fatalf("list tasks: %v", err)
			}
			if len(list) != 2 || list[0].ID != "task-b" || list[1].ID != "task-a" {
				t.Fatalf("expected newest first, got %v", ids(list))
			}

			got.Completed = true
			got.UpdatedAt = first.Add(2 * time.Hour)
			if err := s.Tasks.Put(ctx, got); err != nil {
				t.Fatalf("put task: %v", err)
			}
			got, _ = s.Tasks.Get(ctx, "task-a")
			if !got.Completed {
				t.Fatal("expected put to persist completion")
			}

			if err := s.Tasks.Delete(ctx, "task-a"); err != nil {
				t.Fatalf("delete task: %v", err)
			}
			if _, err := s.Tasks.Get(ctx, "task-a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := s.Tasks.Delete(ctx, "task-a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
			if err := s.Tasks.Put(ctx, newTask("missing", "x", first)); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on put of missing row, got %v", err)
			}
		})
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestCollectionOrders(t *testing.T) {
	s := setupStore(t, DriverCGO)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-09T12:00:00Z")

	for _, name := range []string{"Work", "Inbox", "Errands"} {
		p := model.Project{ID: name, Name: name, Color: model.ColorGray, CreatedAt: now, UpdatedAt: now}
		if err := s.Projects.Add(ctx, p); err != nil {
			t.Fatalf("add project: %v", err)
		}
	}
	projects, err := s.Projects.List(ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if projects[0].Name != "Errands" || projects[1].Name != "Inbox" || projects[2].Name != "Work" {
		t.Fatalf("projects not ordered by name: %+v", projects)
	}

	for i, offset := range []time.Duration{48 * time.Hour, time.Hour, 24 * time.Hour} {
		r := model.Reminder{ID: string(rune('a' + i)), Title: "r", DueDate: now.Add(offset), CreatedAt: now, UpdatedAt: now}
		r.Normalize()
		if err := s.Reminders.Add(ctx, r); err != nil {
			t.Fatalf("add reminder: %v", err)
		}
	}
	reminders, err := s.Reminders.List(ctx)
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if reminders[0].ID != "b" || reminders[1].ID != "c" || reminders[2].ID != "a" {
		t.Fatalf("reminders not ordered by due date: %v %v %v", reminders[0].ID, reminders[1].ID, reminders[2].ID)
	}
}

func TestTxRollsBackOnError(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := setupStore(t, driver)
			ctx := context.Background()
			now := parseRFC3339(t, "2026-02-09T12:00:00Z")

			boom := errors.New("boom")
			err := s.Tx(ctx, func(c Collections) error {
				if err := c.Tasks.Add(ctx, newTask("t1", "first", now)); err != nil {
					return err
				}
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			if n, _ := s.Tasks.Count(ctx); n != 0 {
				t.Fatalf("expected rollback to leave 0 tasks, got %d", n)
			}

			err = s.Tx(ctx, func(c Collections) error {
				return c.Tasks.BulkAdd(ctx, []model.Task{newTask("t1", "a", now), newTask("t2", "b", now)})
			})
			if err != nil {
				t.Fatalf("bulk add in tx: %v", err)
			}
			if n, _ := s.Tasks.Count(ctx); n != 2 {
				t.Fatalf("expected 2 tasks, got %d", n)
			}
		})
	}
}

func TestBulkAddConflictAbortsTransaction(t *testing.T) {
	s := setupStore(t, DriverCGO)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-09T12:00:00Z")

	if err := s.Tasks.Add(ctx, newTask("dup", "existing", now)); err != nil {
		t.Fatalf("add task: %v", err)
	}
	err := s.Tx(ctx, func(c Collections) error {
		return c.Tasks.BulkAdd(ctx, []model.Task{newTask("fresh", "new", now), newTask("dup", "clash", now)})
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.Tasks.Get(ctx, "fresh"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected fresh row to be rolled back, got %v", err)
	}
}

func TestClearAndUpsert(t *testing.T) {
	s := setupStore(t, DriverPure)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-09T12:00:00Z")

	settings := model.DefaultSettings(now)
	if err := s.Settings.Upsert(ctx, settings); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}
	settings.Theme = model.ThemeDark
	if err := s.Settings.Upsert(ctx, settings); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err := s.Settings.Get(ctx, model.SettingsID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.Theme != model.ThemeDark {
		t.Fatalf("expected upsert to replace, got theme %s", got.Theme)
	}

	if err := s.Tasks.Add(ctx, newTask("t1", "a", now)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Tasks.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, _ := s.Tasks.Count(ctx); n != 0 {
		t.Fatalf("expected empty collection after clear, got %d", n)
	}
	if n, _ := s.Settings.Count(ctx); n != 1 {
		t.Fatalf("clearing tasks must not touch settings, got %d", n)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "postgres", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
