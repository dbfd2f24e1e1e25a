package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	for _, driver := range []string{DriverCGO, DriverPure} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			db, err := sql.Open(driver, filepath.Join(t.TempDir(), "migrate-"+driver+".db"))
			if err != nil {
				t.Fatalf("open db: %v", err)
			}
			defer db.Close()

			steps := []struct {
				name string
				run  func(context.Context, *sql.DB) error
			}{
				{"up", MigrateUp},
				{"up again", MigrateUp},
				{"down", MigrateDown},
				{"up after down", MigrateUp},
			}
			for _, step := range steps {
				if err := step.run(ctx, db); err != nil {
					t.Fatalf("migrate %s: %v", step.name, err)
				}
			}

			s, err := New(db)
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
			if err := s.Tasks.Add(ctx, newTask("task-rt-1", "Roundtrip task", now)); err != nil {
				t.Fatalf("insert after roundtrip: %v", err)
			}
			got, err := s.Tasks.Get(ctx, "task-rt-1")
			if err != nil {
				t.Fatalf("get after roundtrip: %v", err)
			}
			if got.Title != "Roundtrip task" {
				t.Fatalf("unexpected title after roundtrip: %q", got.Title)
			}
		})
	}
}
