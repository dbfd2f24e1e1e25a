package transfer

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/repository"
	"github.com/sandeepkv93/flowd/internal/storage"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func openRepo(t *testing.T, name string) *repository.Repository {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.DriverCGO, filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return repository.New(s, repository.WithClock(func() time.Time { return now }))
}

func seed(t *testing.T, repo *repository.Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.EnsureDefaults(ctx))

	due := now.Add(48 * time.Hour)
	target := 10.0
	_, err := repo.CreateTask(ctx, model.Task{
		Title:    "Write report",
		DueDate:  &due,
		Tags:     []string{"work"},
		Subtasks: []model.Subtask{{Title: "outline"}},
		Recurrence: &model.Recurrence{
			Type:     model.RecurrenceWeekly,
			Interval: 1,
		},
	})
	require.NoError(t, err)
	_, err = repo.CreateGoal(ctx, model.Goal{Title: "Read books", TargetValue: &target, Unit: "books"})
	require.NoError(t, err)
	_, err = repo.CreateReminder(ctx, model.Reminder{Title: "Call mom", DueDate: due})
	require.NoError(t, err)
	_, err = repo.CreateEvent(ctx, model.CalendarEvent{Title: "Standup", StartDate: now, EndDate: now.Add(15 * time.Minute)})
	require.NoError(t, err)
}

func TestExportResetImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openRepo(t, "src.db")
	seed(t, src)

	before, err := Snapshot(ctx, src.Store(), now)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, src.Store(), &buf, now))
	assert.Contains(t, buf.String(), `"exportDate": "2025-03-01T12:00:00Z"`)
	assert.Contains(t, buf.String(), "\n  \"tasks\": [")

	require.NoError(t, Reset(ctx, src.Store()))
	cleared, err := Snapshot(ctx, src.Store(), now)
	require.NoError(t, err)
	assert.Empty(t, cleared.Tasks)
	assert.Empty(t, cleared.Projects, "reset does not recreate the inbox")
	assert.Len(t, cleared.Settings, 1)

	doc, err := Import(ctx, src.Store(), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Counts()["tasks"])

	after, err := Snapshot(ctx, src.Store(), now)
	require.NoError(t, err)
	if diff := cmp.Diff(before, after, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-before +after):\n%s", diff)
	}
}

func TestImportIntoFreshStore(t *testing.T) {
	ctx := context.Background()
	src := openRepo(t, "src.db")
	seed(t, src)

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, src.Store(), &buf, now))

	dst := openRepo(t, "dst.db")
	_, err := Import(ctx, dst.Store(), &buf)
	require.NoError(t, err)

	want, err := Snapshot(ctx, src.Store(), now)
	require.NoError(t, err)
	got, err := Snapshot(ctx, dst.Store(), now)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("import mismatch (-want +got):\n%s", diff)
	}
}

func TestImportDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, "dup.db")
	seed(t, repo)

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, repo.Store(), &buf, now))

	_, err := repo.CreateTask(ctx, model.Task{Title: "extra"})
	require.NoError(t, err)

	_, err = Import(ctx, repo.Store(), &buf)
	require.ErrorIs(t, err, storage.ErrConflict)

	tasks, err := repo.ListTasks(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"tasks": [`,
		"array root":    `[1, 2, 3]`,
		"null root":     `null`,
		"wrong type":    `{"tasks": {"id": "x"}}`,
		"bad date":      `{"tasks": [{"id": "t1", "title": "x", "priority": "P3", "createdAt": "yesterday"}]}`,
		"bad export":    `{"exportDate": "March"}`,
		"invalid task":  `{"tasks": [{"id": "t1", "title": "", "priority": "P3"}]}`,
		"bad priority":  `{"reminders": [{"id": "r1", "title": "x", "priority": "P9", "dueDate": "2025-01-01T00:00:00Z"}]}`,
		"event reverse": `{"calendarEvents": [{"id": "e1", "title": "x", "startDate": "2025-01-02T00:00:00Z", "endDate": "2025-01-01T00:00:00Z"}]}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrImportFormat), "got %v", err)
		})
	}
}

func TestDecodeMissingKeysAreEmpty(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"goals": null}`))
	require.NoError(t, err)
	for key, n := range doc.Counts() {
		assert.Zero(t, n, key)
	}
}
