// Package transfer moves the whole dataset in and out of the store as one JSON
// document.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/storage"
)

var ErrImportFormat = errors.New("transfer: malformed import document")

type Document struct {
	Tasks          []model.Task          `json:"tasks"`
	Projects       []model.Project       `json:"projects"`
	Goals          []model.Goal          `json:"goals"`
	Reminders      []model.Reminder      `json:"reminders"`
	CalendarEvents []model.CalendarEvent `json:"calendarEvents"`
	Settings       []model.Settings      `json:"settings"`
	ExportDate     string                `json:"exportDate"`
}

// Snapshot reads every collection inside one transaction.
func Snapshot(ctx context.Context, store *storage.Store, now time.Time) (Document, error) {
	var doc Document
	err := store.Tx(ctx, func(c storage.Collections) error {
		var err error
		if doc.Tasks, err = c.Tasks.List(ctx); err != nil {
			return err
		}
		if doc.Projects, err = c.Projects.List(ctx); err != nil {
			return err
		}
		if doc.Goals, err = c.Goals.List(ctx); err != nil {
			return err
		}
		if doc.Reminders, err = c.Reminders.List(ctx); err != nil {
			return err
		}
		if doc.CalendarEvents, err = c.Events.List(ctx); err != nil {
			return err
		}
		doc.Settings, err = c.Settings.List(ctx)
		return err
	})
	if err != nil {
		return Document{}, err
	}
	doc.ExportDate = now.UTC().Format(time.RFC3339)
	return doc, nil
}

// Export writes the dataset as indented JSON.
func Export(ctx context.Context, store *storage.Store, w io.Writer, now time.Time) error {
	doc, err := Snapshot(ctx, store, now)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Decode parses and validates an import document without touching the store.
func Decode(r io.Reader) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrImportFormat, err)
	}
	if raw == nil {
		return Document{}, fmt.Errorf("%w: document must be a JSON object", ErrImportFormat)
	}

	var doc Document
	fields := []struct {
		key string
		dst any
	}{
		{"tasks", &doc.Tasks},
		{"projects", &doc.Projects},
		{"goals", &doc.Goals},
		{"reminders", &doc.Reminders},
		{"calendarEvents", &doc.CalendarEvents},
		{"settings", &doc.Settings},
		{"exportDate", &doc.ExportDate},
	}
	for _, f := range fields {
		msg, ok := raw[f.key]
		if !ok || string(msg) == "null" {
			continue
		}
		if err := json.Unmarshal(msg, f.dst); err != nil {
			return Document{}, fmt.Errorf("%w: %s: %w", ErrImportFormat, f.key, err)
		}
	}
	if doc.ExportDate != "" {
		if _, err := time.Parse(time.RFC3339, doc.ExportDate); err != nil {
			return Document{}, fmt.Errorf("%w: exportDate: %w", ErrImportFormat, err)
		}
	}
	if err := doc.validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (d *Document) validate() error {
	for i := range d.Tasks {
		d.Tasks[i].Normalize()
		if err := d.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("%w: tasks[%d]: %w", ErrImportFormat, i, err)
		}
	}
	for i := range d.Projects {
		d.Projects[i].Normalize()
		if err := d.Projects[i].Validate(); err != nil {
			return fmt.Errorf("%w: projects[%d]: %w", ErrImportFormat, i, err)
		}
	}
	for i := range d.Goals {
		d.Goals[i].Normalize()
		if err := d.Goals[i].Validate(); err != nil {
			return fmt.Errorf("%w: goals[%d]: %w", ErrImportFormat, i, err)
		}
	}
	for i := range d.Reminders {
		d.Reminders[i].Normalize()
		if err := d.Reminders[i].Validate(); err != nil {
			return fmt.Errorf("%w: reminders[%d]: %w", ErrImportFormat, i, err)
		}
	}
	for i := range d.CalendarEvents {
		d.CalendarEvents[i].Normalize()
		if err := d.CalendarEvents[i].Validate(); err != nil {
			return fmt.Errorf("%w: calendarEvents[%d]: %w", ErrImportFormat, i, err)
		}
	}
	for i := range d.Settings {
		d.Settings[i].Normalize()
		if err := d.Settings[i].Validate(); err != nil {
			return fmt.Errorf("%w: settings[%d]: %w", ErrImportFormat, i, err)
		}
	}
	return nil
}

// Import decodes r and adds every record in one transaction. Ids already in
// the store make the whole import fail with storage.ErrConflict. The settings
// singleton is replaced rather than added.
func Import(ctx context.Context, store *storage.Store, r io.Reader) (Document, error) {
	doc, err := Decode(r)
	if err != nil {
		return Document{}, err
	}
	err = store.Tx(ctx, func(c storage.Collections) error {
		if err := c.Tasks.BulkAdd(ctx, doc.Tasks); err != nil {
			return err
		}
		if err := c.Projects.BulkAdd(ctx, doc.Projects); err != nil {
			return err
		}
		if err := c.Goals.BulkAdd(ctx, doc.Goals); err != nil {
			return err
		}
		if err := c.Reminders.BulkAdd(ctx, doc.Reminders); err != nil {
			return err
		}
		if err := c.Events.BulkAdd(ctx, doc.CalendarEvents); err != nil {
			return err
		}
		for _, s := range doc.Settings {
			if err := c.Settings.Upsert(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Reset clears every collection except settings in one transaction.
func Reset(ctx context.Context, store *storage.Store) error {
	return store.Tx(ctx, func(c storage.Collections) error {
		for _, clear := range []func(context.Context) error{
			c.Tasks.Clear,
			c.Projects.Clear,
			c.Goals.Clear,
			c.Reminders.Clear,
			c.Events.Clear,
		} {
			if err := clear(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d Document) Counts() map[string]int {
	return map[string]int{
		"tasks":          len(d.Tasks),
		"projects":       len(d.Projects),
		"goals":          len(d.Goals),
		"reminders":      len(d.Reminders),
		"calendarEvents": len(d.CalendarEvents),
		"settings":       len(d.Settings),
	}
}
