package model

import (
	"slices"
	"strings"
	"time"
)

// Derivation is stamped on calendar events the derivation engine creates. The
// hashes let a later pass tell whether the source moved on and whether the
// user touched the event since.
type Derivation struct {
	Source     string `json:"source"`
	SourceHash uint64 `json:"sourceHash"`
	EventHash  uint64 `json:"eventHash"`
}

type CalendarEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	StartDate   time.Time   `json:"startDate"`
	EndDate     time.Time   `json:"endDate"`
	IsAllDay    bool        `json:"isAllDay"`
	Color       string      `json:"color"`
	Priority    Priority    `json:"priority"`
	Tags        []string    `json:"tags"`
	Location    string      `json:"location,omitempty"`
	LinkedItems LinkedItems `json:"linkedItems"`
	Derivation  *Derivation `json:"derivation,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (e *CalendarEvent) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	if e.Priority == "" {
		e.Priority = DefaultPriority
	}
	if e.Color == "" {
		e.Color = e.Priority.Color()
	}
	e.Tags = NormalizeTags(e.Tags)
	e.LinkedItems = e.LinkedItems.Normalized()
}

func (e CalendarEvent) Validate() error {
	if err := requireID("event", e.ID); err != nil {
		return err
	}
	if err := requireTitle("event", e.Title); err != nil {
		return err
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return invalidf("event startDate and endDate are required")
	}
	if e.EndDate.Before(e.StartDate) {
		return invalidf("event endDate precedes startDate")
	}
	if err := validatePriority(e.Priority); err != nil {
		return err
	}
	if err := validateTags(e.Tags); err != nil {
		return err
	}
	return validateStamps("event", e.CreatedAt, e.UpdatedAt)
}

// IsDerived reports whether the event back-references a task or goal.
func (e CalendarEvent) IsDerived() bool {
	return len(e.LinkedItems.Tasks) > 0 || len(e.LinkedItems.Goals) > 0
}

func (e CalendarEvent) Clone() CalendarEvent {
	out := e
	out.Tags = slices.Clone(e.Tags)
	out.LinkedItems = e.LinkedItems.Normalized()
	if e.Derivation != nil {
		d := *e.Derivation
		out.Derivation = &d
	}
	return out
}
