package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Completed   bool        `json:"completed"`
	Priority    Priority    `json:"priority"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	ProjectID   string      `json:"project,omitempty"`
	Tags        []string    `json:"tags"`
	Location    string      `json:"location,omitempty"`
	Recurrence  *Recurrence `json:"recurrence,omitempty"`
	Subtasks    []Subtask   `json:"subtasks"`
	LinkedItems LinkedItems `json:"linkedItems"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Normalize fills defaults and cleans collections in place before validation.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	t.Tags = NormalizeTags(t.Tags)
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	t.LinkedItems = t.LinkedItems.Normalized()
}

func (t Task) Validate() error {
	if err := requireID("task", t.ID); err != nil {
		return err
	}
	if err := requireTitle("task", t.Title); err != nil {
		return err
	}
	if err := validatePriority(t.Priority); err != nil {
		return err
	}
	if err := validateTags(t.Tags); err != nil {
		return err
	}
	if t.StartDate != nil && t.DueDate != nil && t.DueDate.Before(*t.StartDate) {
		return invalidf("task dueDate precedes startDate")
	}
	for i, st := range t.Subtasks {
		if strings.TrimSpace(st.ID) == "" || strings.TrimSpace(st.Title) == "" {
			return invalidf("subtask %d requires id and title", i)
		}
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return fmt.Errorf("task recurrence: %w", err)
		}
	}
	return validateStamps("task", t.CreatedAt, t.UpdatedAt)
}

// Clone returns a deep copy so snapshots never share mutable state.
func (t Task) Clone() Task {
	out := t
	out.DueDate = copyTime(t.DueDate)
	out.StartDate = copyTime(t.StartDate)
	out.Tags = slices.Clone(t.Tags)
	out.Subtasks = slices.Clone(t.Subtasks)
	out.LinkedItems = t.LinkedItems.Normalized()
	if t.Recurrence != nil {
		r := t.Recurrence.Clone()
		out.Recurrence = &r
	}
	return out
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const (
	InboxProjectID   = "inbox"
	DefaultColor     = ColorGray
	NoProjectLabel   = "No Project"
	inboxDescription = "Default project for tasks"
)

func InboxProject(now time.Time) Project {
	return Project{
		ID:          InboxProjectID,
		Name:        "Inbox",
		Color:       DefaultColor,
		Description: inboxDescription,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (p *Project) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.Color == "" {
		p.Color = DefaultColor
	}
}

func (p Project) Validate() error {
	if err := requireID("project", p.ID); err != nil {
		return err
	}
	if p.Name == "" {
		return invalidf("project name is required")
	}
	return validateStamps("project", p.CreatedAt, p.UpdatedAt)
}
