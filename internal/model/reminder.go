package model

import (
	"slices"
	"strings"
	"time"
)

type Reminder struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	DueDate     time.Time   `json:"dueDate"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
	Completed   bool        `json:"completed"`
	Priority    Priority    `json:"priority"`
	Tags        []string    `json:"tags"`
	LinkedItems LinkedItems `json:"linkedItems"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (r *Reminder) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	if r.Priority == "" {
		r.Priority = DefaultPriority
	}
	r.Tags = NormalizeTags(r.Tags)
	r.LinkedItems = r.LinkedItems.Normalized()
}

func (r Reminder) Validate() error {
	if err := requireID("reminder", r.ID); err != nil {
		return err
	}
	if err := requireTitle("reminder", r.Title); err != nil {
		return err
	}
	if r.DueDate.IsZero() {
		return invalidf("reminder dueDate is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.DueDate) {
		return invalidf("reminder endDate precedes dueDate")
	}
	if err := validatePriority(r.Priority); err != nil {
		return err
	}
	if err := validateTags(r.Tags); err != nil {
		return err
	}
	return validateStamps("reminder", r.CreatedAt, r.UpdatedAt)
}

func (r Reminder) Clone() Reminder {
	out := r
	out.EndDate = copyTime(r.EndDate)
	out.Tags = slices.Clone(r.Tags)
	out.LinkedItems = r.LinkedItems.Normalized()
	return out
}
