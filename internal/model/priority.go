package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation      = errors.New("model: validation failed")
	ErrInvalidPriority = fmt.Errorf("%w: invalid priority", ErrValidation)
	ErrDuplicateTag    = fmt.Errorf("%w: duplicate tag", ErrValidation)
)

type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"

	DefaultPriority = PriorityP3
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3, PriorityP4:
		return true
	default:
		return false
	}
}

const (
	ColorRed     = "#ef4444"
	ColorAmber   = "#f59e0b"
	ColorBlue    = "#3b82f6"
	ColorGray    = "#6b7280"
	ColorEmerald = "#10b981"
)

// Color maps a priority onto the palette used for derived calendar events.
func (p Priority) Color() string {
	switch p {
	case PriorityP1:
		return ColorRed
	case PriorityP2:
		return ColorAmber
	case PriorityP3:
		return ColorBlue
	case PriorityP4:
		return ColorGray
	default:
		return ColorBlue
	}
}

func validatePriority(p Priority) error {
	if !p.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, p)
	}
	return nil
}

// NormalizeTags trims tags, drops empty ones and keeps the first occurrence of
// each tag. Comparison is case-sensitive.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func validateTags(tags []string) error {
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			return fmt.Errorf("%w: %q", ErrDuplicateTag, tag)
		}
		seen[tag] = true
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func requireTitle(kind, title string) error {
	if strings.TrimSpace(title) == "" {
		return invalidf("%s title is required", kind)
	}
	return nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("%s id is required", kind)
	}
	return nil
}

func validateStamps(kind string, created, updated time.Time) error {
	if created.IsZero() {
		return invalidf("%s createdAt is required", kind)
	}
	if updated.Before(created) {
		return invalidf("%s updatedAt precedes createdAt", kind)
	}
	return nil
}
