package model

import (
	"math"
	"slices"
	"strings"
	"time"
)

const DefaultGoalCategory = "personal"

type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	TargetValue float64    `json:"targetValue"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type Goal struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description,omitempty"`
	Category          string      `json:"category"`
	TargetValue       *float64    `json:"targetValue,omitempty"`
	CurrentValue      float64     `json:"currentValue"`
	Unit              string      `json:"unit,omitempty"`
	StartDate         *time.Time  `json:"startDate,omitempty"`
	Deadline          *time.Time  `json:"deadline,omitempty"`
	Priority          Priority    `json:"priority"`
	IsHabit           bool        `json:"isHabit"`
	StreakCount       int         `json:"streakCount"`
	LastCompletedDate *time.Time  `json:"lastCompletedDate,omitempty"`
	Milestones        []Milestone `json:"milestones"`
	Tags              []string    `json:"tags"`
	Location          string      `json:"location,omitempty"`
	LinkedItems       LinkedItems `json:"linkedItems"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

func (g *Goal) Normalize() {
	g.Title = strings.TrimSpace(g.Title)
	g.Category = strings.TrimSpace(g.Category)
	if g.Category == "" {
		g.Category = DefaultGoalCategory
	}
	if g.Priority == "" {
		g.Priority = DefaultPriority
	}
	g.Tags = NormalizeTags(g.Tags)
	if g.Milestones == nil {
		g.Milestones = []Milestone{}
	}
	g.LinkedItems = g.LinkedItems.Normalized()
}

func (g Goal) Validate() error {
	if err := requireID("goal", g.ID); err != nil {
		return err
	}
	if err := requireTitle("goal", g.Title); err != nil {
		return err
	}
	if err := validatePriority(g.Priority); err != nil {
		return err
	}
	if err := validateTags(g.Tags); err != nil {
		return err
	}
	if g.CurrentValue < 0 || math.IsNaN(g.CurrentValue) {
		return invalidf("goal currentValue must be >= 0, got %v", g.CurrentValue)
	}
	if g.TargetValue != nil && (*g.TargetValue <= 0 || math.IsNaN(*g.TargetValue)) {
		return invalidf("goal targetValue must be > 0, got %v", *g.TargetValue)
	}
	if g.StreakCount < 0 {
		return invalidf("goal streakCount must be >= 0, got %d", g.StreakCount)
	}
	for i, m := range g.Milestones {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Title) == "" {
			return invalidf("milestone %d requires id and title", i)
		}
	}
	return validateStamps("goal", g.CreatedAt, g.UpdatedAt)
}

// Completed reports whether a target goal reached its target. Habits never
// complete.
func (g Goal) Completed() bool {
	return !g.IsHabit && g.TargetValue != nil && g.CurrentValue >= *g.TargetValue
}

// Progress is currentValue as a percentage of targetValue, 0 without a target.
func (g Goal) Progress() float64 {
	if g.TargetValue == nil || *g.TargetValue <= 0 {
		return 0
	}
	return g.CurrentValue / *g.TargetValue * 100
}

// SyncMilestones marks every milestone whose target the current value reached.
func (g *Goal) SyncMilestones(now time.Time) bool {
	changed := false
	for i := range g.Milestones {
		m := &g.Milestones[i]
		if m.Completed || g.CurrentValue < m.TargetValue {
			continue
		}
		at := now
		m.Completed = true
		m.CompletedAt = &at
		changed = true
	}
	return changed
}

func (g Goal) Clone() Goal {
	out := g
	if g.TargetValue != nil {
		v := *g.TargetValue
		out.TargetValue = &v
	}
	out.StartDate = copyTime(g.StartDate)
	out.Deadline = copyTime(g.Deadline)
	out.LastCompletedDate = copyTime(g.LastCompletedDate)
	out.Milestones = make([]Milestone, len(g.Milestones))
	for i, m := range g.Milestones {
		m.CompletedAt = copyTime(m.CompletedAt)
		out.Milestones[i] = m
	}
	out.Tags = slices.Clone(g.Tags)
	out.LinkedItems = g.LinkedItems.Normalized()
	return out
}
