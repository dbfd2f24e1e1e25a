package model

import "time"

// SettingsID is the fixed key of the settings singleton.
const SettingsID = "1"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type Notifications struct {
	Enabled        bool `json:"enabled"`
	TaskReminders  bool `json:"taskReminders"`
	GoalMilestones bool `json:"goalMilestones"`
	DailyDigest    bool `json:"dailyDigest"`
}

type Privacy struct {
	PinLock   bool   `json:"pinLock"`
	Pin       string `json:"pin,omitempty"`
	Biometric bool   `json:"biometric"`
}

type Settings struct {
	ID             string        `json:"id"`
	Theme          Theme         `json:"theme"`
	Language       string        `json:"language"`
	DateFormat     string        `json:"dateFormat"`
	TimeFormat     string        `json:"timeFormat"`
	FirstDayOfWeek int           `json:"firstDayOfWeek"`
	Notifications  Notifications `json:"notifications"`
	Privacy        Privacy       `json:"privacy"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func DefaultSettings(now time.Time) Settings {
	return Settings{
		ID:             SettingsID,
		Theme:          ThemeSystem,
		Language:       "en",
		DateFormat:     "MM/dd/yyyy",
		TimeFormat:     "12h",
		FirstDayOfWeek: 0,
		Notifications: Notifications{
			Enabled:        true,
			TaskReminders:  true,
			GoalMilestones: true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RemindersEnabled reports whether reminder dispatch is switched on.
func (s Settings) RemindersEnabled() bool {
	return s.Notifications.Enabled && s.Notifications.TaskReminders
}

func (s Settings) Validate() error {
	if s.ID != SettingsID {
		return invalidf("settings id must be %q, got %q", SettingsID, s.ID)
	}
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return invalidf("invalid theme %q", s.Theme)
	}
	switch s.TimeFormat {
	case "12h", "24h":
	default:
		return invalidf("invalid time format %q", s.TimeFormat)
	}
	if s.FirstDayOfWeek < 0 || s.FirstDayOfWeek > 6 {
		return invalidf("firstDayOfWeek must be 0..6, got %d", s.FirstDayOfWeek)
	}
	if s.Privacy.PinLock && s.Privacy.Pin == "" {
		return invalidf("pin lock requires a pin")
	}
	return validateStamps("settings", s.CreatedAt, s.UpdatedAt)
}

func (s *Settings) Normalize() {
	if s.ID == "" {
		s.ID = SettingsID
	}
	if s.Theme == "" {
		s.Theme = ThemeSystem
	}
	if s.TimeFormat == "" {
		s.TimeFormat = "12h"
	}
}
