package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/flowd/internal/coordinator"
	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/repository"
	"github.com/sandeepkv93/flowd/internal/scheduler"
)

type View string

const (
	ViewAgenda   View = "Agenda"
	ViewStats    View = "Stats"
	ViewEvents   View = "Events"
	ViewActivity View = "Activity"
)

const (
	maxNotifications = 40
	maxReminderLog   = 20
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Agenda   string
	Stats    string
	Events   string
	Activity string
	Sync     string
	Help     string
	Quit     string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Backend is the slice of the coordinator the dashboard drives.
type Backend interface {
	Subscribe() (<-chan coordinator.Snapshot, func())
	Errors() <-chan error
	Reminders() <-chan scheduler.Due
	Foreground()
	QuickAdd(ctx context.Context, q model.QuickAdd) (repository.QuickAdded, coordinator.Snapshot, error)
	ToggleTask(ctx context.Context, id string) (model.Task, coordinator.Snapshot, error)
	UpdateGoalProgress(ctx context.Context, id string, value float64) (model.Goal, coordinator.Snapshot, error)
	IncrementGoal(ctx context.Context, id string, delta float64) (model.Goal, coordinator.Snapshot, error)
}

type Options struct {
	Location       *time.Location
	Notifier       DesktopNotifier
	DesktopEnabled bool
	Now            func() time.Time
}

type Model struct {
	CurrentView    View
	Snapshot       coordinator.Snapshot
	HasSnapshot    bool
	Location       *time.Location
	Status         StatusBar
	Keys           GlobalKeyMap
	Palette        CommandPaletteState
	HelpVisible    bool
	ReminderLog    []scheduler.Due
	Notifications  []Notification
	DesktopEnabled bool
	Syncing        bool
	Quitting       bool
	LastError      error

	backend     Backend
	snapshots   <-chan coordinator.Snapshot
	unsubscribe func()
	notifier    DesktopNotifier
	now         func() time.Time

	syncSpinner  spinner.Model
	commandInput textinput.Model
	eventsTable  table.Model
	helpModel    help.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type SnapshotMsg struct {
	Snapshot coordinator.Snapshot
}

type SyncErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Due scheduler.Due
}

type CommandResultMsg struct {
	Message string
	Err     error
}

// NewModel subscribes to backend for the lifetime of the program.
func NewModel(backend Backend, opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Notifier == nil {
		opts.Notifier = NoopDesktopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		CurrentView:    ViewAgenda,
		Location:       opts.Location,
		DesktopEnabled: opts.DesktopEnabled,
		backend:        backend,
		notifier:       opts.Notifier,
		now:            opts.Now,
		Keys: GlobalKeyMap{
			Agenda:   "1",
			Stats:    "2",
			Events:   "3",
			Activity: "4",
			Sync:     "r",
			Help:     "?",
			Quit:     "q",
		},
	}
	if backend != nil {
		m.snapshots, m.unsubscribe = backend.Subscribe()
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	cols := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Time", Width: 5},
		{Title: "Kind", Width: 7},
		{Title: "Title", Width: 28},
	}
	m.eventsTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(12))

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

func isKnownView(v View) bool {
	switch v {
	case ViewAgenda, ViewStats, ViewEvents, ViewActivity:
		return true
	default:
		return false
	}
}
