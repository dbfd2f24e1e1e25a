package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/flowd/internal/analytics"
	"github.com/sandeepkv93/flowd/internal/coordinator"
	"github.com/sandeepkv93/flowd/internal/scheduler"
	"github.com/sandeepkv93/flowd/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	return tea.Batch(
		waitForSnapshotCmd(m.snapshots),
		waitForErrorCmd(m.backend.Errors()),
		waitForReminderCmd(m.backend.Reminders()),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}

		switch keyStr := typed.String(); keyStr {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Agenda:
			m.CurrentView = ViewAgenda
			return m, nil
		case m.Keys.Stats:
			m.CurrentView = ViewStats
			return m, nil
		case m.Keys.Events:
			m.CurrentView = ViewEvents
			return m, nil
		case m.Keys.Activity:
			m.CurrentView = ViewActivity
			return m, nil
		case m.Keys.Sync:
			return m.requestSync()
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			if m.unsubscribe != nil {
				m.unsubscribe()
			}
			return m, tea.Quit
		}
		if m.CurrentView == ViewEvents {
			var cmd tea.Cmd
			m.eventsTable, cmd = m.eventsTable.Update(typed)
			return m, cmd
		}
	case spinner.TickMsg:
		if m.Syncing {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case SnapshotMsg:
		m.applySnapshot(typed.Snapshot)
		return m, waitForSnapshotCmd(m.snapshots)
	case SyncErrorMsg:
		m.Syncing = false
		m.LastError = typed.Err
		m.Status = StatusBar{Text: fmt.Sprintf("sync error: %v", typed.Err), IsError: true}
		m.notify("Sync", typed.Err.Error(), "error")
		if m.backend == nil {
			return m, nil
		}
		return m, waitForErrorCmd(m.backend.Errors())
	case ReminderDueMsg:
		m.applyReminder(typed.Due)
		if m.backend == nil {
			return m, nil
		}
		return m, waitForReminderCmd(m.backend.Reminders())
	case CommandResultMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Command Failed", typed.Err.Error(), "error")
		} else {
			m.Status = StatusBar{Text: typed.Message, IsError: false}
			m.notify("Command", typed.Message, "info")
		}
		return m, nil
	}

	return m, nil
}

func (m Model) requestSync() (Model, tea.Cmd) {
	if m.backend == nil || m.Syncing {
		return m, nil
	}
	m.Syncing = true
	m.Status = StatusBar{Text: "sync requested", IsError: false}
	backend := m.backend
	return m, tea.Batch(m.syncSpinner.Tick, func() tea.Msg {
		backend.Foreground()
		return nil
	})
}

func (m *Model) applySnapshot(s coordinator.Snapshot) {
	m.Snapshot = s
	m.HasSnapshot = true
	m.Syncing = false
	m.eventsTable.SetRows(m.eventRows())
	if !m.Status.IsError || m.Status.Text == "" || strings.HasPrefix(m.Status.Text, "sync error") {
		m.Status = StatusBar{Text: fmt.Sprintf("synced v%d (%s)", s.Version, s.Reason), IsError: false}
	}
}

func (m Model) eventRows() []table.Row {
	rows := make([]table.Row, 0, len(m.Snapshot.Events))
	for _, ev := range m.Snapshot.Events {
		start := ev.StartDate.In(m.Location)
		clock := start.Format("15:04")
		if ev.IsAllDay {
			clock = "all"
		}
		kind := "event"
		if ev.IsDerived() {
			kind = "derived"
		}
		rows = append(rows, table.Row{start.Format("2006-01-02"), clock, kind, ev.Title})
	}
	return rows
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := "loading..."
	chart := ""
	if m.HasSnapshot {
		s := m.Snapshot
		switch m.CurrentView {
		case ViewAgenda:
			leftPane = views.RenderAgendaPanel(s.Agenda, m.Location)
		case ViewStats:
			leftPane = views.RenderStatsPanel(s.Analytics, s.Goals)
			chart = views.RenderCompletionChart(s.Analytics.CompletedTasksByDay, m.now(), m.Location, 0, 0)
		case ViewEvents:
			leftPane = "events:\n" + m.eventsTable.View()
		case ViewActivity:
			leftPane = views.RenderActivityPanel(analytics.Activity(s.Input(), m.now(), m.Location))
		}
	}

	rightPane := strings.TrimSpace(strings.Join([]string{
		m.renderCommandPalette(),
		m.renderHelpIfVisible(),
		m.renderNotificationsView(),
	}, "\n"))

	notificationView := ""
	if len(m.ReminderLog) > 0 {
		last := m.ReminderLog[len(m.ReminderLog)-1]
		notificationView = fmt.Sprintf("last-reminder: %s @ %s", last.Title, last.DueAt.In(m.Location).Format("15:04:05"))
	}
	if m.Syncing {
		notificationView = strings.TrimSpace(strings.Join([]string{notificationView, "sync: " + m.syncSpinner.View() + " running"}, "\n"))
	}

	header := fmt.Sprintf("flowd | view: %s", m.CurrentView)
	if m.HasSnapshot {
		header += fmt.Sprintf(" | v%d synced %s", m.Snapshot.Version, m.Snapshot.SyncedAt.In(m.Location).Format("15:04:05"))
	}
	return views.RenderApp(views.AppData{
		Header:       header,
		LeftPane:     leftPane,
		RightPane:    rightPane,
		Chart:        chart,
		StatusLine:   status,
		Notification: notificationView,
		Footer: fmt.Sprintf("keys: %s agenda | %s stats | %s events | %s activity | %s sync | / cmd | %s help | %s quit",
			m.Keys.Agenda, m.Keys.Stats, m.Keys.Events, m.Keys.Activity, m.Keys.Sync, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	start := len(m.Notifications) - 5
	if start < 0 {
		start = 0
	}
	lines := []string{"notifications:"}
	for _, n := range m.Notifications[start:] {
		lines = append(lines, views.RenderNotification(n.Level, n.Title+": "+n.Body))
	}
	return strings.Join(lines, "\n")
}

func waitForSnapshotCmd(ch <-chan coordinator.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: s}
	}
}

func waitForErrorCmd(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return SyncErrorMsg{Err: err}
	}
}

func waitForReminderCmd(ch <-chan scheduler.Due) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		d, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Due: d}
	}
}
