package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(string(m.CurrentView)),
		strings.Join(plain, "\n"),
		m.helpModel.View(helpKeyMap{short: bindings, full: [][]key.Binding{bindings}}),
	)
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Agenda, Action: "switch to Agenda"},
		{Key: m.Keys.Stats, Action: "switch to Stats"},
		{Key: m.Keys.Events, Action: "switch to Events"},
		{Key: m.Keys.Activity, Action: "switch to Activity"},
		{Key: m.Keys.Sync, Action: "sync now"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewEvents:
		return []KeyBinding{{Key: "j/k", Action: "move selection"}}
	default:
		return []KeyBinding{
			{Key: "/task ...", Action: "quick add (task|event|goal|reminder)"},
			{Key: "/toggle <id>", Action: "toggle task completion"},
			{Key: "/progress <id> <n|+n>", Action: "record goal progress"},
		}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
