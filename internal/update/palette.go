package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/flowd/internal/commands"
	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/views"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

// executePaletteCommand parses on the UI goroutine and runs the command as a
// tea.Cmd; the resulting snapshot arrives through the subscription.
func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw, m.now(), m.Location)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if m.backend == nil {
		m.Status = StatusBar{Text: "no backend configured", IsError: true}
		return m, nil
	}

	handlers := paletteHandlers(m.backend)
	m.Status = StatusBar{Text: "running: " + raw, IsError: false}
	return m, func() tea.Msg {
		res, err := commands.Execute(cmd, handlers)
		return CommandResultMsg{Message: res.Message, Err: err}
	}
}

func paletteHandlers(b Backend) commands.Handlers {
	ctx := context.Background()
	return commands.Handlers{
		Add: func(q model.QuickAdd) (commands.Result, error) {
			added, _, err := b.QuickAdd(ctx, q)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s: %s", added.Kind, added.Title)}, nil
		},
		Toggle: func(a commands.ToggleArgs) (commands.Result, error) {
			t, _, err := b.ToggleTask(ctx, a.TaskID)
			if err != nil {
				return commands.Result{}, err
			}
			state := "open"
			if t.Completed {
				state = "done"
			}
			return commands.Result{Message: fmt.Sprintf("%s: %s", state, t.Title)}, nil
		},
		Progress: func(a commands.ProgressArgs) (commands.Result, error) {
			var (
				g   model.Goal
				err error
			)
			if a.Relative {
				g, _, err = b.IncrementGoal(ctx, a.GoalID, a.Value)
			} else {
				g, _, err = b.UpdateGoalProgress(ctx, a.GoalID, a.Value)
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s: %.0f%% (streak %d)", g.Title, g.Progress(), g.StreakCount)}, nil
		},
		Sync: func() (commands.Result, error) {
			b.Foreground()
			return commands.Result{Message: "sync requested"}, nil
		},
	}
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.Value())
}
