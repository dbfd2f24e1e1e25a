package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandeepkv93/flowd/internal/analytics"
	"github.com/sandeepkv93/flowd/internal/commands"
	"github.com/sandeepkv93/flowd/internal/config"
	"github.com/sandeepkv93/flowd/internal/coordinator"
	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/update"
	"github.com/sandeepkv93/flowd/internal/views"
)

var (
	desktopNotify bool
	statsJSON     bool
	reportRaw     bool
	resetConfirm  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync loop in the foreground until interrupted",
	Long: `Starts the periodic sync loop, the store watcher and reminder dispatch.
Due reminders are logged. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := env.coord.Start(ctx); err != nil {
			return err
		}
		logger.Info("sync loop running",
			zap.Duration("interval", cfg.Sync.Interval),
			zap.Bool("watch", cfg.Sync.WatchStore),
		)
		reminders := env.coord.Reminders()
		errs := env.coord.Errors()
		for {
			select {
			case <-ctx.Done():
				logger.Info("received shutdown signal")
				return nil
			case d, ok := <-reminders:
				if !ok {
					reminders = nil
					continue
				}
				logger.Info("reminder due",
					zap.String("reminder_id", d.ReminderID),
					zap.String("title", d.Title),
					zap.String("priority", d.Priority),
				)
			case err := <-errs:
				fmt.Fprintf(cmd.ErrOrStderr(), "sync error: %v\n", err)
			}
		}
	},
}

var watchCmd = &cobra.Command{
	Use:         "watch",
	Short:       "Open the interactive dashboard",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"log": "file"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := env.coord.Start(cmd.Context()); err != nil {
			return err
		}
		opts := update.Options{Location: env.loc, DesktopEnabled: desktopNotify}
		if desktopNotify {
			opts.Notifier = update.ExecDesktopNotifier{}
		}
		program := tea.NewProgram(update.NewModel(env.coord, opts), tea.WithContext(cmd.Context()))
		if _, err := program.Run(); err != nil && cmd.Context().Err() == nil {
			return fmt.Errorf("dashboard failed: %w", err)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync and print a summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := env.coord.Sync(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "synced v%d at %s\n", snap.Version, snap.SyncedAt.In(env.loc).Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "  tasks:     %d\n", len(snap.Tasks))
		fmt.Fprintf(out, "  projects:  %d\n", len(snap.Projects))
		fmt.Fprintf(out, "  goals:     %d\n", len(snap.Goals))
		fmt.Fprintf(out, "  reminders: %d\n", len(snap.Reminders))
		fmt.Fprintf(out, "  events:    %d (%d derived)\n", len(snap.Events), countDerived(snap.Events))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <task|event|goal|reminder> <title...> [due:DATE] [p:P1-P4] [project:ID] [#tag]",
	Short: "Quick add a task, event, goal or reminder",
	Long: `Creates an entity from one line. Dates accept today, tomorrow, next-week,
in-N-days, +Nd, YYYY-MM-DD and RFC 3339.

Example:
  flowd add task pay rent due:tomorrow p:P1 #home`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLine(cmd, "add "+strings.Join(args, " "))
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <goal-id> <value|+delta>",
	Short: "Record goal progress",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLine(cmd, "progress "+strings.Join(args, " "))
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <task-id>",
	Short: "Toggle task completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLine(cmd, "toggle "+args[0])
	},
}

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Print overdue, today and upcoming work",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := env.coord.Snapshot()
		fmt.Fprintln(cmd.OutOrStdout(), views.RenderAgendaPanel(snap.Agenda, env.loc))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the analytics snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := env.coord.Snapshot()
		out := cmd.OutOrStdout()
		if statsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap.Analytics)
		}
		fmt.Fprintln(out, views.RenderStatsPanel(snap.Analytics, snap.Goals))
		fmt.Fprintln(out)
		fmt.Fprintln(out, views.RenderCompletionChart(snap.Analytics.CompletedTasksByDay, snap.SyncedAt, env.loc, 0, 0))
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a markdown productivity report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := env.coord.Snapshot()
		data := views.ReportData{
			Now:       snap.SyncedAt,
			Location:  env.loc,
			Analytics: snap.Analytics,
			Agenda:    snap.Agenda,
			Goals:     snap.Goals,
			Activity:  analytics.Activity(snap.Input(), snap.SyncedAt, env.loc),
		}
		if reportRaw {
			fmt.Fprint(cmd.OutOrStdout(), views.Report(data))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.RenderReport(data))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the whole dataset as JSON (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return env.coord.Export(cmd.Context(), cmd.OutOrStdout())
		}
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		if err := env.coord.Export(cmd.Context(), f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close export file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Merge an exported JSON document into the store",
	Long: `Adds every record of the document in one transaction. A record whose id
already exists aborts the whole import. Settings are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()
			r = f
		}
		doc, snap, err := env.coord.Import(cmd.Context(), r)
		if err != nil {
			return err
		}
		printCounts(cmd.OutOrStdout(), "imported", doc.Counts())
		fmt.Fprintf(cmd.OutOrStdout(), "now at v%d with %d events\n", snap.Version, len(snap.Events))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all tasks, projects, goals, reminders and events",
	Long:  `Clears every collection except settings. Requires --yes.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return fmt.Errorf("refusing to reset %s without --yes", cfg.Database.Path)
		}
		snap, err := env.coord.Reset(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "store cleared (v%d)\n", snap.Version)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration",
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"store": "none"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", configPath)
		fmt.Fprintf(cmd.OutOrStdout(), "database: %s (%s)\n", cfg.Database.Path, cfg.Database.Driver)
		fmt.Fprintf(cmd.OutOrStdout(), "sync: every %s, watch=%v\n", cfg.Sync.Interval, cfg.Sync.WatchStore)
		fmt.Fprintf(cmd.OutOrStdout(), "derive: %s\n", cfg.Derive.Policy)
		fmt.Fprintf(cmd.OutOrStdout(), "timezone: %s\n", cfg.Timezone)
		fmt.Fprintf(cmd.OutOrStdout(), "log: %s\n", cfg.Log.Level)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write the default configuration file",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"store": "none"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&desktopNotify, "desktop", false, "Send desktop notifications for due reminders")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "Print markdown without terminal styling")
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "Confirm deleting all data")

	configCmd.AddCommand(configShowCmd, configInitCmd)
}

// runLine parses one command line and executes it against the coordinator.
func runLine(cmd *cobra.Command, line string) error {
	c, err := commands.Parse(line, env.repo.Now(), env.loc)
	if err != nil {
		return err
	}
	res, err := commands.Execute(c, cliHandlers(cmd.Context(), env.coord))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}

func cliHandlers(ctx context.Context, coord *coordinator.Coordinator) commands.Handlers {
	return commands.Handlers{
		Add: func(q model.QuickAdd) (commands.Result, error) {
			added, _, err := coord.QuickAdd(ctx, q)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s %s: %s", added.Kind, added.ID, added.Title)}, nil
		},
		Toggle: func(a commands.ToggleArgs) (commands.Result, error) {
			t, _, err := coord.ToggleTask(ctx, a.TaskID)
			if err != nil {
				return commands.Result{}, err
			}
			state := "reopened"
			if t.Completed {
				state = "completed"
			}
			return commands.Result{Message: fmt.Sprintf("%s %s: %s", state, t.ID, t.Title)}, nil
		},
		Progress: func(a commands.ProgressArgs) (commands.Result, error) {
			var (
				g   model.Goal
				err error
			)
			if a.Relative {
				g, _, err = coord.IncrementGoal(ctx, a.GoalID, a.Value)
			} else {
				g, _, err = coord.UpdateGoalProgress(ctx, a.GoalID, a.Value)
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s: %g (%.0f%%, streak %d)", g.Title, g.CurrentValue, g.Progress(), g.StreakCount)}, nil
		},
		Sync: func() (commands.Result, error) {
			snap, err := coord.Sync(ctx)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("synced v%d", snap.Version)}, nil
		},
	}
}

func countDerived(events []model.CalendarEvent) int {
	n := 0
	for _, ev := range events {
		if ev.IsDerived() {
			n++
		}
	}
	return n
}

func printCounts(w io.Writer, verb string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s %d %s\n", verb, counts[k], k)
	}
}
