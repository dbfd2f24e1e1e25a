package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sandeepkv93/flowd/internal/config"
	"github.com/sandeepkv93/flowd/internal/coordinator"
	"github.com/sandeepkv93/flowd/internal/derive"
	"github.com/sandeepkv93/flowd/internal/repository"
	"github.com/sandeepkv93/flowd/internal/storage"
)

var Version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	logger *zap.Logger
	cfg    *config.Config
	env    *runtimeEnv
)

// runtimeEnv is the wired object graph every subcommand works against.
type runtimeEnv struct {
	loc    *time.Location
	store  *storage.Store
	repo   *repository.Repository
	engine *derive.Engine
	coord  *coordinator.Coordinator
}

func (e *runtimeEnv) close() {
	e.coord.Stop()
	if err := e.store.Close(); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "flowd",
	Short:   "flowd - local task, goal and calendar tracker",
	Version: Version,
	Long: `flowd keeps tasks, projects, goals, reminders and calendar events in a
local SQLite store, derives calendar events from scheduled tasks and goal
deadlines, and keeps productivity analytics current.

Run "flowd watch" for the interactive dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		zc := zap.NewProductionConfig()
		if verbose || strings.EqualFold(cfg.Log.Level, "debug") {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
			zc.Level = zap.NewAtomicLevelAt(lvl)
		}
		if cmd.Annotations["log"] == "file" {
			// The dashboard owns the terminal.
			dir := filepath.Dir(cfg.Database.Path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			logPath := filepath.Join(dir, "flowd.log")
			zc.OutputPaths = []string{logPath}
			zc.ErrorOutputPaths = []string{logPath}
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cmd.Annotations["store"] == "none" {
			return nil
		}
		env, err = openEnv(cmd.Context())
		return err
	},
}

// shutdown runs after every command, including failed ones.
func shutdown() {
	if env != nil {
		env.close()
		env = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// openEnv opens the store, wires the engine and runs the first sync.
func openEnv(ctx context.Context) (*runtimeEnv, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Database.Path, err)
	}
	repo := repository.New(store)
	engine := derive.New(repo,
		derive.WithPolicy(derive.Policy(cfg.Derive.Policy)),
		derive.WithLocation(loc),
		derive.WithLogger(logger.Named("derive")),
	)
	opts := coordinator.Options{
		Interval:       cfg.Sync.Interval,
		Location:       loc,
		Logger:         logger.Named("coordinator"),
		ReminderBuffer: cfg.Reminders.Buffer,
	}
	if cfg.Sync.WatchStore {
		opts.WatchPath = cfg.Database.Path
	}
	coord := coordinator.New(repo, engine, opts)
	if err := coord.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}
	logger.Debug("store ready",
		zap.String("path", cfg.Database.Path),
		zap.String("driver", cfg.Database.Driver),
		zap.String("policy", string(engine.Policy())),
	)
	return &runtimeEnv{loc: loc, store: store, repo: repo, engine: engine, coord: coord}, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")

	rootCmd.AddCommand(
		runCmd,
		watchCmd,
		syncCmd,
		addCmd,
		progressCmd,
		toggleCmd,
		agendaCmd,
		statsCmd,
		reportCmd,
		exportCmd,
		importCmd,
		resetCmd,
		configCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
