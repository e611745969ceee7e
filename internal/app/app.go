package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/five82/apodwall/internal/config"
	"github.com/five82/apodwall/internal/fault"
	"github.com/five82/apodwall/internal/logging"
	"github.com/five82/apodwall/internal/scheduler"
	"github.com/five82/apodwall/internal/state"
	"github.com/five82/apodwall/internal/ui"
	"github.com/five82/apodwall/internal/wallpaper"
)

// Options select how the agent runs.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/apodwall/prefs.toml
	Once       bool   // run a single cycle and return its error
	TUI        bool   // show the status view while the scheduler runs
	// Console receives log output in addition to the log file. Ignored in TUI mode.
	Console io.Writer
}

// Run loads configuration, wires the pipeline and blocks until ctx is done,
// the status view is closed, or the single cycle finished.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	if opts.TUI {
		console = nil
	}
	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
		Console: console,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	store := &state.Store{}
	a, err := newAgent(cfg, wallpaper.NewSystem(), store)
	if err != nil {
		return err
	}
	logger.Info("apodwall starting",
		"source", cfg.Source,
		"cache_dir", cfg.CacheDir,
		"state_path", cfg.StatePath,
	)

	sched := scheduler.New(a.cycle, scheduler.Options{
		CycleTimeout: cfg.CycleTimeout,
		Observer:     store,
		Logger:       logger,
	})

	if opts.Once {
		if err := sched.RunOnce(ctx); err != nil && !fault.IsCancelled(err) {
			return err
		}
		return nil
	}
	if !opts.TUI {
		return sched.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(gctx); !errors.Is(err, scheduler.ErrStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer sched.Stop()
		return ui.Run(gctx, ui.Options{
			Store:     store,
			LogPath:   cfg.LogFile,
			PrefsPath: opts.PrefsPath,
		})
	})
	return g.Wait()
}
