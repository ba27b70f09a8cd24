package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/overcharge/internal/config"
	"github.com/udisondev/overcharge/internal/db"
	"github.com/udisondev/overcharge/internal/game/charge"
	"github.com/udisondev/overcharge/internal/sim"
)

const (
	DefaultConfigPath   = "config/chargesim.yaml"
	DefaultScenarioPath = "config/scenario.yaml"

	// Editors emit several events per save.
	watchDebounce = 200 * time.Millisecond
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := flag.String("config", envOr("OVERCHARGE_CONFIG", DefaultConfigPath), "simulator config file")
	scenarioPath := flag.String("scenario", envOr("OVERCHARGE_SCENARIO", DefaultScenarioPath), "scenario file")
	watch := flag.Bool("watch", false, "rerun the scenario whenever the file changes")
	flag.Parse()

	cfg, err := config.LoadSim(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("chargesim starting",
		"log_level", cfg.LogLevel,
		"scenario", *scenarioPath,
		"growth_rate", cfg.Charge.GrowthRate,
		"mode", cfg.Charge.Mode())

	var store charge.MaintainedStore
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		version, err := db.RunMigrations(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied", "version", version)

		store = db.NewMaintainedRepository(database.Pool())
	}

	if !*watch {
		return runScenario(ctx, *scenarioPath, cfg, store)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory: editors replace files on save.
	if err := watcher.Add(filepath.Dir(*scenarioPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", *scenarioPath, err)
	}

	changes := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return watcher.Close()
	})

	g.Go(func() error {
		return forwardChanges(gctx, watcher, *scenarioPath, changes)
	})

	g.Go(func() error {
		slog.Info("watching scenario", "path", *scenarioPath)
		for {
			if err := runScenario(gctx, *scenarioPath, cfg, store); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Error("scenario failed", "err", err)
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-changes:
				slog.Info("scenario changed, rerunning")
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("watch loop: %w", err)
	}
	return nil
}

// forwardChanges signals changes once per burst of write events on path.
func forwardChanges(ctx context.Context, w *fsnotify.Watcher, path string, changes chan<- struct{}) error {
	target := filepath.Clean(path)
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if now := time.Now(); now.Sub(last) >= watchDebounce {
				last = now
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "err", err)
		}
	}
}

func runScenario(ctx context.Context, path string, cfg config.Sim, store charge.MaintainedStore) error {
	scenario, err := sim.LoadScenario(path)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}

	report, err := sim.NewRunner(scenario, cfg, store).Run(ctx)
	if err != nil {
		return fmt.Errorf("running scenario: %w", err)
	}

	for _, line := range report.Actors {
		slog.Info("actor", "state", line)
	}

	keys := make([]string, 0, len(report.Live))
	lines := make(map[string]string, len(report.Live))
	for key, p := range report.Live {
		k := fmt.Sprintf("%d/%d", key.AbilityID, key.Index)
		keys = append(keys, k)
		lines[k] = fmt.Sprintf("magnitude=%.2f duration=%.0f area=%.0f", p.Magnitude, p.Duration, p.Area)
	}
	sort.Strings(keys)
	for _, k := range keys {
		slog.Info("live effect", "key", k, "power", lines[k])
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
