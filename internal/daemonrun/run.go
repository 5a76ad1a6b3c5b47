package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"reelforge/internal/config"
	"reelforge/internal/daemon"
	"reelforge/internal/deps"
	"reelforge/internal/history"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/transcoder"
)

// PIDFileName is written to paths.state_dir while the daemon runs.
const PIDFileName = "reelforge.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	// Bind overrides paths.api_bind when set.
	Bind string
	// Runner replaces the subprocess runner; nil uses ExecRunner.
	Runner transcoder.Runner
	// Ready, when non-nil, is called with the bound address once the API is
	// serving.
	Ready func(addr string)
}

// Run starts the reelforge daemon and blocks until cmdCtx is cancelled or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Bind != "" {
		cfg.Paths.APIBind = opts.Bind
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	var (
		recorder pipeline.Recorder
		store    daemon.HistoryStore
	)
	if cfg.History.Enabled {
		hs, err := history.Open(cfg)
		if err != nil {
			logger.Error("open history store", logging.Error(err))
			return err
		}
		defer hs.Close()
		recorder, store = hs, hs
	}

	ctrl, err := pipeline.NewFromConfig(cfg, opts.Runner, recorder, logger)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	d, err := daemon.New(cfg, ctrl, store, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and that no other daemon is running"),
		)
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d.Addr())
	}

	<-signalCtx.Done()
	logger.Info("reelforge daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// ReadPID returns the pid recorded in the state directory, or 0 when the
// daemon has not written one.
func ReadPID(cfg *config.Config) int {
	data, err := os.ReadFile(filepath.Join(cfg.Paths.StateDir, PIDFileName))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("work_dir", cfg.Paths.WorkDir),
		logging.String("transcription_engine", cfg.Transcription.Engine),
		logging.Bool("history_enabled", cfg.History.Enabled),
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		key := strings.ToLower(status.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
