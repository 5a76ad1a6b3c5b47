package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/preflight"
	"reelforge/internal/staging"
)

// HistoryStore is what the daemon needs from the operation history.
type HistoryStore interface {
	api.HistoryReader
	Path() string
}

// Daemon serves the pipeline over HTTP and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline Pipeline
	history  HistoryStore

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	listener  net.Listener
	server    *http.Server
	startedAt time.Time

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Pipeline is the controller surface the daemon serves and maintains.
type Pipeline interface {
	api.Pipeline
	SweepStale(ctx context.Context) staging.CleanStaleResult
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Address      string
	WorkDir      string
	LockFilePath string
	HistoryPath  string
	StartedAt    time.Time
}

// New constructs a daemon. history may be nil when the history store is disabled.
func New(cfg *config.Config, p Pipeline, history HistoryStore, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || p == nil {
		return nil, errors.New("daemon requires config and pipeline")
	}
	lockPath := cfg.DaemonLockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		pipeline: p,
		history:  history,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, sweeps stale artifacts, and begins serving
// the API on cfg.Paths.APIBind.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelforge daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.logPreflight(d.ctx)

	sweep := d.pipeline.SweepStale(d.ctx)
	if len(sweep.Removed) > 0 || len(sweep.Errors) > 0 {
		d.logger.Info("stale artifacts swept",
			logging.String(logging.FieldEventType, "stale_sweep"),
			logging.Int("removed", len(sweep.Removed)),
			logging.Int("errors", len(sweep.Errors)),
		)
	}

	if err := d.serve(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.mu.Lock()
	d.startedAt = time.Now()
	d.mu.Unlock()
	d.running.Store(true)
	d.logger.Info("reelforge daemon started",
		logging.String("lock", d.lockPath),
		logging.String("work_dir", d.cfg.Paths.WorkDir),
	)
	return nil
}

func (d *Daemon) serve(ctx context.Context) error {
	srv, err := api.NewServer(d.pipeline, api.Options{
		History: d.historyReader(),
		Status:  d.apiStatus,
		LogPath: logging.FilePath(d.cfg),
		Token:   d.cfg.Paths.APIToken,
		Logger:  d.logger,
	})
	if err != nil {
		return err
	}
	bind := strings.TrimSpace(d.cfg.Paths.APIBind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	d.mu.Lock()
	d.listener = listener
	d.server = server
	d.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("api server error",
				logging.String(logging.FieldEventType, "api_server_failed"),
				logging.Error(err),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	d.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (d *Daemon) historyReader() api.HistoryReader {
	if d.history == nil {
		return nil
	}
	return d.history
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			continue
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "create the directory or fix its permissions"),
			logging.String(logging.FieldImpact, "operations touching this directory will fail"),
		)
	}
	for _, dep := range preflight.CheckSystemDeps(ctx, d.cfg) {
		if dep.Available {
			continue
		}
		impact := "pipeline operations will fail"
		if dep.Optional {
			impact = "transcription is unavailable"
		}
		logging.WarnWithContext(d.logger, "dependency missing", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.String("command", dep.Command),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldErrorHint, "install the tool or set its path in the config"),
			logging.String(logging.FieldImpact, impact),
		)
	}
}

// Stop shuts the API server down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Lock()
	server := d.server
	d.server = nil
	d.listener = nil
	d.mu.Unlock()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = server.Shutdown(shutdownCtx)
		cancel()
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelforge daemon stopped")
}

// Close releases resources held by the daemon. The history store is owned by
// the caller.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr returns the bound API address, or an empty string when stopped.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Address:      d.Addr(),
		WorkDir:      d.cfg.Paths.WorkDir,
		LockFilePath: d.lockPath,
		StartedAt:    startedAt,
	}
	if d.history != nil {
		status.HistoryPath = d.history.Path()
	}
	return status
}

func (d *Daemon) apiStatus(ctx context.Context) api.Status {
	status := d.Status()
	payload := api.Status{
		Running:      status.Running,
		PID:          status.PID,
		WorkDir:      status.WorkDir,
		LockFilePath: status.LockFilePath,
		HistoryPath:  status.HistoryPath,
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(ctx, d.cfg)),
		Checks:       api.FromChecks(preflight.RunAll(ctx, d.cfg)),
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	return payload
}
