package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/catalog"
	"reelforge/internal/config"
	"reelforge/internal/conversion"
	"reelforge/internal/history"
	"reelforge/internal/logging"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/metrics"
	"reelforge/internal/notifications"
	"reelforge/internal/services"
	"reelforge/internal/services/whisper"
	"reelforge/internal/staging"
	"reelforge/internal/transcoder"
	"reelforge/internal/transcript"
)

// Transcoder is the ffmpeg surface the controller drives.
type Transcoder interface {
	conversion.Transcoder
	Concatenate(ctx context.Context, dir string, inputs []string, output string) (transcoder.Completion, error)
	ExtractAudio(ctx context.Context, input, output string) (transcoder.Completion, error)
}

// Prober measures media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// SpeechToText turns an audio file into raw transcript text.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio, outputDir string) (string, error)
}

// Recorder persists finished results.
type Recorder interface {
	Append(ctx context.Context, rec history.Record) error
}

// Notifier publishes operation outcomes.
type Notifier interface {
	Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error
}

// Deps wires a Controller. Catalog, Transcoder, Prober, and Speech are
// required.
type Deps struct {
	Catalog    *catalog.Catalog
	Transcoder Transcoder
	Prober     Prober
	Speech     SpeechToText
	History    Recorder
	Notifier   Notifier
	Formatter  transcript.Formatter
	// Tolerance is the stream-copy clip acceptance window in seconds.
	Tolerance float64
	// Profile is the container plan fallback profile.
	Profile  string
	StaleAge time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

// Controller runs pipeline operations against one working directory.
type Controller struct {
	catalog   *catalog.Catalog
	tc        Transcoder
	probe     Prober
	speech    SpeechToText
	history   Recorder
	notifier  Notifier
	formatter transcript.Formatter
	converter *conversion.Converter
	lock      *dirLock
	staleAge  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// New validates deps and builds a Controller.
func New(deps Deps) (*Controller, error) {
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("pipeline: catalog is required")
	case deps.Transcoder == nil:
		return nil, errors.New("pipeline: transcoder is required")
	case deps.Prober == nil:
		return nil, errors.New("pipeline: prober is required")
	case deps.Speech == nil:
		return nil, errors.New("pipeline: speech-to-text is required")
	}
	lock, err := newDirLock(deps.Catalog.Dir())
	if err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(deps.Logger, "pipeline")
	c := &Controller{
		catalog:   deps.Catalog,
		tc:        deps.Transcoder,
		probe:     deps.Prober,
		speech:    deps.Speech,
		history:   deps.History,
		notifier:  deps.Notifier,
		formatter: deps.Formatter,
		lock:      lock,
		staleAge:  deps.StaleAge,
		logger:    logger,
		now:       deps.Now,
		newID:     deps.NewID,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if c.formatter.Now == nil {
		c.formatter.Now = c.now
	}
	c.converter = conversion.New(deps.Transcoder, deps.Prober, conversion.Options{
		Tolerance: deps.Tolerance,
		Profile:   deps.Profile,
		OnAttempt: observeAttempt,
	}, deps.Logger)
	return c, nil
}

// NewFromConfig builds the production controller: local catalog, ffmpeg via
// runner (ExecRunner when nil), ffprobe, and the configured whisper engine.
func NewFromConfig(cfg *config.Config, runner transcoder.Runner, recorder Recorder, logger *slog.Logger) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	cat, err := catalog.New(cfg.Paths.WorkDir, catalog.Options{
		OutputBasename:     cfg.Catalog.OutputBasename,
		SegmentExtension:   cfg.Catalog.SegmentExtension,
		ConvertedExtension: cfg.Catalog.ConvertedExtension,
		SegmentPattern:     cfg.Catalog.SegmentPattern,
	})
	if err != nil {
		return nil, err
	}
	tc := transcoder.New(runner, transcoder.OptionsFromConfig(cfg), logger)
	return New(Deps{
		Catalog:    cat,
		Transcoder: tc,
		Prober:     ffprobe.Prober{Binary: cfg.Tools.FFprobe, Timeout: cfg.ProbeTimeout()},
		Speech:     whisper.NewService(whisper.ConfigFromApp(cfg), tc.Runner()),
		History:    recorder,
		Notifier:   notifications.NewService(cfg),
		Formatter: transcript.Formatter{
			Interval:       time.Duration(cfg.Transcription.IntervalSeconds) * time.Second,
			LinesPerMarker: cfg.Transcription.LinesPerMarker,
		},
		Tolerance: cfg.Clip.CopyToleranceSeconds,
		Profile:   config.ProfileStandard,
		StaleAge:  cfg.StaleAge(),
		Logger:    logger,
	})
}

// Catalog exposes the working-directory catalog.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

type operation func(ctx context.Context, logger *slog.Logger, res *Result) error

// run wraps fn with the id, lock, logging, metrics, and history bookkeeping
// shared by every operation.
func (c *Controller) run(ctx context.Context, name string, mutating bool, fn operation) (Result, error) {
	res := Result{ID: c.newID(), Operation: name, StartedAt: c.now()}
	ctx = services.WithOperation(ctx, name)
	ctx = services.WithOperationID(ctx, res.ID)
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("operation started", logging.String(logging.FieldEventType, "operation_start"))

	err := c.guarded(ctx, mutating, func() error { return fn(ctx, logger, &res) })

	res.FinishedAt = c.now()
	switch {
	case err != nil:
		details := services.Details(err)
		res.Success = false
		res.Outcome = OutcomeFailed
		res.Error = &details
		if res.Message == "" {
			res.Message = err.Error()
		}
	case res.Outcome == OutcomeNoAction:
		res.Success = false
	default:
		res.Success = true
		res.Outcome = OutcomeCompleted
	}

	c.observe(res)
	c.record(ctx, logger, res)
	c.notify(ctx, logger, res, err)

	attrs := []logging.Attr{
		logging.String("outcome", string(res.Outcome)),
		logging.Duration("elapsed", res.Elapsed()),
		logging.String("message", res.Message),
	}
	if err != nil {
		attrs = append(attrs,
			logging.String(logging.FieldEventType, "operation_failed"),
			logging.String(logging.FieldErrorKind, res.ErrorKind()),
			logging.Error(err),
		)
		if services.IsPrecondition(err) {
			logger.Info("operation rejected", logging.Args(attrs...)...)
		} else {
			logger.Error("operation failed", logging.Args(attrs...)...)
		}
	} else {
		attrs = append(attrs, logging.String(logging.FieldEventType, "operation_complete"))
		logger.Info("operation finished", logging.Args(attrs...)...)
	}
	return res, err
}

func (c *Controller) guarded(ctx context.Context, mutating bool, fn func() error) error {
	if !mutating {
		return fn()
	}
	if err := c.requireWorkDir(); err != nil {
		return err
	}
	release, err := c.lock.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	metrics.OperationsInFlight.Inc()
	defer metrics.OperationsInFlight.Dec()
	return fn()
}

// requireWorkDir fails with input-not-found before the lock file would be
// created inside a directory that does not exist.
func (c *Controller) requireWorkDir() error {
	info, err := os.Stat(c.catalog.Dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrInputNotFound, "pipeline", "work dir", c.catalog.Dir()+" does not exist", nil)
		}
		return services.Wrap(services.ErrIO, "pipeline", "work dir", c.catalog.Dir(), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrInputNotFound, "pipeline", "work dir", c.catalog.Dir()+" is not a directory", nil)
	}
	return nil
}

func (c *Controller) observe(res Result) {
	metrics.OperationsTotal.WithLabelValues(res.Operation, string(res.Outcome)).Inc()
	metrics.OperationDuration.WithLabelValues(res.Operation).Observe(res.Elapsed().Seconds())
	if kind := res.ErrorKind(); kind != "" {
		metrics.OperationErrorsTotal.WithLabelValues(res.Operation, kind).Inc()
	}
}

func observeAttempt(a conversion.Attempt) {
	result := metrics.ResultSuccess
	if !a.Success {
		result = metrics.ResultFailure
	}
	metrics.TranscoderAttemptsTotal.WithLabelValues(string(a.Strategy), result).Inc()
	metrics.TranscoderAttemptDuration.WithLabelValues(string(a.Strategy)).Observe(a.Elapsed.Seconds())
}

// record appends res to history. Listing is read-only and not recorded.
func (c *Controller) record(ctx context.Context, logger *slog.Logger, res Result) {
	if c.history == nil || res.Operation == OpList {
		return
	}
	rec, err := toRecord(res, c.catalog.Dir())
	if err == nil {
		err = c.history.Append(context.WithoutCancel(ctx), rec)
	}
	if err != nil {
		logging.WarnWithContext(logger, "history append failed", "history_append_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions"),
			logging.String(logging.FieldImpact, "operation missing from reelforge history"),
		)
	}
}

// notify publishes completed and failed mutating operations. Listing,
// no-action results, and rejected requests stay quiet.
func (c *Controller) notify(ctx context.Context, logger *slog.Logger, res Result, err error) {
	if c.notifier == nil || res.Operation == OpList || res.Outcome == OutcomeNoAction || services.IsPrecondition(err) {
		return
	}
	event := notifications.EventOperationCompleted
	payload := notifications.Payload{
		"operation": res.Operation,
		"message":   res.Message,
		"output":    res.Output,
	}
	if err != nil {
		event = notifications.EventOperationFailed
		payload["error"] = err.Error()
	}
	if nerr := c.notifier.Publish(context.WithoutCancel(ctx), event, payload); nerr != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(nerr),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "operation outcome not delivered"),
		)
	}
}

// SweepStale removes abandoned scratch directories and playlists.
func (c *Controller) SweepStale(ctx context.Context) staging.CleanStaleResult {
	if c.staleAge <= 0 {
		return staging.CleanStaleResult{}
	}
	return staging.CleanStale(ctx, c.catalog.Dir(), c.staleAge, c.logger)
}

func notFound(operation, message string) error {
	return services.Wrap(services.ErrInputNotFound, "pipeline", operation, message, nil)
}

func ioError(operation, message string, err error) error {
	return services.Wrap(services.ErrIO, "pipeline", operation, message, err)
}
