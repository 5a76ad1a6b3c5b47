package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/transcoder"
)

// DefaultTolerance is how far past the limit a stream-copy clip may run.
// Stream copy can only cut on keyframes, so the cut usually overshoots slightly.
const DefaultTolerance = 2.0

// Transcoder is the subset of *transcoder.Transcoder the plans drive.
type Transcoder interface {
	Remux(ctx context.Context, input, output string) (transcoder.Completion, error)
	ReEncode(ctx context.Context, input, output, profile string) (transcoder.Completion, error)
	Clip(ctx context.Context, input, output string, maxSeconds float64, mode transcoder.ClipMode) (transcoder.Completion, error)
}

// Prober measures media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Options tunes a Converter.
type Options struct {
	// Tolerance in seconds for accepting stream-copy clips. Negative means zero.
	Tolerance float64
	// Profile is the container plan fallback profile.
	Profile string
	// OnAttempt is called after every transcoder attempt.
	OnAttempt func(Attempt)
}

// Converter builds and runs the container and clip plans.
type Converter struct {
	tc      Transcoder
	probe   Prober
	opts    Options
	logger  *slog.Logger
	machine *Machine
}

// New constructs a Converter.
func New(tc Transcoder, probe Prober, opts Options, logger *slog.Logger) *Converter {
	if opts.Tolerance < 0 {
		opts.Tolerance = 0
	}
	if opts.Profile == "" {
		opts.Profile = config.ProfileStandard
	}
	logger = logging.NewComponentLogger(logger, "conversion")
	return &Converter{
		tc:      tc,
		probe:   probe,
		opts:    opts,
		logger:  logger,
		machine: &Machine{logger: logger, onAttempt: opts.OnAttempt},
	}
}

// ContainerPlan: start → try_remux → {done | try_reencode} → {done | failed}.
func (c *Converter) ContainerPlan(input, output string) Plan {
	return Plan{name: "container", steps: map[State]step{
		StateStart: {onSuccess: StateTryRemux},
		StateTryRemux: {
			strategy: StrategyRemux,
			run: func(ctx context.Context, _ *Outcome) (transcoder.Completion, error) {
				return c.tc.Remux(ctx, input, output)
			},
			onSuccess: StateDone,
			onFailure: StateTryReEncode,
		},
		StateTryReEncode: {
			strategy: StrategyReEncode,
			run: func(ctx context.Context, _ *Outcome) (transcoder.Completion, error) {
				return c.tc.ReEncode(ctx, input, output, c.opts.Profile)
			},
			onSuccess: StateDone,
			onFailure: StateFailed,
		},
	}}
}

// ClipPlan: start → try_stream_copy_clip → verify_clip → {done | try_reencode_clip} → {done | failed}.
func (c *Converter) ClipPlan(input, output string, maxSeconds float64) Plan {
	return Plan{name: "clip", steps: map[State]step{
		StateStart: {onSuccess: StateTryStreamCopyClip},
		StateTryStreamCopyClip: {
			strategy: StrategyStreamCopyClip,
			run: func(ctx context.Context, _ *Outcome) (transcoder.Completion, error) {
				return c.tc.Clip(ctx, input, output, maxSeconds, transcoder.ClipStreamCopy)
			},
			onSuccess: StateVerifyClip,
			onFailure: StateTryReEncodeClip,
		},
		StateVerifyClip: {
			run: func(ctx context.Context, o *Outcome) (transcoder.Completion, error) {
				return transcoder.Completion{}, c.verifyClip(ctx, o, output, maxSeconds)
			},
			onSuccess: StateDone,
			onFailure: StateTryReEncodeClip,
		},
		StateTryReEncodeClip: {
			strategy: StrategyReEncodeClip,
			run: func(ctx context.Context, o *Outcome) (transcoder.Completion, error) {
				o.ClipDuration = 0
				return c.tc.Clip(ctx, input, output, maxSeconds, transcoder.ClipReEncode)
			},
			onSuccess: StateDone,
			onFailure: StateFailed,
		},
	}}
}

// Container remuxes input into output, re-encoding only when the remux fails.
func (c *Converter) Container(ctx context.Context, input, output string) Outcome {
	outcome := c.machine.Run(ctx, c.ContainerPlan(input, output))
	c.logDecision(ctx, outcome, "container_strategy")
	return outcome
}

// Clip cuts input to maxSeconds, preferring stream copy.
func (c *Converter) Clip(ctx context.Context, input, output string, maxSeconds float64) Outcome {
	outcome := c.machine.Run(ctx, c.ClipPlan(input, output, maxSeconds))
	c.logDecision(ctx, outcome, "clip_strategy")
	return outcome
}

func (c *Converter) verifyClip(ctx context.Context, o *Outcome, output string, maxSeconds float64) error {
	duration, err := c.probe.Duration(ctx, output)
	if err != nil {
		return fmt.Errorf("verify clip: %w", err)
	}
	limit := maxSeconds + c.opts.Tolerance
	if duration > limit {
		return fmt.Errorf("verify clip: stream copy produced %ss, limit %ss with tolerance",
			strconv.FormatFloat(duration, 'f', 2, 64), strconv.FormatFloat(limit, 'f', 2, 64))
	}
	o.ClipDuration = duration
	return nil
}

func (c *Converter) logDecision(ctx context.Context, outcome Outcome, decision string) {
	result := string(outcome.Strategy)
	if !outcome.Succeeded() {
		result = "failed"
	}
	attrs := logging.DecisionAttrs(decision, result, Message(outcome))
	attrs = append(attrs, logging.Int("attempts", len(outcome.Attempts)))
	logging.WithContext(ctx, c.logger).Info("conversion decision", logging.Args(attrs...)...)
}

// Message is the human summary of an outcome.
func Message(o Outcome) string {
	if !o.Succeeded() {
		return "all strategies failed"
	}
	switch o.Strategy {
	case StrategyRemux:
		return "remuxed, no re-encode"
	case StrategyReEncode:
		return "re-encoded due to codec incompatibility"
	case StrategyStreamCopyClip:
		return "stream-copied within tolerance"
	case StrategyReEncodeClip:
		return "re-encoded to meet the duration limit"
	default:
		return string(o.Strategy)
	}
}
