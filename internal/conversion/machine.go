package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/transcoder"
)

// State names a node of a plan.
type State string

const (
	StateStart             State = "start"
	StateTryRemux          State = "try_remux"
	StateTryReEncode       State = "try_reencode"
	StateTryStreamCopyClip State = "try_stream_copy_clip"
	StateVerifyClip        State = "verify_clip"
	StateTryReEncodeClip   State = "try_reencode_clip"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Strategy names the transcoder approach an attempt used.
type Strategy string

const (
	StrategyRemux          Strategy = "remux"
	StrategyReEncode       Strategy = "re-encode"
	StrategyStreamCopyClip Strategy = "stream-copy-clip"
	StrategyReEncodeClip   Strategy = "re-encode-clip"
)

// Attempt records one transcoder run.
type Attempt struct {
	Strategy   Strategy      `json:"strategy"`
	State      State         `json:"state"`
	Success    bool          `json:"success"`
	ExitCode   int           `json:"exit_code"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Error      string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Outcome is the result of running a plan.
type Outcome struct {
	Plan     string
	Final    State
	Path     []State
	Attempts []Attempt
	// Strategy is the strategy whose output was accepted.
	Strategy Strategy
	// ClipDuration is the probed duration of a verified stream-copy clip.
	ClipDuration float64
	Err          error
}

// Succeeded reports whether the plan reached done.
func (o Outcome) Succeeded() bool {
	return o.Final == StateDone
}

// step is one row of a transition table. Steps with a strategy run the
// transcoder and record an attempt; others only decide.
type step struct {
	strategy  Strategy
	run       func(ctx context.Context, o *Outcome) (transcoder.Completion, error)
	onSuccess State
	onFailure State
}

// Plan is a named transition table entered at StateStart.
type Plan struct {
	name  string
	steps map[State]step
}

// Machine runs plans and reports attempts as they finish.
type Machine struct {
	logger    *slog.Logger
	onAttempt func(Attempt)
}

// Run walks plan from start until it reaches done or failed.
func (m *Machine) Run(ctx context.Context, plan Plan) Outcome {
	outcome := Outcome{Plan: plan.name}
	state := StateStart
	var lastErr error
	logger := logging.WithContext(ctx, m.logger)

	// Each state may be visited once; the bound guards malformed tables.
	for hops := 0; hops <= len(plan.steps)+1; hops++ {
		outcome.Path = append(outcome.Path, state)
		if state == StateDone || state == StateFailed {
			break
		}
		st, ok := plan.steps[state]
		if !ok {
			lastErr = fmt.Errorf("plan %s: no transition from %s", plan.name, state)
			state = StateFailed
			continue
		}
		if st.run == nil {
			state = st.onSuccess
			continue
		}

		completion, err := st.run(ctx, &outcome)
		if st.strategy != "" {
			attempt := Attempt{
				Strategy: st.strategy,
				State:    state,
				Success:  err == nil,
				ExitCode: completion.ExitCode,
				Elapsed:  completion.Elapsed,
			}
			if err != nil {
				attempt.Error = err.Error()
				attempt.Diagnostic = services.Details(err).Diagnostic
			}
			outcome.Attempts = append(outcome.Attempts, attempt)
			if m.onAttempt != nil {
				m.onAttempt(attempt)
			}
			if err == nil {
				outcome.Strategy = st.strategy
			}
		}
		if err != nil {
			lastErr = err
			logger.Info("conversion step failed",
				logging.String("plan", plan.name),
				logging.String("state", string(state)),
				logging.String("next", string(st.onFailure)),
				logging.String("reason", err.Error()),
			)
			state = st.onFailure
			continue
		}
		state = st.onSuccess
	}

	outcome.Final = outcome.Path[len(outcome.Path)-1]
	if outcome.Final != StateDone {
		outcome.Final = StateFailed
		outcome.Strategy = ""
		outcome.Err = services.Wrap(services.ErrConversionFailed, "conversion", plan.name, "all strategies failed", lastErr)
	}
	return outcome
}
