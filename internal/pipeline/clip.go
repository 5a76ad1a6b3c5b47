package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"reelforge/internal/catalog"
	"reelforge/internal/conversion"
	"reelforge/internal/logging"
	"reelforge/internal/platform"
	"reelforge/internal/services"
	"reelforge/internal/transcoder"
)

// clipSource validates platform and file and probes the source duration.
// Nothing runs before both names check out.
func (c *Controller) clipSource(ctx context.Context, platformName, file string, res *Result) (platform.Limit, catalog.MediaFile, float64, error) {
	limit, err := platform.Lookup(platformName)
	if err != nil {
		return platform.Limit{}, catalog.MediaFile{}, 0, err
	}
	res.Platform = limit.Label
	source, err := c.catalog.Stat(ctx, file)
	if err != nil {
		return limit, catalog.MediaFile{}, 0, err
	}
	res.Files = []string{source.Name}

	duration, err := c.probe.Duration(ctx, c.catalog.Path(source.Name))
	if err != nil {
		return limit, source, 0, err
	}
	res.OriginalDuration = duration
	res.OriginalDurationClock = platform.FormatClock(duration)
	return limit, source, duration, nil
}

// GenerateClip re-encodes file to the platform's duration limit. A file
// already within the limit is a no-action result carrying its duration.
func (c *Controller) GenerateClip(ctx context.Context, platformName, file string) (Result, error) {
	return c.run(ctx, OpGenerateClip, true, func(ctx context.Context, logger *slog.Logger, res *Result) error {
		limit, source, duration, err := c.clipSource(ctx, platformName, file, res)
		if err != nil {
			return err
		}
		if !limit.Exceeds(duration) {
			res.Outcome = OutcomeNoAction
			res.Message = fmt.Sprintf("Video is only %s long, no need to cut for %s", res.OriginalDurationClock, limit.Label)
			return nil
		}

		output := limit.ClipName(source.Name)
		res.Output = output
		logger.Info("cutting platform clip",
			logging.String("platform", limit.Name),
			logging.String("input", source.Name),
			logging.String("output", output),
			logging.Float64("duration_seconds", duration),
			logging.Float64("max_seconds", limit.MaxDuration),
		)

		completion, err := c.tc.Clip(ctx, c.catalog.Path(source.Name), c.catalog.Path(output), limit.MaxDuration, transcoder.ClipReEncode)
		res.Attempts = append(res.Attempts, attemptFrom(conversion.StrategyReEncodeClip, completion, err))
		if err != nil {
			res.Message = fmt.Sprintf("Failed to generate %s video", limit.Label)
			return err
		}
		res.Strategy = string(conversion.StrategyReEncodeClip)

		final, err := c.probe.Duration(ctx, c.catalog.Path(output))
		if err != nil {
			return err
		}
		res.FinalDuration = final
		res.FinalDurationClock = platform.FormatClock(final)
		if info, err := c.catalog.Stat(ctx, output); err == nil {
			res.SizeBytes = info.Size
			res.SizeMB = platform.SizeMB(info.Size)
		}
		res.Message = fmt.Sprintf("Successfully created %s video: %s", limit.Label, output)
		return nil
	})
}

// PrepareForPlatform cuts file to the duration limit when needed, preferring
// stream copy, and then enforces the platform's size limit on whatever file
// would be uploaded.
func (c *Controller) PrepareForPlatform(ctx context.Context, platformName, file string) (Result, error) {
	return c.run(ctx, OpPrepare, true, func(ctx context.Context, logger *slog.Logger, res *Result) error {
		limit, source, duration, err := c.clipSource(ctx, platformName, file, res)
		if err != nil {
			return err
		}

		target := source.Name
		summary := ""
		res.FinalDuration = duration
		if limit.Exceeds(duration) {
			target = limit.CutName(source.Name)
			logger.Info("cutting for upload",
				logging.String("platform", limit.Name),
				logging.String("input", source.Name),
				logging.String("output", target),
				logging.Float64("duration_seconds", duration),
				logging.Float64("max_seconds", limit.MaxDuration),
			)
			outcome := c.converter.Clip(ctx, c.catalog.Path(source.Name), c.catalog.Path(target), limit.MaxDuration)
			res.Attempts = outcome.Attempts
			res.Strategy = string(outcome.Strategy)
			if !outcome.Succeeded() {
				res.Output = target
				res.Message = fmt.Sprintf("Failed to cut %s for %s", source.Name, limit.Label)
				return outcome.Err
			}
			res.Cut = true
			summary = conversion.Message(outcome)
			final := outcome.ClipDuration
			if final == 0 {
				if final, err = c.probe.Duration(ctx, c.catalog.Path(target)); err != nil {
					return err
				}
			}
			res.FinalDuration = final
		}
		res.Output = target
		res.FinalDurationClock = platform.FormatClock(res.FinalDuration)

		info, err := c.catalog.Stat(ctx, target)
		if err != nil {
			return err
		}
		res.SizeBytes = info.Size
		res.SizeMB = platform.SizeMB(info.Size)
		if limit.ExceedsSize(info.Size) {
			msg := fmt.Sprintf("%s is %s MB, %s allows %s MB", target, res.SizeMB, limit.Label, platform.SizeMB(limit.MaxSizeBytes))
			res.Message = msg
			return services.Wrap(services.ErrSizeLimitExceeded, "pipeline", OpPrepare, msg, nil)
		}

		if res.Cut {
			res.Message = fmt.Sprintf("Cut %s to %s for %s (%s)", source.Name, res.FinalDurationClock, limit.Label, summary)
		} else {
			res.Message = fmt.Sprintf("%s is ready for %s", source.Name, limit.Label)
		}
		return nil
	})
}

func attemptFrom(strategy conversion.Strategy, completion transcoder.Completion, err error) conversion.Attempt {
	a := conversion.Attempt{
		Strategy: strategy,
		Success:  err == nil,
		ExitCode: completion.ExitCode,
		Elapsed:  completion.Elapsed,
	}
	if err != nil {
		a.Error = err.Error()
		a.Diagnostic = services.Details(err).Diagnostic
	}
	observeAttempt(a)
	return a
}
