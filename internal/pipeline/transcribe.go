package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/staging"
	"reelforge/internal/transcript"
)

const audioFileName = "audio.wav"

// Transcribe extracts audio from file, runs speech-to-text, and writes the
// formatted transcript beside the source. The scratch directory is removed on
// every exit path.
func (c *Controller) Transcribe(ctx context.Context, file string) (Result, error) {
	return c.run(ctx, OpTranscribe, true, func(ctx context.Context, logger *slog.Logger, res *Result) error {
		source, err := c.catalog.Stat(ctx, file)
		if err != nil {
			return err
		}
		res.Files = []string{source.Name}

		scratch, err := staging.Create(c.catalog.Dir(), res.ID)
		if err != nil {
			return ioError(OpTranscribe, "create scratch directory", err)
		}
		defer staging.Release(scratch, logger)

		audio := filepath.Join(scratch, audioFileName)
		logger.Info("extracting audio", logging.String("input", source.Name))
		if _, err := c.tc.ExtractAudio(ctx, c.catalog.Path(source.Name), audio); err != nil {
			res.Message = fmt.Sprintf("Failed to extract audio from %s", source.Name)
			return err
		}

		logger.Info("running speech-to-text", logging.String("input", source.Name))
		raw, err := c.speech.Transcribe(ctx, audio, scratch)
		if err != nil {
			res.Message = fmt.Sprintf("Failed to transcribe %s", source.Name)
			return err
		}
		if strings.TrimSpace(raw) == "" {
			logging.WarnWithContext(logger, "speech-to-text returned no text", "transcript_empty",
				logging.String("input", source.Name),
				logging.String(logging.FieldErrorHint, "check that the video has an audible speech track"),
				logging.String(logging.FieldImpact, "transcript contains only the header"),
			)
		}

		output := transcript.FileName(source.Name)
		res.Output = output
		if err := fileutil.WriteFileAtomic(c.catalog.Path(output), []byte(c.formatter.Format(raw)), 0o644); err != nil {
			return ioError(OpTranscribe, "write "+output, err)
		}
		if info, err := c.catalog.Stat(ctx, output); err == nil {
			res.SizeBytes = info.Size
		}
		res.Message = fmt.Sprintf("Transcript saved to %s", output)
		return nil
	})
}
