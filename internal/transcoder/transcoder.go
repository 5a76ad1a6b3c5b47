package transcoder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Profile is a resolved re-encode recipe.
type Profile struct {
	Name         string
	VideoCodec   string
	AudioCodec   string
	Preset       string
	CRF          int
	AudioBitrate string
	Timeout      time.Duration
}

// ClipMode selects how a duration-limited clip is produced.
type ClipMode string

const (
	ClipStreamCopy ClipMode = "stream-copy"
	ClipReEncode   ClipMode = "re-encode"
)

// Options configures a Transcoder.
type Options struct {
	FFmpeg          string
	ConcatTimeout   time.Duration
	RemuxTimeout    time.Duration
	ClipCopyTimeout time.Duration
	AudioTimeout    time.Duration
	Profiles        map[string]Profile
	// ClipProfile names the profile used for re-encoded clips.
	ClipProfile string
}

// OptionsFromConfig resolves transcoder options from application config.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		FFmpeg:          cfg.Tools.FFmpeg,
		ConcatTimeout:   cfg.ConcatTimeout(),
		RemuxTimeout:    cfg.RemuxTimeout(),
		ClipCopyTimeout: cfg.ClipCopyTimeout(),
		AudioTimeout:    cfg.AudioExtractTimeout(),
		Profiles:        make(map[string]Profile, len(cfg.Profiles)),
		ClipProfile:     config.ProfileHigh,
	}
	for name, p := range cfg.Profiles {
		opts.Profiles[name] = Profile{
			Name:         name,
			VideoCodec:   p.VideoCodec,
			AudioCodec:   p.AudioCodec,
			Preset:       p.Preset,
			CRF:          p.CRF,
			AudioBitrate: p.AudioBitrate,
			Timeout:      p.TimeoutDuration(),
		}
	}
	return opts
}

// Transcoder issues ffmpeg invocations through a Runner.
type Transcoder struct {
	runner Runner
	opts   Options
	logger *slog.Logger
}

// New constructs a Transcoder. A nil runner uses ExecRunner.
func New(runner Runner, opts Options, logger *slog.Logger) *Transcoder {
	if runner == nil {
		runner = ExecRunner{}
	}
	if strings.TrimSpace(opts.FFmpeg) == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.ClipProfile == "" {
		opts.ClipProfile = config.ProfileHigh
	}
	return &Transcoder{runner: runner, opts: opts, logger: logging.NewComponentLogger(logger, "transcoder")}
}

// Runner exposes the underlying runner so sibling boundaries share it.
func (t *Transcoder) Runner() Runner {
	return t.runner
}

// Profile returns the named profile.
func (t *Transcoder) Profile(name string) (Profile, error) {
	p, ok := t.opts.Profiles[name]
	if !ok {
		return Profile{}, services.Wrap(services.ErrConfiguration, "transcoder", "profile", fmt.Sprintf("unknown profile %q", name), nil)
	}
	return p, nil
}

// Concatenate joins inputs (names inside dir, in order) into output with
// stream copy. The demuxer playlist is a hidden file in dir and is removed on
// every exit path.
func (t *Transcoder) Concatenate(ctx context.Context, dir string, inputs []string, output string) (Completion, error) {
	if len(inputs) < 2 {
		return Completion{}, services.Wrap(services.ErrInsufficientInputs, "transcoder", "concatenate",
			fmt.Sprintf("need at least 2 inputs, got %d", len(inputs)), nil)
	}

	playlist, err := writePlaylist(dir, inputs)
	if err != nil {
		return Completion{}, services.Wrap(services.ErrIO, "transcoder", "concatenate", "write playlist", err)
	}
	defer func() {
		if err := os.Remove(playlist); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(logging.WithContext(ctx, t.logger), "playlist cleanup failed", "cleanup_failed",
				logging.String("playlist", playlist),
				logging.Error(err),
				logging.String(logging.FieldImpact, "a hidden playlist file remains in the working directory"),
				logging.String(logging.FieldErrorHint, "the stale artifact sweep will remove it"),
			)
		}
	}()

	args := baseArgs()
	args = append(args, "-f", "concat", "-safe", "0", "-i", playlist, "-c", "copy", output)
	return t.run(ctx, "concatenate", Invocation{Binary: t.opts.FFmpeg, Args: args, Dir: dir, Timeout: t.opts.ConcatTimeout}, output)
}

// Remux rewrites the container without touching the streams.
func (t *Transcoder) Remux(ctx context.Context, input, output string) (Completion, error) {
	args := append(baseArgs(), "-i", input, "-c", "copy", output)
	return t.run(ctx, "remux", Invocation{Binary: t.opts.FFmpeg, Args: args, Timeout: t.opts.RemuxTimeout}, output)
}

// ReEncode transcodes input with the named profile.
func (t *Transcoder) ReEncode(ctx context.Context, input, output, profileName string) (Completion, error) {
	profile, err := t.Profile(profileName)
	if err != nil {
		return Completion{}, err
	}
	args := append(baseArgs(), "-i", input)
	args = append(args, encodeArgs(profile)...)
	args = append(args, output)
	return t.run(ctx, "re-encode", Invocation{Binary: t.opts.FFmpeg, Args: args, Timeout: profile.Timeout}, output)
}

// Clip writes at most maxSeconds of input to output.
func (t *Transcoder) Clip(ctx context.Context, input, output string, maxSeconds float64, mode ClipMode) (Completion, error) {
	if maxSeconds <= 0 {
		return Completion{}, services.Wrap(services.ErrValidation, "transcoder", "clip", "clip length must be positive", nil)
	}
	args := append(baseArgs(), "-i", input, "-t", strconv.FormatFloat(maxSeconds, 'f', -1, 64))
	inv := Invocation{Binary: t.opts.FFmpeg}
	switch mode {
	case ClipStreamCopy:
		args = append(args, "-c", "copy")
		inv.Timeout = t.opts.ClipCopyTimeout
	case ClipReEncode:
		profile, err := t.Profile(t.opts.ClipProfile)
		if err != nil {
			return Completion{}, err
		}
		args = append(args, encodeArgs(profile)...)
		inv.Timeout = profile.Timeout
	default:
		return Completion{}, services.Wrap(services.ErrValidation, "transcoder", "clip", fmt.Sprintf("unknown clip mode %q", mode), nil)
	}
	inv.Args = append(args, output)
	return t.run(ctx, "clip "+string(mode), inv, output)
}

// ExtractAudio writes a mono 16 kHz PCM WAV suitable for speech-to-text.
func (t *Transcoder) ExtractAudio(ctx context.Context, input, output string) (Completion, error) {
	args := append(baseArgs(), "-i", input, "-vn", "-sn", "-dn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le", output)
	return t.run(ctx, "extract audio", Invocation{Binary: t.opts.FFmpeg, Args: args, Timeout: t.opts.AudioTimeout}, output)
}

func (t *Transcoder) run(ctx context.Context, step string, inv Invocation, output string) (Completion, error) {
	logger := logging.WithContext(ctx, t.logger)
	logger.Debug("ffmpeg invocation",
		logging.String("step", step),
		logging.String("command", inv.String()),
		logging.Duration("timeout", inv.Timeout),
	)

	completion, err := t.runner.Run(ctx, inv)
	if err != nil {
		logger.Debug("ffmpeg failed",
			logging.String("step", step),
			logging.Int("exit_code", completion.ExitCode),
			logging.Duration("elapsed", completion.Elapsed),
			logging.Error(err),
		)
		return completion, fmt.Errorf("%s %s: %w", step, filepath.Base(output), err)
	}

	path := output
	if !filepath.IsAbs(path) && inv.Dir != "" {
		path = filepath.Join(inv.Dir, path)
	}
	size, verr := fileutil.NonEmptyFile(path)
	if verr != nil {
		toolErr := &services.ToolError{
			Tool:       inv.Binary,
			ExitCode:   completion.ExitCode,
			Diagnostic: completion.Diagnostic(),
			Err:        fmt.Errorf("output check: %w", verr),
		}
		return completion, fmt.Errorf("%s %s: %w", step, filepath.Base(output), toolErr)
	}

	logger.Debug("ffmpeg finished",
		logging.String("step", step),
		logging.Duration("elapsed", completion.Elapsed),
		logging.Int64("output_bytes", size),
	)
	return completion, nil
}

func baseArgs() []string {
	return []string{"-y", "-hide_banner", "-loglevel", "error"}
}

func encodeArgs(p Profile) []string {
	args := []string{"-c:v", p.VideoCodec}
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	args = append(args, "-crf", strconv.Itoa(p.CRF), "-c:a", p.AudioCodec)
	if p.AudioBitrate != "" {
		args = append(args, "-b:a", p.AudioBitrate)
	}
	return args
}

// writePlaylist writes the concat demuxer list. Single quotes inside names are
// closed, escaped, and reopened as the demuxer requires.
func writePlaylist(dir string, inputs []string) (string, error) {
	file, err := os.CreateTemp(dir, ".concat-*.txt")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, name := range inputs {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(name, "'", `'\''`))
		b.WriteString("'\n")
	}
	if _, err := file.WriteString(b.String()); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}
