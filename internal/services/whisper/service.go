package whisper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/config"
	langcode "reelforge/internal/language"
	"reelforge/internal/services"
	"reelforge/internal/transcoder"
)

// Service provides transcription through a transcoder.Runner.
type Service struct {
	cfg    Config
	runner transcoder.Runner
}

// NewService creates a service. A nil runner uses transcoder.ExecRunner.
func NewService(cfg Config, runner transcoder.Runner) *Service {
	if runner == nil {
		runner = transcoder.ExecRunner{}
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineWhisper
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.UVX == "" {
		cfg.UVX = DefaultUVX
	}
	return &Service{cfg: cfg, runner: runner}
}

// ConfigFromApp maps application config onto service settings.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		Engine:   cfg.Transcription.Engine,
		Binary:   cfg.Transcription.Binary,
		UVX:      cfg.Tools.UVX,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
		CUDA:     cfg.Transcription.CUDA,
		Timeout:  cfg.TranscribeTimeout(),
	}
}

// Engine returns the configured engine name for logging.
func (s *Service) Engine() string {
	return s.cfg.Engine
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Transcribe runs the engine on audio and returns the raw text it wrote to
// outputDir.
func (s *Service) Transcribe(ctx context.Context, audio, outputDir string) (string, error) {
	if strings.TrimSpace(audio) == "" {
		return "", services.Wrap(services.ErrValidation, "whisper", "transcribe", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audio)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "whisper", "transcribe", "ensure output dir", err)
	}

	inv, err := s.Invocation(audio, outputDir)
	if err != nil {
		return "", err
	}
	completion, err := s.runner.Run(ctx, inv)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.cfg.Engine, err)
	}

	artifact := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))+"."+OutputFormat)
	data, err := os.ReadFile(artifact)
	if err != nil {
		msg := "read transcript"
		if errors.Is(err, fs.ErrNotExist) {
			msg = fmt.Sprintf("%s exited cleanly but wrote no %s", s.cfg.Engine, filepath.Base(artifact))
		}
		toolErr := &services.ToolError{Tool: inv.Binary, ExitCode: completion.ExitCode, Diagnostic: completion.Diagnostic(), Err: err}
		return "", services.Wrap(services.ErrTranscriptionFailed, "whisper", "transcribe", msg, toolErr)
	}
	return string(data), nil
}

// Invocation builds the engine command line.
func (s *Service) Invocation(audio, outputDir string) (transcoder.Invocation, error) {
	switch s.cfg.Engine {
	case EngineWhisper:
		return transcoder.Invocation{
			Binary:  s.cfg.Binary,
			Args:    s.whisperArgs(audio, outputDir),
			Timeout: s.cfg.Timeout,
		}, nil
	case EngineWhisperX:
		inv := transcoder.Invocation{
			Binary:  s.cfg.UVX,
			Args:    s.whisperXArgs(audio, outputDir),
			Timeout: s.cfg.Timeout,
		}
		// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
		if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
			inv.Env = []string{"TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1"}
		}
		return inv, nil
	default:
		return transcoder.Invocation{}, services.Wrap(services.ErrConfiguration, "whisper", "invocation", fmt.Sprintf("unknown engine %q", s.cfg.Engine), nil)
	}
}

func (s *Service) whisperArgs(audio, outputDir string) []string {
	args := []string{
		audio,
		"--model", s.cfg.Model,
		"--output_format", OutputFormat,
		"--output_dir", outputDir,
		"--verbose", "True",
		"--word_timestamps", "True",
	}
	if lang := language(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.CUDA {
		args = append(args, "--device", CUDADevice)
	}
	return args
}

func (s *Service) whisperXArgs(audio, outputDir string) []string {
	args := make([]string, 0, 24)
	if s.cfg.CUDA {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args,
		"whisperx",
		audio,
		"--model", s.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_method", VADMethod,
	)
	if lang := language(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.CUDA {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

func language(value string) string {
	if code := langcode.Code(value); code != "" {
		return code
	}
	return strings.ToLower(strings.TrimSpace(value))
}
