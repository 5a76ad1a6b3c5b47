package whisper

import "time"

// Config captures runtime settings for speech-to-text.
type Config struct {
	// Engine is EngineWhisper or EngineWhisperX.
	Engine string
	// Binary is the whisper executable for EngineWhisper.
	Binary string
	// UVX is the uvx executable used to launch WhisperX.
	UVX string
	// Model is the model name (e.g. "base", "large-v3").
	Model string
	// Language is an optional ISO code; empty lets the engine detect it.
	Language string
	// CUDA enables GPU inference.
	CUDA    bool
	Timeout time.Duration
}

const (
	EngineWhisper  = "whisper"
	EngineWhisperX = "whisperx"

	DefaultModel   = "base"
	DefaultBinary  = "whisper"
	DefaultUVX     = "uvx"
	OutputFormat   = "txt"
	CUDAIndexURL   = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL   = "https://pypi.org/simple"
	CPUDevice      = "cpu"
	CUDADevice     = "cuda"
	CPUComputeType = "float32"
	VADMethod      = "silero"
)
