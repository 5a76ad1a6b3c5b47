package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/services"
)

// DefaultTimeout bounds a duration probe when the caller supplies none.
const DefaultTimeout = 30 * time.Second

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	CodecTag   string `json:"codec_tag_string"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

type commandFunc func(ctx context.Context, binary string, args ...string) (stdout, stderr []byte, err error)

var runCommand commandFunc = execCommand

func execCommand(ctx context.Context, binary string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// SetCommandForTests swaps the process runner and returns a restore func.
func SetCommandForTests(fn func(ctx context.Context, binary string, args ...string) ([]byte, []byte, error)) func() {
	prev := runCommand
	if fn == nil {
		runCommand = execCommand
	} else {
		runCommand = fn
	}
	return func() { runCommand = prev }
}

// Prober binds Duration to a configured binary and timeout.
type Prober struct {
	Binary  string
	Timeout time.Duration
}

// Duration probes path using the prober's binary and timeout.
func (p Prober) Duration(ctx context.Context, path string) (float64, error) {
	return Duration(ctx, p.Binary, path, p.Timeout)
}

// Duration returns the container duration of path in seconds.
func Duration(ctx context.Context, binary string, path string, timeout time.Duration) (float64, error) {
	binary = defaultBinary(binary)
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, services.Wrap(services.ErrProbe, "ffprobe", "duration", "empty path", nil)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, err := runCommand(probeCtx, binary, "-v", "quiet", "-show_entries", "format=duration", "-of", "csv=p=0", path)
	if err != nil {
		toolErr := &services.ToolError{Tool: binary, Diagnostic: diagnostic(stdout, stderr), Err: err}
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			toolErr.TimedOut = true
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return 0, services.Wrap(services.ErrProbe, "ffprobe", "duration", path, toolErr)
	}

	value, err := parseDuration(stdout)
	if err != nil {
		toolErr := &services.ToolError{Tool: binary, Diagnostic: diagnostic(stdout, stderr), Err: err}
		return 0, services.Wrap(services.ErrProbe, "ffprobe", "duration", path, toolErr)
	}
	return value, nil
}

// parseDuration accepts exactly one finite, non-negative number.
func parseDuration(output []byte) (float64, error) {
	tokens := strings.Fields(string(output))
	if len(tokens) != 1 {
		return 0, fmt.Errorf("expected one duration value, got %d tokens", len(tokens))
	}
	value, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", tokens[0], err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, fmt.Errorf("invalid duration %q", tokens[0])
	}
	return value, nil
}

func diagnostic(stdout, stderr []byte) string {
	if s := strings.TrimSpace(string(stderr)); s != "" {
		return string(stderr)
	}
	return string(stdout)
}

func defaultBinary(binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "ffprobe"
	}
	return binary
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = defaultBinary(binary)
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	stdout, stderr, err := runCommand(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		toolErr := &services.ToolError{Tool: binary, Diagnostic: diagnostic(stdout, stderr), Err: err}
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "inspect", path, toolErr)
	}

	var result Result
	if err := json.Unmarshal(stdout, &result); err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "inspect", "parse output", err)
	}
	result.raw = append([]byte(nil), stdout...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// Codecs lists codec names in stream order, e.g. ["h264", "aac"].
func (r Result) Codecs() []string {
	out := make([]string, 0, len(r.Streams))
	for _, stream := range r.Streams {
		if stream.CodecName != "" {
			out = append(out, stream.CodecName)
		}
	}
	return out
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
