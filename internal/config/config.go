package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	// APIToken enables bearer authentication when non-empty.
	APIToken string `toml:"api_token"`
}

// Tools names the external executables the pipeline shells out to.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	UVX     string `toml:"uvx"`
}

// Catalog controls how working-directory files are named and classified.
type Catalog struct {
	OutputBasename     string `toml:"output_basename"`
	SegmentExtension   string `toml:"segment_extension"`
	ConvertedExtension string `toml:"converted_extension"`
	SegmentPattern     string `toml:"segment_pattern"`
}

// Timeouts holds per-invocation limits in seconds.
type Timeouts struct {
	Probe        int `toml:"probe"`
	Concat       int `toml:"concat"`
	Remux        int `toml:"remux"`
	ClipCopy     int `toml:"clip_copy"`
	AudioExtract int `toml:"audio_extract"`
	Transcribe   int `toml:"transcribe"`
}

// Profile is a named re-encode recipe.
type Profile struct {
	VideoCodec   string `toml:"video_codec"`
	AudioCodec   string `toml:"audio_codec"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	AudioBitrate string `toml:"audio_bitrate"`
	Timeout      int    `toml:"timeout"`
}

// TimeoutDuration converts the profile timeout to a duration.
func (p Profile) TimeoutDuration() time.Duration {
	return seconds(p.Timeout)
}

// Clip tunes the publishing clip plan.
type Clip struct {
	CopyToleranceSeconds float64 `toml:"copy_tolerance_seconds"`
}

// Transcription configures the speech-to-text engine and transcript layout.
type Transcription struct {
	Engine          string `toml:"engine"`
	Binary          string `toml:"binary"`
	Model           string `toml:"model"`
	Language        string `toml:"language"`
	CUDA            bool   `toml:"cuda"`
	IntervalSeconds int    `toml:"interval_seconds"`
	LinesPerMarker  int    `toml:"lines_per_marker"`
}

// History configures the SQLite operation log.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Staging configures the stale temporary artifact sweep.
type Staging struct {
	MaxAgeHours int `toml:"max_age_hours"`
}

// Notifications configures ntfy delivery of operation outcomes.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnSuccess      bool   `toml:"on_success"`
	OnFailure      bool   `toml:"on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Paths: working directory, state and log directories, API bind address
//   - Tools: ffmpeg, ffprobe, and uvx executables
//   - Catalog: output base name, container extensions, raw segment pattern
//   - Timeouts: per-invocation limits for probe, concat, remux, clip, audio, transcribe
//   - Profiles: named re-encode recipes (standard, high, and user additions)
//   - Clip: stream-copy clip acceptance tolerance
//   - Transcription: whisper engine selection and transcript marker cadence
//   - History: SQLite operation log
//   - Staging: stale temporary artifact sweep
//   - Notifications: ntfy topic and per-outcome toggles
//   - Logging: log format and level
type Config struct {
	Paths         Paths              `toml:"paths"`
	Tools         Tools              `toml:"tools"`
	Catalog       Catalog            `toml:"catalog"`
	Timeouts      Timeouts           `toml:"timeouts"`
	Profiles      map[string]Profile `toml:"profiles"`
	Clip          Clip               `toml:"clip"`
	Transcription Transcription      `toml:"transcription"`
	History       History            `toml:"history"`
	Staging       Staging            `toml:"staging"`
	Notifications Notifications      `toml:"notifications"`
	Logging       Logging            `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The working
// directory is never created; a missing one is reported by preflight.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// DaemonLockPath is the flock guarding a single `reelforge serve` per state dir.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.StateDir, "reelforge.lock")
}

// Profile returns the named re-encode profile.
func (c *Config) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

func (c *Config) ProbeTimeout() time.Duration        { return seconds(c.Timeouts.Probe) }
func (c *Config) ConcatTimeout() time.Duration       { return seconds(c.Timeouts.Concat) }
func (c *Config) RemuxTimeout() time.Duration        { return seconds(c.Timeouts.Remux) }
func (c *Config) ClipCopyTimeout() time.Duration     { return seconds(c.Timeouts.ClipCopy) }
func (c *Config) AudioExtractTimeout() time.Duration { return seconds(c.Timeouts.AudioExtract) }
func (c *Config) TranscribeTimeout() time.Duration   { return seconds(c.Timeouts.Transcribe) }

// StaleAge is the age after which abandoned temporary artifacts are swept.
func (c *Config) StaleAge() time.Duration {
	return time.Duration(c.Staging.MaxAgeHours) * time.Hour
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
