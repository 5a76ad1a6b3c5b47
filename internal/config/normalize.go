package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeCatalog()
	c.normalizeTimeouts()
	c.normalizeProfiles()
	c.normalizeTranscription()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if c.Staging.MaxAgeHours == 0 {
		c.Staging.MaxAgeHours = defaultStagingMaxAge
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		if value, ok := os.LookupEnv("REELFORGE_WORK_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.WorkDir = value
		} else {
			c.Paths.WorkDir = defaultWorkDir
		}
	}
	var err error
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = strings.TrimSpace(os.Getenv("REELFORGE_API_TOKEN"))
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = defaultString(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.FFprobe = defaultString(c.Tools.FFprobe, defaultFFprobe)
	c.Tools.UVX = defaultString(c.Tools.UVX, defaultUVX)
}

func (c *Config) normalizeCatalog() {
	c.Catalog.OutputBasename = defaultString(c.Catalog.OutputBasename, defaultOutputBasename)
	c.Catalog.SegmentExtension = normalizeExtension(defaultString(c.Catalog.SegmentExtension, defaultSegmentExtension))
	c.Catalog.ConvertedExtension = normalizeExtension(defaultString(c.Catalog.ConvertedExtension, defaultConvertedExt))
	c.Catalog.SegmentPattern = defaultString(c.Catalog.SegmentPattern, defaultSegmentPattern)
}

func (c *Config) normalizeTimeouts() {
	fill := func(v *int, fallback int) {
		if *v == 0 {
			*v = fallback
		}
	}
	fill(&c.Timeouts.Probe, defaultProbeTimeout)
	fill(&c.Timeouts.Concat, defaultConcatTimeout)
	fill(&c.Timeouts.Remux, defaultRemuxTimeout)
	fill(&c.Timeouts.ClipCopy, defaultClipCopyTimeout)
	fill(&c.Timeouts.AudioExtract, defaultAudioTimeout)
	fill(&c.Timeouts.Transcribe, defaultTranscribeTimeout)
}

// normalizeProfiles restores the builtin profiles when a config file omits or
// partially overrides them, and fills codec and timeout gaps on custom ones.
func (c *Config) normalizeProfiles() {
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	builtins := builtinProfiles()
	for name, builtin := range builtins {
		if _, ok := c.Profiles[name]; !ok {
			c.Profiles[name] = builtin
		}
	}
	normalized := make(map[string]Profile, len(c.Profiles))
	for name, p := range c.Profiles {
		key := strings.ToLower(strings.TrimSpace(name))
		p.VideoCodec = defaultString(p.VideoCodec, "libx264")
		p.AudioCodec = defaultString(p.AudioCodec, "aac")
		p.Preset = strings.TrimSpace(p.Preset)
		p.AudioBitrate = strings.TrimSpace(p.AudioBitrate)
		if p.Timeout == 0 {
			p.Timeout = defaultProfileTimeout
		}
		normalized[key] = p
	}
	c.Profiles = normalized
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Engine = strings.ToLower(defaultString(c.Transcription.Engine, defaultEngine))
	if strings.TrimSpace(c.Transcription.Binary) == "" {
		if value, ok := os.LookupEnv("WHISPER_BIN"); ok && strings.TrimSpace(value) != "" {
			c.Transcription.Binary = strings.TrimSpace(value)
		} else if c.Transcription.Engine == EngineWhisper {
			c.Transcription.Binary = defaultWhisperBinary
		}
	}
	c.Transcription.Model = defaultString(c.Transcription.Model, defaultWhisperModel)
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if code := language.Code(c.Transcription.Language); code != "" {
		c.Transcription.Language = code
	}
	if c.Transcription.IntervalSeconds == 0 {
		c.Transcription.IntervalSeconds = defaultIntervalSeconds
	}
	if c.Transcription.LinesPerMarker == 0 {
		c.Transcription.LinesPerMarker = defaultLinesPerMarker
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = strings.TrimSpace(os.Getenv("REELFORGE_NTFY_TOPIC"))
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaultString(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(defaultString(c.Logging.Level, defaultLogLevel))
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
