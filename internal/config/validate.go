package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"reelforge/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if c.Clip.CopyToleranceSeconds < 0 {
		return errors.New("clip.copy_tolerance_seconds must be zero or positive")
	}
	if c.Staging.MaxAgeHours < 0 {
		return errors.New("staging.max_age_hours must be positive")
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set (or export REELFORGE_WORK_DIR)")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if strings.ContainsAny(c.Catalog.OutputBasename, `/\`) {
		return fmt.Errorf("catalog.output_basename %q must not contain path separators", c.Catalog.OutputBasename)
	}
	if c.Catalog.SegmentExtension == c.Catalog.ConvertedExtension {
		return fmt.Errorf("catalog.segment_extension and catalog.converted_extension must differ (both %q)", c.Catalog.SegmentExtension)
	}
	if _, err := regexp.Compile(c.Catalog.SegmentPattern); err != nil {
		return fmt.Errorf("catalog.segment_pattern: %w", err)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	checks := []struct {
		key   string
		value int
	}{
		{"timeouts.probe", c.Timeouts.Probe},
		{"timeouts.concat", c.Timeouts.Concat},
		{"timeouts.remux", c.Timeouts.Remux},
		{"timeouts.clip_copy", c.Timeouts.ClipCopy},
		{"timeouts.audio_extract", c.Timeouts.AudioExtract},
		{"timeouts.transcribe", c.Timeouts.Transcribe},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive seconds", check.key)
		}
	}
	return nil
}

func (c *Config) validateProfiles() error {
	for _, required := range []string{ProfileStandard, ProfileHigh} {
		if _, ok := c.Profiles[required]; !ok {
			return fmt.Errorf("profiles.%s must be defined", required)
		}
	}
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := c.Profiles[name]
		if p.CRF < 0 || p.CRF > 51 {
			return fmt.Errorf("profiles.%s.crf must be between 0 and 51", name)
		}
		if p.Timeout <= 0 {
			return fmt.Errorf("profiles.%s.timeout must be positive seconds", name)
		}
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Engine {
	case EngineWhisper:
		if c.Transcription.Binary == "" {
			return errors.New("transcription.binary must be set for the whisper engine (or export WHISPER_BIN)")
		}
	case EngineWhisperX:
	default:
		return fmt.Errorf("transcription.engine: unsupported value %q (use whisper or whisperx)", c.Transcription.Engine)
	}
	if c.Transcription.IntervalSeconds <= 0 {
		return errors.New("transcription.interval_seconds must be positive")
	}
	if c.Transcription.LinesPerMarker <= 0 {
		return errors.New("transcription.lines_per_marker must be positive")
	}
	if lang := c.Transcription.Language; lang != "" && language.Code(lang) == "" {
		return fmt.Errorf("transcription.language: unrecognized language %q (use a code such as en or a name such as English)", lang)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
