package config

const (
	defaultConfigPath        = "~/.config/reelforge/config.toml"
	projectConfigName        = "reelforge.toml"
	defaultWorkDir           = "~/Videos/reelforge"
	defaultStateDir          = "~/.local/share/reelforge"
	defaultLogDir            = "~/.local/share/reelforge/logs"
	defaultAPIBind           = "127.0.0.1:7490"
	defaultFFmpeg            = "ffmpeg"
	defaultFFprobe           = "ffprobe"
	defaultUVX               = "uvx"
	defaultOutputBasename    = "output"
	defaultSegmentExtension  = ".mkv"
	defaultConvertedExt      = ".mp4"
	defaultSegmentPattern    = `(?i)^(\d|segment)`
	defaultProbeTimeout      = 30
	defaultConcatTimeout     = 300
	defaultRemuxTimeout      = 60
	defaultClipCopyTimeout   = 60
	defaultAudioTimeout      = 300
	defaultTranscribeTimeout = 3600
	defaultProfileTimeout    = 600
	defaultCopyTolerance     = 2.0
	defaultEngine            = "whisper"
	defaultWhisperBinary     = "whisper"
	defaultWhisperModel      = "base"
	defaultIntervalSeconds   = 10
	defaultLinesPerMarker    = 3
	defaultHistoryFile       = "history.db"
	defaultStagingMaxAge     = 24
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"

	// ProfileStandard is the container-conversion fallback profile.
	ProfileStandard = "standard"
	// ProfileHigh is the platform clip profile.
	ProfileHigh = "high"

	EngineWhisper  = "whisper"
	EngineWhisperX = "whisperx"
)

func builtinProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileStandard: {
			VideoCodec: "libx264",
			AudioCodec: "aac",
			Preset:     "ultrafast",
			CRF:        23,
			Timeout:    defaultProfileTimeout,
		},
		ProfileHigh: {
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			Preset:       "medium",
			CRF:          18,
			AudioBitrate: "192k",
			Timeout:      defaultProfileTimeout,
		},
	}
}

// Default returns a Config populated with repository defaults. WorkDir stays
// empty so REELFORGE_WORK_DIR can fill it during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			UVX:     defaultUVX,
		},
		Catalog: Catalog{
			OutputBasename:     defaultOutputBasename,
			SegmentExtension:   defaultSegmentExtension,
			ConvertedExtension: defaultConvertedExt,
			SegmentPattern:     defaultSegmentPattern,
		},
		Timeouts: Timeouts{
			Probe:        defaultProbeTimeout,
			Concat:       defaultConcatTimeout,
			Remux:        defaultRemuxTimeout,
			ClipCopy:     defaultClipCopyTimeout,
			AudioExtract: defaultAudioTimeout,
			Transcribe:   defaultTranscribeTimeout,
		},
		Profiles: builtinProfiles(),
		Clip: Clip{
			CopyToleranceSeconds: defaultCopyTolerance,
		},
		Transcription: Transcription{
			Engine:          defaultEngine,
			Model:           defaultWhisperModel,
			IntervalSeconds: defaultIntervalSeconds,
			LinesPerMarker:  defaultLinesPerMarker,
		},
		History: History{
			Enabled: true,
		},
		Staging: Staging{
			MaxAgeHours: defaultStagingMaxAge,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			OnSuccess:      true,
			OnFailure:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
