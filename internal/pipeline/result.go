package pipeline

import (
	"time"

	"reelforge/internal/catalog"
	"reelforge/internal/conversion"
	"reelforge/internal/services"
)

// Operation names used in results, logs, metrics, and history.
const (
	OpConcatenate     = "concatenate"
	OpConvert         = "convert"
	OpGenerateClip    = "generate_clip"
	OpPrepare         = "prepare_for_platform"
	OpTranscribe      = "transcribe"
	OpList            = "list"
	OpDeleteThumbnail = "delete_thumbnail"
	OpPublish         = "publish"
)

// Outcome distinguishes work done, nothing to do, and failure.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeNoAction  Outcome = "no_action"
	OutcomeFailed    Outcome = "failed"
)

// Result reports one controller operation. Payload fields are set only by
// the operations they apply to.
type Result struct {
	ID        string                 `json:"id"`
	Operation string                 `json:"operation"`
	Success   bool                   `json:"success"`
	Outcome   Outcome                `json:"outcome"`
	Message   string                 `json:"message"`
	Error     *services.ErrorDetails `json:"error,omitempty"`

	Files    []string            `json:"files,omitempty"`
	Videos   []catalog.MediaFile `json:"videos,omitempty"`
	Renamed  []catalog.Rename    `json:"renamed,omitempty"`
	Output   string              `json:"output,omitempty"`
	Strategy string              `json:"strategy,omitempty"`
	Platform string              `json:"platform,omitempty"`

	OriginalDuration      float64 `json:"original_duration,omitempty"`
	OriginalDurationClock string  `json:"original_duration_clock,omitempty"`
	FinalDuration         float64 `json:"final_duration,omitempty"`
	FinalDurationClock    string  `json:"final_duration_clock,omitempty"`
	SizeBytes             int64   `json:"size_bytes,omitempty"`
	SizeMB                string  `json:"size_mb,omitempty"`
	Cut                   bool    `json:"cut,omitempty"`

	Attempts []conversion.Attempt `json:"attempts,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Elapsed is the wall time the operation took.
func (r Result) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ErrorKind returns the error kind or an empty string on success.
func (r Result) ErrorKind() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Kind
}
