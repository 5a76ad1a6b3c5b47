package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound       = errors.New("input not found")
	ErrInsufficientInputs  = errors.New("insufficient inputs")
	ErrInvalidPlatform     = errors.New("invalid platform")
	ErrProbe               = errors.New("probe failed")
	ErrProcess             = errors.New("process failed")
	ErrTimeout             = errors.New("timeout")
	ErrConversionFailed    = errors.New("conversion failed")
	ErrSizeLimitExceeded   = errors.New("size limit exceeded")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrIO                  = errors.New("io error")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
)

// Kind names used in result payloads and API responses.
const (
	KindInputNotFound       = "input_not_found"
	KindInsufficientInputs  = "insufficient_inputs"
	KindInvalidPlatform     = "invalid_platform"
	KindProbe               = "probe_error"
	KindProcess             = "process_error"
	KindTimeout             = "timeout"
	KindConversionFailed    = "conversion_failed"
	KindSizeLimitExceeded   = "size_limit_exceeded"
	KindTranscriptionFailed = "transcription_failed"
	KindIO                  = "io_error"
	KindValidation          = "validation"
	KindConfiguration       = "configuration"
	KindUnknown             = "unknown"
)

// kindOrder lists markers from most to least specific. Composite failures such
// as a conversion that exhausted every strategy wrap a process or timeout error,
// so the composite marker must win.
var kindOrder = []struct {
	marker error
	kind   string
}{
	{ErrConversionFailed, KindConversionFailed},
	{ErrTranscriptionFailed, KindTranscriptionFailed},
	{ErrSizeLimitExceeded, KindSizeLimitExceeded},
	{ErrInputNotFound, KindInputNotFound},
	{ErrInsufficientInputs, KindInsufficientInputs},
	{ErrInvalidPlatform, KindInvalidPlatform},
	{ErrValidation, KindValidation},
	{ErrConfiguration, KindConfiguration},
	{ErrProbe, KindProbe},
	{ErrTimeout, KindTimeout},
	{ErrProcess, KindProcess},
	{ErrIO, KindIO},
}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the classification of err, or KindUnknown when no marker matches.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kindOrder {
		if errors.Is(err, entry.marker) {
			return entry.kind
		}
	}
	return KindUnknown
}

// IsPrecondition reports whether err was raised before any external work began
// because the request itself could not be satisfied.
func IsPrecondition(err error) bool {
	switch Kind(err) {
	case KindInputNotFound, KindInsufficientInputs, KindInvalidPlatform, KindSizeLimitExceeded, KindValidation:
		return true
	default:
		return false
	}
}

// ToolError records a failed external tool invocation. Diagnostic holds the
// captured stderr (or stdout when stderr is empty) exactly as the tool wrote it.
type ToolError struct {
	Tool       string
	ExitCode   int
	Diagnostic string
	TimedOut   bool
	Err        error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	if e.TimedOut {
		b.WriteString(": timed out")
	} else if e.ExitCode != 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if diag := strings.TrimSpace(e.Diagnostic); diag != "" {
		b.WriteString(": ")
		b.WriteString(diag)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is classify a ToolError as a timeout or process failure
// without an extra Wrap layer.
func (e *ToolError) Is(target error) bool {
	if e.TimedOut {
		return target == ErrTimeout
	}
	return target == ErrProcess
}

// ErrorDetails is the user-facing breakdown of an operation failure.
type ErrorDetails struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Details extracts the kind, message, and the innermost tool diagnostic.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: Kind(err), Message: err.Error()}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		details.Diagnostic = toolErr.Diagnostic
	}
	return details
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
