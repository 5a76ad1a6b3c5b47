package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"reelforge/internal/config"
)

// Requirement defines an external tool the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the tools cfg points at. The transcription entry follows
// the configured engine: whisper needs its own binary, whisperx runs through uvx.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Required for concatenate, convert, clip, and audio extraction"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Required for duration probing"},
	}
	switch cfg.Transcription.Engine {
	case config.EngineWhisperX:
		reqs = append(reqs, Requirement{Name: "uvx", Command: cfg.Tools.UVX, Description: "Runs whisperx for transcription", Optional: true})
	default:
		reqs = append(reqs, Requirement{Name: "Whisper", Command: cfg.Transcription.Binary, Description: "Required for transcription", Optional: true})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional tools.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
