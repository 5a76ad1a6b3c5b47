package api

import (
	"time"

	"reelforge/internal/catalog"
	"reelforge/internal/conversion"
	"reelforge/internal/deps"
	"reelforge/internal/history"
	"reelforge/internal/pipeline"
	"reelforge/internal/preflight"
	"reelforge/internal/services"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// VideoFile describes a working-directory entry.
type VideoFile struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Tier     int    `json:"tier"`
	Size     int64  `json:"size"`
	Modified string `json:"modified,omitempty"`
}

// Rename records a publish rename.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Attempt describes one transcoder run.
type Attempt struct {
	Strategy   string  `json:"strategy"`
	State      string  `json:"state"`
	Success    bool    `json:"success"`
	ExitCode   int     `json:"exitCode"`
	Diagnostic string  `json:"diagnostic,omitempty"`
	Error      string  `json:"error,omitempty"`
	ElapsedMS  float64 `json:"elapsedMs"`
}

// ErrorInfo is the failure breakdown of an operation.
type ErrorInfo struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// OperationResult is the wire form of a controller result.
type OperationResult struct {
	ID        string     `json:"id"`
	Operation string     `json:"operation"`
	Success   bool       `json:"success"`
	Outcome   string     `json:"outcome"`
	Message   string     `json:"message"`
	Error     *ErrorInfo `json:"error,omitempty"`

	Files    []string    `json:"files,omitempty"`
	Videos   []VideoFile `json:"videos,omitempty"`
	Renamed  []Rename    `json:"renamed,omitempty"`
	Output   string      `json:"outputFilename,omitempty"`
	Strategy string      `json:"strategy,omitempty"`
	Platform string      `json:"platform,omitempty"`

	OriginalDuration      float64 `json:"originalDuration,omitempty"`
	OriginalDurationClock string  `json:"originalDurationFormatted,omitempty"`
	FinalDuration         float64 `json:"finalDuration,omitempty"`
	FinalDurationClock    string  `json:"finalDurationFormatted,omitempty"`
	SizeBytes             int64   `json:"sizeBytes,omitempty"`
	SizeMB                string  `json:"sizeMB,omitempty"`
	Cut                   bool    `json:"cut,omitempty"`

	Attempts []Attempt `json:"attempts,omitempty"`

	StartedAt  string `json:"startedAt,omitempty"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// HistoryEntry is one recorded operation.
type HistoryEntry struct {
	OperationResult
	WorkDir string `json:"workDir,omitempty"`
}

// HistoryResponse wraps a page of history entries.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// LogsResponse is one window of the log file. Offset resumes the next read.
type LogsResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult is one preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Status aggregates daemon runtime information for API consumers.
type Status struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	WorkDir      string             `json:"workDir"`
	LockFilePath string             `json:"lockFilePath"`
	HistoryPath  string             `json:"historyPath,omitempty"`
	StartedAt    string             `json:"startedAt,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks"`
}

// ClipRequest is the body of the social video endpoints.
type ClipRequest struct {
	Platform string `json:"platform"`
	Filename string `json:"filename"`
}

// FileRequest is the body of the transcribe and thumbnail endpoints.
type FileRequest struct {
	Filename string `json:"filename"`
}

// PublishRequest is the body of the publish endpoint.
type PublishRequest struct {
	Title string `json:"title"`
}

// ErrorResponse is returned when a request never reached the controller.
type ErrorResponse struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error"`
	Message string     `json:"message"`
}

// FromResult converts a controller result into its wire form.
func FromResult(res pipeline.Result) OperationResult {
	out := OperationResult{
		ID:                    res.ID,
		Operation:             res.Operation,
		Success:               res.Success,
		Outcome:               string(res.Outcome),
		Message:               res.Message,
		Files:                 res.Files,
		Output:                res.Output,
		Strategy:              res.Strategy,
		Platform:              res.Platform,
		OriginalDuration:      res.OriginalDuration,
		OriginalDurationClock: res.OriginalDurationClock,
		FinalDuration:         res.FinalDuration,
		FinalDurationClock:    res.FinalDurationClock,
		SizeBytes:             res.SizeBytes,
		SizeMB:                res.SizeMB,
		Cut:                   res.Cut,
		StartedAt:             formatTime(res.StartedAt),
		FinishedAt:            formatTime(res.FinishedAt),
	}
	if res.Error != nil {
		out.Error = &ErrorInfo{Kind: res.Error.Kind, Message: res.Error.Message, Diagnostic: res.Error.Diagnostic}
	}
	if res.Operation == pipeline.OpList {
		// An empty directory still lists as an empty array.
		out.Videos = make([]VideoFile, 0, len(res.Videos))
	}
	for _, v := range res.Videos {
		out.Videos = append(out.Videos, FromMediaFile(v))
	}
	for _, r := range res.Renamed {
		out.Renamed = append(out.Renamed, Rename{From: r.From, To: r.To})
	}
	for _, a := range res.Attempts {
		out.Attempts = append(out.Attempts, FromAttempt(a))
	}
	return out
}

// FromMediaFile converts a catalog entry.
func FromMediaFile(f catalog.MediaFile) VideoFile {
	return VideoFile{
		Name:     f.Name,
		Category: string(f.Category),
		Tier:     f.Tier,
		Size:     f.Size,
		Modified: formatTime(f.ModTime),
	}
}

// FromAttempt converts a conversion attempt.
func FromAttempt(a conversion.Attempt) Attempt {
	return Attempt{
		Strategy:   string(a.Strategy),
		State:      string(a.State),
		Success:    a.Success,
		ExitCode:   a.ExitCode,
		Diagnostic: a.Diagnostic,
		Error:      a.Error,
		ElapsedMS:  float64(a.Elapsed) / float64(time.Millisecond),
	}
}

// FromRecord converts a history record. Records whose payload cannot be
// decoded fall back to the indexed columns.
func FromRecord(rec history.Record) HistoryEntry {
	res, err := pipeline.FromRecord(rec)
	if err != nil {
		res = pipeline.Result{
			ID:         rec.ID,
			Operation:  rec.Operation,
			Success:    rec.Success,
			Outcome:    pipeline.Outcome(rec.Outcome),
			Message:    rec.Message,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
		}
		if rec.ErrorKind != "" {
			res.Error = &services.ErrorDetails{Kind: rec.ErrorKind, Message: rec.ErrorDetail}
		}
	}
	return HistoryEntry{OperationResult: FromResult(res), WorkDir: rec.WorkDir}
}

// FromDependencies converts dependency statuses.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
