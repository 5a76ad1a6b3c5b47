package main

import (
	"fmt"
	"strings"
	"time"

	"reelforge/internal/conversion"
	"reelforge/internal/pipeline"
	"reelforge/internal/platform"
)

var operationLabels = map[string]string{
	pipeline.OpConcatenate:     "Concatenate",
	pipeline.OpConvert:         "Convert",
	pipeline.OpGenerateClip:    "Clip",
	pipeline.OpPrepare:         "Prepare",
	pipeline.OpTranscribe:      "Transcribe",
	pipeline.OpList:            "List",
	pipeline.OpDeleteThumbnail: "Thumbnail",
	pipeline.OpPublish:         "Publish",
}

func operationLabel(op string) string {
	if label, ok := operationLabels[op]; ok {
		return label
	}
	return op
}

func outcomeKind(res pipeline.Result) statusKind {
	switch res.Outcome {
	case pipeline.OutcomeCompleted:
		return statusOK
	case pipeline.OutcomeNoAction:
		return statusInfo
	default:
		return statusError
	}
}

// renderResult formats a result for the terminal.
func renderResult(res pipeline.Result, colorize bool) string {
	if res.Operation == pipeline.OpList && res.Error == nil {
		return renderVideos(res)
	}

	var b strings.Builder
	b.WriteString(renderStatusLine(operationLabel(res.Operation), outcomeKind(res), res.Message, colorize))
	b.WriteByte('\n')

	for _, line := range detailLines(res) {
		b.WriteString(statusIndent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(res.Attempts) > 0 {
		b.WriteString(renderAttempts(res.Attempts))
		b.WriteByte('\n')
	}
	if res.Error != nil && strings.TrimSpace(res.Error.Diagnostic) != "" {
		b.WriteString(statusIndent + "Diagnostic:\n")
		for _, line := range strings.Split(strings.TrimRight(res.Error.Diagnostic, "\n"), "\n") {
			b.WriteString(statusIndent + statusIndent + line + "\n")
		}
	}
	return b.String()
}

func detailLines(res pipeline.Result) []string {
	var lines []string
	add := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, fmt.Sprintf("%-*s %s", statusLabelWidth, label+":", value))
	}
	add("Output", res.Output)
	add("Strategy", res.Strategy)
	if res.Platform != "" {
		if limit, err := platform.Lookup(res.Platform); err == nil {
			add("Platform", fmt.Sprintf("%s (max %s, %s MB)", limit.Label, limit.MaxDurationLabel(), platform.SizeMB(limit.MaxSizeBytes)))
		} else {
			add("Platform", res.Platform)
		}
	}
	add("Original duration", res.OriginalDurationClock)
	add("Final duration", res.FinalDurationClock)
	if res.SizeBytes > 0 {
		add("Size", res.SizeMB+" MB")
	}
	for _, r := range res.Renamed {
		add("Renamed", r.From+" -> "+r.To)
	}
	if len(res.Files) > 0 && len(res.Renamed) == 0 {
		add("Inputs", strings.Join(res.Files, ", "))
	}
	return lines
}

func renderVideos(res pipeline.Result) string {
	if len(res.Videos) == 0 {
		return "No media files found\n"
	}
	rows := make([][]string, 0, len(res.Videos))
	for _, v := range res.Videos {
		rows = append(rows, []string{
			v.Name,
			string(v.Category),
			formatBytes(v.Size),
			v.ModTime.Local().Format("2006-01-02 15:04"),
		})
	}
	return renderTable(
		[]string{"Name", "Category", "Size", "Modified"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	) + "\n"
}

func renderAttempts(attempts []conversion.Attempt) string {
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		result := "ok"
		if !a.Success {
			result = fmt.Sprintf("exit %d", a.ExitCode)
		}
		rows = append(rows, []string{
			string(a.Strategy),
			result,
			a.Elapsed.Round(time.Millisecond).String(),
			fatalLine(a.Diagnostic),
		})
	}
	return renderTable(
		[]string{"Strategy", "Result", "Elapsed", "Diagnostic"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// fatalLine returns the last non-empty line of tool output, truncated for tables.
func fatalLine(diagnostic string) string {
	lines := strings.Split(strings.TrimSpace(diagnostic), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			const width = 80
			if len(line) > width {
				return line[:width-3] + "..."
			}
			return line
		}
	}
	return ""
}
