// Package transcript turns raw speech-to-text output into a timestamped
// transcript document.
package transcript

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultInterval       = 10 * time.Second
	DefaultLinesPerMarker = 3
	header                = "TRANSCRIPT WITH TIMESTAMPS"
	// isoMillis matches the UTC ISO-8601 layout with millisecond precision.
	isoMillis = "2006-01-02T15:04:05.000Z"
)

// Formatter renders transcripts. The zero value uses the defaults and the
// wall clock.
//
// Markers are synthesized: the clock advances by Interval every LinesPerMarker
// content lines regardless of when the words were actually spoken, so
// formatting already-formatted text nests markers.
type Formatter struct {
	Interval       time.Duration
	LinesPerMarker int
	Now            func() time.Time
}

// Format splits raw on newlines, drops blank lines, and prefixes a [MM:SS]
// marker on every LinesPerMarker-th content line starting with the first.
func (f Formatter) Format(raw string) string {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	every := f.LinesPerMarker
	if every <= 0 {
		every = DefaultLinesPerMarker
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Generated on: %s\n", now().UTC().Format(isoMillis))
	fmt.Fprintf(&b, "Timestamp interval: %s\n\n", intervalLabel(interval))

	var elapsed time.Duration
	index := 0
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if index%every == 0 {
			b.WriteString(Marker(elapsed))
			b.WriteByte(' ')
			elapsed += interval
		}
		b.WriteString(line)
		b.WriteByte('\n')
		index++
	}
	return b.String()
}

// Marker renders d as [MM:SS]. Minutes keep counting past 59.
func Marker(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}

func intervalLabel(d time.Duration) string {
	secs := int(d / time.Second)
	if secs == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", secs)
}

// FileName returns the transcript name written beside source: talk.mp4 becomes talk_transcript.txt.
func FileName(source string) string {
	base := source
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	return base + "_transcript.txt"
}
