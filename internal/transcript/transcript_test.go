package transcript

import (
	"strings"
	"testing"
	"time"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC) }

func TestFormatMarkersEveryThreeLines(t *testing.T) {
	raw := "l0\nl1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\n"
	got := Formatter{Now: fixedNow}.Format(raw)

	want := "TRANSCRIPT WITH TIMESTAMPS\n" +
		"Generated on: 2026-03-04T05:06:07.890Z\n" +
		"Timestamp interval: 10 seconds\n\n" +
		"[00:00] l0\nl1\nl2\n" +
		"[00:10] l3\nl4\nl5\n" +
		"[00:20] l6\nl7\nl8\n"
	if got != want {
		t.Fatalf("unexpected transcript:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatDropsBlankLinesAndCarriageReturns(t *testing.T) {
	raw := "first\r\n\r\n   \nsecond\r\nthird\nfourth"
	got := Formatter{Now: fixedNow}.Format(raw)
	body := strings.SplitN(got, "\n\n", 2)[1]
	want := "[00:00] first\nsecond\nthird\n[00:10] fourth\n"
	if body != want {
		t.Fatalf("unexpected body %q, want %q", body, want)
	}
}

func TestFormatEmptyInputHasHeaderOnly(t *testing.T) {
	got := Formatter{Now: fixedNow}.Format("\n\n")
	if !strings.HasSuffix(got, "Timestamp interval: 10 seconds\n\n") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestFormatCustomCadence(t *testing.T) {
	got := Formatter{Interval: 30 * time.Second, LinesPerMarker: 1, Now: fixedNow}.Format("a\nb\nc")
	if !strings.Contains(got, "Timestamp interval: 30 seconds") {
		t.Fatalf("missing interval label in %q", got)
	}
	if !strings.HasSuffix(got, "[00:00] a\n[00:30] b\n[01:00] c\n") {
		t.Fatalf("unexpected body in %q", got)
	}
}

func TestFormatIsNotIdempotent(t *testing.T) {
	f := Formatter{Now: fixedNow}
	once := f.Format("a")
	twice := f.Format(once)
	if once == twice {
		t.Fatal("formatting a transcript twice is expected to nest markers")
	}
}

func TestMarkerPastAnHour(t *testing.T) {
	if got := Marker(61*time.Minute + 5*time.Second); got != "[61:05]" {
		t.Fatalf("Marker = %q", got)
	}
}

func TestFileName(t *testing.T) {
	for in, want := range map[string]string{
		"talk.mp4":       "talk_transcript.txt",
		"/media/a.b.mkv": "a.b_transcript.txt",
		"noext":          "noext_transcript.txt",
		".hidden":        ".hidden_transcript.txt",
	} {
		if got := FileName(in); got != want {
			t.Fatalf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}
