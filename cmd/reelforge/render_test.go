package main

import (
	"io"
	"strings"
	"testing"
	"time"

	"reelforge/internal/api"
	"reelforge/internal/conversion"
	"reelforge/internal/pipeline"
	"reelforge/internal/services"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("ffmpeg", statusOK, "Ready", false)
	if !strings.HasPrefix(line, statusIndent+"ffmpeg:") || !strings.HasSuffix(line, "[OK] Ready") {
		t.Fatalf("unexpected line %q", line)
	}
	if got := renderStatusLine("x", statusWarn, "", false); !strings.HasSuffix(got, "[WARN]") {
		t.Fatalf("unexpected empty-message line %q", got)
	}
	colored := renderStatusLine("x", statusError, "boom", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestDependencyLines(t *testing.T) {
	lines := dependencyLines([]api.DependencyStatus{
		{Name: "FFmpeg", Command: "ffmpeg", Available: true},
		{Name: "Whisper", Command: "whisper", Optional: true, Detail: "not found in PATH"},
		{Name: "FFprobe", Command: "ffprobe"},
	}, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %v", len(lines), lines)
	}
	checks := []string{
		"[OK] Ready (command: ffmpeg)",
		"[WARN] not found in PATH",
		"[ERROR] not available",
		"[WARN] Whisper, FFprobe",
	}
	for i, want := range checks {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.size); got != tc.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestFatalLine(t *testing.T) {
	if got := fatalLine("frame=1\n\nInvalid argument\n\n"); got != "Invalid argument" {
		t.Fatalf("unexpected line %q", got)
	}
	if got := fatalLine(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	long := strings.Repeat("a", 120)
	if got := fatalLine(long); len(got) != 80 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation, got %q", got)
	}
}

func TestRenderResultShowsAttemptsAndDiagnostic(t *testing.T) {
	res := pipeline.Result{
		Operation: pipeline.OpConvert,
		Outcome:   pipeline.OutcomeFailed,
		Message:   "Failed to convert output.mkv",
		Output:    "output.mp4",
		Attempts: []conversion.Attempt{
			{Strategy: conversion.StrategyRemux, ExitCode: 1, Diagnostic: "remux broke", Elapsed: time.Second},
			{Strategy: conversion.StrategyReEncode, ExitCode: 1, Diagnostic: "Unknown encoder 'libx264'", Elapsed: 2 * time.Second},
		},
		Error: &services.ErrorDetails{Kind: "conversion_failed", Message: "conversion failed", Diagnostic: "line one\nUnknown encoder 'libx264'"},
	}
	out := renderResult(res, false)
	for _, want := range []string{"Convert:", "[ERROR] Failed to convert output.mkv", "Output:", "re-encode", "exit 1", "Diagnostic:", "    line one"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("non-file writers must not be colorized")
	}
}
