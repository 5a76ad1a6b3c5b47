package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelforge/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reelforge.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	chunk, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Lines: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(chunk.Lines) != 2 || chunk.Lines[0] != "b" || chunk.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", chunk.Lines)
	}
	if chunk.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", chunk.Offset)
	}
}

func TestTailFewerLinesThanLimit(t *testing.T) {
	path := writeLog(t, "only\n")

	chunk, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Lines: 10})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(chunk.Lines) != 1 || chunk.Lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", chunk.Lines)
	}
}

func TestTailFromOffsetWithMatch(t *testing.T) {
	path := writeLog(t, "op-1 start\nop-2 start\nop-1 done\n")

	chunk, err := logs.Tail(context.Background(), path, logs.Options{Offset: 0, Match: "op-1"})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(chunk.Lines) != 2 || chunk.Lines[1] != "op-1 done" {
		t.Fatalf("unexpected lines: %#v", chunk.Lines)
	}

	again, err := logs.Tail(context.Background(), path, logs.Options{Offset: chunk.Offset})
	if err != nil {
		t.Fatalf("tail from end: %v", err)
	}
	if len(again.Lines) != 0 || again.Offset != chunk.Offset {
		t.Fatalf("expected no new lines, got %#v", again)
	}
}

func TestTailMissingFileIsEmpty(t *testing.T) {
	chunk, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "absent.log"), logs.Options{Offset: 42})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(chunk.Lines) != 0 || chunk.Offset != 0 {
		t.Fatalf("expected empty chunk, got %#v", chunk)
	}
}

func TestTailOffsetBeyondSizeRestarts(t *testing.T) {
	path := writeLog(t, "short\n")

	chunk, err := logs.Tail(context.Background(), path, logs.Options{Offset: 1000})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(chunk.Lines) != 0 || chunk.Offset != 6 {
		t.Fatalf("expected clamp to file size, got %#v", chunk)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	first, err := logs.Tail(ctx, path, logs.Options{Offset: -1, Lines: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan struct{})
	go func(offset int64) {
		defer close(done)
		chunk, err := logs.Tail(ctx, path, logs.Options{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(chunk.Lines) != 1 || chunk.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", chunk.Lines)
		}
	}(first.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestTailFollowHonoursCancel(t *testing.T) {
	path := writeLog(t, "start\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := logs.Tail(ctx, path, logs.Options{Offset: 6, Follow: true, Wait: time.Minute})
	if err == nil {
		t.Fatal("expected context error")
	}
}
