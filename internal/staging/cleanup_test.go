package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelforge/internal/logging"
)

func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	old := time.Now().Add(-d)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldArtifacts(t *testing.T) {
	workDir := t.TempDir()

	oldDir, err := Create(workDir, "old-op")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	age(t, oldDir, 2*time.Hour)
	recentDir, err := Create(workDir, "recent-op")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	playlist := filepath.Join(workDir, ".concat-123.txt")
	if err := os.WriteFile(playlist, []byte("file 'a.mkv'\n"), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	age(t, playlist, 2*time.Hour)

	segment := filepath.Join(workDir, "segment1.mkv")
	if err := os.WriteFile(segment, []byte("x"), 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}
	age(t, segment, 2*time.Hour)

	result := CleanStale(context.Background(), workDir, time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", result.Removed)
	}
	for _, gone := range []string{oldDir, playlist} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Errorf("expected %s removed", gone)
		}
	}
	for _, kept := range []string{recentDir, segment} {
		if _, err := os.Stat(kept); err != nil {
			t.Errorf("expected %s kept: %v", kept, err)
		}
	}
}

func TestCreateRejectsTraversal(t *testing.T) {
	for _, id := range []string{"", "..", "a/b"} {
		if _, err := Create(t.TempDir(), id); err == nil {
			t.Fatalf("expected error for id %q", id)
		}
	}
}

func TestReleaseRemovesDirectory(t *testing.T) {
	workDir := t.TempDir()
	dir, err := Create(workDir, "op")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio.wav"), []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	Release(dir, logging.NewNop())
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("expected staging dir removed")
	}
	Release("", logging.NewNop())
}

func TestListDirectoriesReportsSize(t *testing.T) {
	workDir := t.TempDir()
	dir, err := Create(workDir, "op")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio.wav"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dirs, err := ListDirectories(workDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 || dirs[0].Name != "op" || dirs[0].Size != 5 {
		t.Fatalf("unexpected dirs: %#v", dirs)
	}
}
