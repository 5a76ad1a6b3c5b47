package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/logging"
)

// DirName is the scratch directory created inside the working directory.
const DirName = ".reelforge-tmp"

// playlistPrefix matches the concat playlists the transcoder writes beside segments.
const playlistPrefix = ".concat-"

// Root returns the scratch root for workDir.
func Root(workDir string) string {
	return filepath.Join(workDir, DirName)
}

// Create makes a fresh scratch directory for one operation.
func Create(workDir, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid staging id %q", id)
	}
	dir := filepath.Join(Root(workDir), id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// Release removes a scratch directory. Failures are logged, never returned.
func Release(dir string, logger *slog.Logger) {
	if strings.TrimSpace(dir) == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil && logger != nil {
		logging.WarnWithContext(logger, "failed to remove staging directory", "cleanup_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the directory manually or wait for the stale sweep"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
	}
}

// CleanStaleResult contains the outcome of a stale artifact cleanup.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes scratch directories and orphaned concat playlists in
// workDir that are older than maxAge.
func CleanStale(ctx context.Context, workDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return result
	}
	cutoff := time.Now().Add(-maxAge)

	sweep := func(dir string, match func(os.DirEntry) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			}
			return
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			if !match(entry) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				if logger != nil {
					logging.WarnWithContext(logger, "failed to remove stale staging artifact", "staging_cleanup_failed",
						logging.String("path", path),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check work_dir permissions"),
						logging.String(logging.FieldImpact, "disk space not reclaimed"),
					)
				}
				continue
			}
			result.Removed = append(result.Removed, path)
			if logger != nil {
				logger.Info("removed stale staging artifact",
					logging.String("path", path),
					logging.Duration("age", time.Since(info.ModTime())),
					logging.String(logging.FieldEventType, "staging_cleanup"),
				)
			}
		}
	}

	sweep(Root(workDir), func(e os.DirEntry) bool { return e.IsDir() })
	sweep(workDir, func(e os.DirEntry) bool {
		return !e.IsDir() && strings.HasPrefix(e.Name(), playlistPrefix)
	})
	return result
}

// DirInfo contains metadata about a scratch directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns every scratch directory under workDir.
func ListDirectories(workDir string) ([]DirInfo, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, nil
	}
	root := Root(workDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		size, _ := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	return dirs, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
