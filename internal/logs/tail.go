package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// Options selects a window of the log file.
//
// A negative Offset reads the last Lines lines; a non-negative Offset reads
// everything appended since. Follow with a positive Wait polls until new
// lines arrive or Wait elapses. Match keeps only lines containing it, such as
// an operation id.
type Options struct {
	Offset int64
	Lines  int
	Follow bool
	Wait   time.Duration
	Match  string
}

// Chunk is one read. Offset is where the next read should resume.
type Chunk struct {
	Lines  []string
	Offset int64
}

// Tail reads path according to opts. A missing file is an empty chunk at
// offset zero, so callers can start polling before the first log line.
func Tail(ctx context.Context, path string, opts Options) (Chunk, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Chunk{}, nil
	}
	if err != nil {
		return Chunk{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Chunk{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	var chunk Chunk
	if opts.Offset < 0 {
		chunk, err = lastLines(path, opts.Lines, opts.Match)
	} else {
		offset := opts.Offset
		// A truncated or rotated file restarts from the end of its new content.
		if offset > info.Size() {
			offset = info.Size()
		}
		chunk, err = readFrom(path, offset, opts.Match)
	}
	if err != nil {
		return chunk, err
	}
	if opts.Follow && opts.Wait > 0 && len(chunk.Lines) == 0 {
		return waitFor(ctx, path, chunk.Offset, opts.Wait, opts.Match)
	}
	return chunk, nil
}

func lastLines(path string, limit int, match string) (Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return Chunk{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Chunk{}, fmt.Errorf("seek log file: %w", err)
		}
		return Chunk{Offset: end}, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	end, err := scan(file, match, func(line string) {
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return Chunk{}, err
	}

	lines := make([]string, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range lines {
		lines[i] = ring[(start+i)%limit]
	}
	return Chunk{Lines: lines, Offset: end}, nil
}

func readFrom(path string, offset int64, match string) (Chunk, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Chunk{}, nil
	}
	if err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scan(file, match, func(line string) { lines = append(lines, line) })
	if err != nil {
		return Chunk{Offset: offset}, err
	}
	return Chunk{Lines: lines, Offset: end}, nil
}

// scan feeds each complete line passing match to emit and returns the offset
// just past the last line read.
func scan(file *os.File, match string, emit func(string)) (int64, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if match == "" || strings.Contains(line, match) {
			emit(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	return end, nil
}

func waitFor(ctx context.Context, path string, offset int64, wait time.Duration, match string) (Chunk, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		chunk, err := readFrom(path, offset, match)
		if err != nil || len(chunk.Lines) > 0 || time.Now().After(deadline) {
			return chunk, err
		}
		offset = chunk.Offset
		select {
		case <-ctx.Done():
			return Chunk{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}
