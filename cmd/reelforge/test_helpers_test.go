package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/testsupport"
	"reelforge/internal/transcoder"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	runner     *scriptedRunner
}

// scriptedRunner writes every ffmpeg output so the pipeline's artifact checks
// pass, and records the invocations it saw.
type scriptedRunner struct {
	mu    sync.Mutex
	calls []transcoder.Invocation
	fail  bool
}

func (r *scriptedRunner) Run(_ context.Context, inv transcoder.Invocation) (transcoder.Completion, error) {
	r.mu.Lock()
	r.calls = append(r.calls, inv)
	fail := r.fail
	r.mu.Unlock()
	if fail {
		return transcoder.Completion{ExitCode: 1, Stderr: "Invalid data found when processing input\n"}, nil
	}
	output := inv.Args[len(inv.Args)-1]
	if !filepath.IsAbs(output) {
		output = filepath.Join(inv.Dir, output)
	}
	return transcoder.Completion{}, os.WriteFile(output, []byte("media"), 0o644)
}

func (r *scriptedRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "reelforge.toml")
	writeTestConfig(t, configPath, cfg)

	runner := &scriptedRunner{}
	prev := newRunner
	newRunner = func() transcoder.Runner { return runner }
	t.Cleanup(func() { newRunner = prev })

	return &cliTestEnv{cfg: cfg, configPath: configPath, runner: runner}
}

// stubProbe makes every ffprobe duration query report seconds.
func stubProbe(t *testing.T, seconds float64) {
	t.Helper()
	restore := ffprobe.SetCommandForTests(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte(fmt.Sprintf("%f\n", seconds)), nil, nil
	})
	t.Cleanup(restore)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nwork_dir = %q\nstate_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[history]\nenabled = true\npath = %q\n",
		cfg.Paths.WorkDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.History.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeMedia(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("media"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
