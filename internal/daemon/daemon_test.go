package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/api"
	"reelforge/internal/daemon"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/staging"
	"reelforge/internal/testsupport"
)

type stubPipeline struct {
	sweeps atomic.Int32
}

func (s *stubPipeline) result(op string) (pipeline.Result, error) {
	return pipeline.Result{ID: "op-1", Operation: op, Success: true, Outcome: pipeline.OutcomeCompleted}, nil
}

func (s *stubPipeline) List(context.Context) (pipeline.Result, error) {
	return s.result(pipeline.OpList)
}

func (s *stubPipeline) Concatenate(context.Context) (pipeline.Result, error) {
	return s.result(pipeline.OpConcatenate)
}

func (s *stubPipeline) Convert(context.Context) (pipeline.Result, error) {
	return s.result(pipeline.OpConvert)
}

func (s *stubPipeline) GenerateClip(context.Context, string, string) (pipeline.Result, error) {
	return s.result(pipeline.OpGenerateClip)
}

func (s *stubPipeline) PrepareForPlatform(context.Context, string, string) (pipeline.Result, error) {
	return s.result(pipeline.OpPrepare)
}

func (s *stubPipeline) Transcribe(context.Context, string) (pipeline.Result, error) {
	return s.result(pipeline.OpTranscribe)
}

func (s *stubPipeline) DeleteThumbnail(context.Context, string) (pipeline.Result, error) {
	return s.result(pipeline.OpDeleteThumbnail)
}

func (s *stubPipeline) Publish(context.Context, string) (pipeline.Result, error) {
	return s.result(pipeline.OpPublish)
}

func (s *stubPipeline) SweepStale(context.Context) staging.CleanStaleResult {
	s.sweeps.Add(1)
	return staging.CleanStaleResult{}
}

func TestNewRequiresPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error without pipeline")
	}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	stub := &stubPipeline{}
	d, err := daemon.New(cfg, stub, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if stub.sweeps.Load() != 1 {
		t.Fatalf("expected one stale sweep on start, got %d", stub.sweeps.Load())
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.HistoryPath != cfg.History.Path {
		t.Fatalf("expected history path %q, got %q", cfg.History.Path, status.HistoryPath)
	}
	if status.LockFilePath != filepath.Join(cfg.Paths.StateDir, "reelforge.lock") {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	status = d.Status()
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if d.Addr() != "" {
		t.Fatalf("expected no address after stop, got %q", d.Addr())
	}
}

func TestSecondDaemonRejectedByLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := daemon.New(cfg, &stubPipeline{}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := daemon.New(cfg, &stubPipeline{}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock conflict")
	}
}

func TestDaemonServesAPI(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(cfg, &stubPipeline{}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	base := "http://" + d.Addr()
	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status api.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.PID != os.Getpid() || status.WorkDir != cfg.Paths.WorkDir {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.Checks) != 3 {
		t.Fatalf("expected 3 preflight checks, got %d", len(status.Checks))
	}

	videos, err := http.Get(base + "/api/videos")
	if err != nil {
		t.Fatalf("GET videos: %v", err)
	}
	videos.Body.Close()
	if videos.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from videos, got %d", videos.StatusCode)
	}
}

func TestStartFailsOnBadBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "256.0.0.1:bad"
	d, err := daemon.New(cfg, &stubPipeline{}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		d.Stop()
		t.Fatal("expected listen failure")
	}
	if d.Status().Running {
		t.Fatal("expected daemon to remain stopped")
	}

	// The lock was released, so a corrected config can start.
	cfg.Paths.APIBind = "127.0.0.1:0"
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart after bind failure: %v", err)
	}
	d.Stop()
}
