package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/catalog"
	"reelforge/internal/config"
	"reelforge/internal/history"
	"reelforge/internal/notifications"
	"reelforge/internal/pipeline"
	"reelforge/internal/services"
	"reelforge/internal/services/whisper"
	"reelforge/internal/transcoder"
)

// fakeRunner stands in for ffmpeg and whisper. It classifies each invocation,
// writes a non-empty output so the transcoder's output check passes, and can
// fail chosen steps.
type fakeRunner struct {
	mu         sync.Mutex
	calls      []string
	playlists  []string
	fail       map[string]string
	transcript string
	noArtifact bool
	delay      time.Duration
	active     int32
	maxActive  int32
	hold       chan struct{}
	started    chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fail: map[string]string{}, transcript: "hello\nworld\n"}
}

func stepOf(inv transcoder.Invocation) string {
	if inv.Binary == "whisper" {
		return "whisper"
	}
	args := " " + strings.Join(inv.Args, " ") + " "
	switch {
	case strings.Contains(args, " -f concat "):
		return "concat"
	case strings.Contains(args, " -vn "):
		return "audio"
	case strings.Contains(args, " -t ") && strings.Contains(args, " -c copy "):
		return "clip-copy"
	case strings.Contains(args, " -t "):
		return "clip-encode"
	case strings.Contains(args, " -c:v "):
		return "reencode"
	default:
		return "remux"
	}
}

func argAfter(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func (r *fakeRunner) Run(_ context.Context, inv transcoder.Invocation) (transcoder.Completion, error) {
	now := atomic.AddInt32(&r.active, 1)
	defer atomic.AddInt32(&r.active, -1)
	for {
		prev := atomic.LoadInt32(&r.maxActive)
		if now <= prev || atomic.CompareAndSwapInt32(&r.maxActive, prev, now) {
			break
		}
	}

	step := stepOf(inv)
	r.mu.Lock()
	r.calls = append(r.calls, step)
	if step == "concat" {
		data, _ := os.ReadFile(argAfter(inv.Args, "-i"))
		r.playlists = append(r.playlists, string(data))
	}
	diag, failing := r.fail[step]
	r.mu.Unlock()

	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.hold != nil {
		<-r.hold
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if failing {
		return transcoder.Completion{ExitCode: 1, Stderr: diag},
			&services.ToolError{Tool: inv.Binary, ExitCode: 1, Diagnostic: diag}
	}

	if step == "whisper" {
		if r.noArtifact {
			return transcoder.Completion{}, nil
		}
		dir := argAfter(inv.Args, "--output_dir")
		audio := inv.Args[0]
		name := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio)) + ".txt"
		return transcoder.Completion{}, os.WriteFile(filepath.Join(dir, name), []byte(r.transcript), 0o644)
	}
	output := inv.Args[len(inv.Args)-1]
	if !filepath.IsAbs(output) {
		output = filepath.Join(inv.Dir, output)
	}
	return transcoder.Completion{}, os.WriteFile(output, []byte("media"), 0o644)
}

func (r *fakeRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// fakeProber returns scripted durations per file name. When a name has
// several values they are returned in order and the last one repeats.
type fakeProber struct {
	mu        sync.Mutex
	durations map[string][]float64
	errs      map[string]error
	calls     []string
}

func newFakeProber() *fakeProber {
	return &fakeProber{durations: map[string][]float64{}, errs: map[string]error{}}
}

func (p *fakeProber) set(name string, values ...float64) {
	p.durations[name] = values
}

func (p *fakeProber) Duration(_ context.Context, path string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := filepath.Base(path)
	p.calls = append(p.calls, name)
	if err := p.errs[name]; err != nil {
		return 0, err
	}
	values := p.durations[name]
	if len(values) == 0 {
		return 0, services.Wrap(services.ErrProbe, "ffprobe", "duration", path, fmt.Errorf("no scripted duration"))
	}
	v := values[0]
	if len(values) > 1 {
		p.durations[name] = values[1:]
	}
	return v, nil
}

type harness struct {
	dir      string
	runner   *fakeRunner
	probe    *fakeProber
	notifier *fakeNotifier
	ctrl     *pipeline.Controller
	history  *history.Store
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *fakeNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) Events() []notifications.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifications.Event(nil), n.events...)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessIn(t, t.TempDir())
}

func newHarnessIn(t *testing.T, dir string) *harness {
	t.Helper()
	h := &harness{dir: dir, runner: newFakeRunner(), probe: newFakeProber(), notifier: &fakeNotifier{}}

	cat, err := catalog.New(dir, catalog.Options{})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	h.history = store

	cfg := config.Default()
	var seq int64
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	ctrl, err := pipeline.New(pipeline.Deps{
		Catalog:    cat,
		Transcoder: transcoder.New(h.runner, transcoder.OptionsFromConfig(&cfg), nil),
		Prober:     h.probe,
		Speech:     whisper.NewService(whisper.Config{Engine: whisper.EngineWhisper, Binary: "whisper"}, h.runner),
		History:    store,
		Notifier:   h.notifier,
		Tolerance:  2,
		StaleAge:   time.Hour,
		NewID: func() string {
			return fmt.Sprintf("op-%d", atomic.AddInt64(&seq, 1))
		},
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	h.ctrl = ctrl
	return h
}

func (h *harness) write(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(h.dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func (h *harness) exists(name string) bool {
	_, err := os.Stat(filepath.Join(h.dir, name))
	return err == nil
}

func requireKind(t *testing.T, res pipeline.Result, err error, kind string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil (result %#v)", kind, res)
	}
	if got := services.Kind(err); got != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, got, err)
	}
	if res.Success || res.Outcome != pipeline.OutcomeFailed {
		t.Fatalf("expected failed result, got success=%v outcome=%s", res.Success, res.Outcome)
	}
	if res.Error == nil || res.Error.Kind != kind {
		t.Fatalf("expected result error kind %s, got %#v", kind, res.Error)
	}
}
