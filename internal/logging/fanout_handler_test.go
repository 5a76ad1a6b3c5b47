package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevel(t *testing.T) {
	var info, debug bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled when any handler accepts the level")
	}

	logger := slog.New(h)
	logger.Debug("debug only")
	logger.Info("both")

	if strings.Contains(info.String(), "debug only") {
		t.Fatalf("info handler received debug record: %s", info.String())
	}
	if !strings.Contains(debug.String(), "debug only") || !strings.Contains(debug.String(), "both") {
		t.Fatalf("debug handler missing records: %s", debug.String())
	}
}

func TestFanoutHandlerWithAttrsPropagates(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	slog.New(h).With("component", "pipeline").Info("hello")

	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		if !strings.Contains(buf.String(), `"component":"pipeline"`) {
			t.Fatalf("handler %s missing attribute: %s", name, buf.String())
		}
	}
}
