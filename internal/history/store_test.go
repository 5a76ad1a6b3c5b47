package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"reelforge/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := history.Record{
		ID:         "op-1",
		Operation:  "convert",
		Success:    true,
		Outcome:    "completed",
		Message:    "remuxed, no re-encode",
		Payload:    json.RawMessage(`{"strategy":"remux"}`),
		WorkDir:    "/videos",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Operation != "convert" || !got.Success || got.Message != rec.Message {
		t.Fatalf("unexpected record: %#v", got)
	}
	if string(got.Payload) != `{"strategy":"remux"}` {
		t.Fatalf("unexpected payload %s", got.Payload)
	}
	if !got.StartedAt.Equal(started) || !got.FinishedAt.Equal(started.Add(3*time.Second)) {
		t.Fatalf("timestamps not preserved: %v %v", got.StartedAt, got.FinishedAt)
	}
}

func TestGetUnknownID(t *testing.T) {
	store := openStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendRequiresID(t *testing.T) {
	store := openStore(t)
	if err := store.Append(context.Background(), history.Record{Operation: "list"}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestListNewestFirstWithFilter(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ops := []string{"convert", "concatenate", "convert", "transcribe"}
	for i, op := range ops {
		rec := history.Record{
			ID:         string(rune('a' + i)),
			Operation:  op,
			Outcome:    "failed",
			ErrorKind:  "process_error",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 || all[0].ID != "d" || all[3].ID != "a" {
		t.Fatalf("unexpected order: %#v", all)
	}

	converts, err := store.List(ctx, history.Filter{Operation: "convert", Limit: 1})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(converts) != 1 || converts[0].ID != "c" {
		t.Fatalf("unexpected filtered result: %#v", converts)
	}
	if converts[0].Payload != nil {
		t.Fatalf("expected empty payload to read back as nil, got %s", converts[0].Payload)
	}
}

func TestPruneRemovesOldRecords(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	for i, age := range []time.Duration{48 * time.Hour, time.Hour} {
		rec := history.Record{
			ID:         string(rune('x' + i)),
			Operation:  "list",
			Outcome:    "completed",
			Success:    true,
			StartedAt:  now.Add(-age),
			FinishedAt: now.Add(-age),
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	removed, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := store.Get(ctx, "x"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected old record pruned, got %v", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	now := time.Now()
	if err := store.Append(context.Background(), history.Record{ID: "keep", Operation: "list", Outcome: "completed", StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_ = store.Close()

	reopened, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("expected record after reopen: %v", err)
	}
}
