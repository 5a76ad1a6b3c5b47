package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"reelforge/internal/catalog"
	"reelforge/internal/services"
)

func mapCatalog(t *testing.T, names ...string) *catalog.Catalog {
	t.Helper()
	fsys := fstest.MapFS{}
	for i, name := range names {
		fsys[name] = &fstest.MapFile{Data: []byte("x"), ModTime: time.Unix(int64(1700000000+i), 0)}
	}
	cat, err := catalog.NewFS(fsys, "/media", catalog.Options{})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return cat
}

func names(files []catalog.MediaFile) string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return strings.Join(out, ",")
}

func TestListOrdersByTierThenNumericCollation(t *testing.T) {
	cat := mapCatalog(t, "segment10.mkv", "thumbnail-a.png", "segment2.mkv", "x_transcript.txt", "output.mkv")

	files, err := cat.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := "output.mkv,x_transcript.txt,thumbnail-a.png,segment2.mkv,segment10.mkv"
	if got := names(files); got != want {
		t.Fatalf("unexpected order:\n got %s\nwant %s", got, want)
	}
}

func TestListClassification(t *testing.T) {
	cat := mapCatalog(t,
		"2024-05-01 10-00-00.mkv",
		"Segment3.MKV",
		"output.mp4",
		"My Talk.mp4",
		"My Talk_X.mp4",
		"demo_LinkedIn_cut.mov",
		"20240501.mp4",
		"interview.mov",
		"notes.txt",
		".reelforge.lock",
		".concat-123.txt",
		"thumbnail-1700000000.png",
		"cover.png",
	)
	files, err := cat.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]catalog.MediaFile{}
	for _, f := range files {
		got[f.Name] = f
	}

	cases := []struct {
		name     string
		category catalog.Category
		tier     int
	}{
		{"2024-05-01 10-00-00.mkv", catalog.CategorySegment, catalog.TierSegment},
		{"Segment3.MKV", catalog.CategorySegment, catalog.TierSegment},
		{"output.mp4", catalog.CategoryConverted, catalog.TierOutput},
		{"My Talk.mp4", catalog.CategoryRenamed, catalog.TierOutput},
		{"My Talk_X.mp4", catalog.CategoryPlatformClip, catalog.TierOutput},
		{"demo_LinkedIn_cut.mov", catalog.CategoryPlatformClip, catalog.TierOutput},
		{"20240501.mp4", catalog.CategoryVideo, catalog.TierVideo},
		{"interview.mov", catalog.CategoryVideo, catalog.TierVideo},
		{"thumbnail-1700000000.png", catalog.CategoryThumbnail, catalog.TierThumbnail},
	}
	for _, tc := range cases {
		f, ok := got[tc.name]
		if !ok {
			t.Fatalf("expected %q to be listed", tc.name)
		}
		if f.Category != tc.category || f.Tier != tc.tier {
			t.Fatalf("%s classified as %s/tier %d, want %s/tier %d", tc.name, f.Category, f.Tier, tc.category, tc.tier)
		}
	}
	for _, hidden := range []string{"notes.txt", ".reelforge.lock", ".concat-123.txt", "cover.png"} {
		if _, ok := got[hidden]; ok {
			t.Fatalf("did not expect %q in listing", hidden)
		}
	}
}

func TestListCollationIgnoresCase(t *testing.T) {
	cat := mapCatalog(t, "Segment10.mkv", "segment9.mkv", "SEGMENT1.mkv")
	files, err := cat.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := names(files); got != "SEGMENT1.mkv,segment9.mkv,Segment10.mkv" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestSegmentsAndRoles(t *testing.T) {
	cat := mapCatalog(t, "segment2.mkv", "segment1.mkv", "output.mkv")
	segments, err := cat.Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if got := names(segments); got != "segment1.mkv,segment2.mkv" {
		t.Fatalf("unexpected segments %s", got)
	}

	concatenated, err := cat.FindByRole(context.Background(), catalog.RoleConcatenated)
	if err != nil || concatenated == nil || concatenated.Name != "output.mkv" {
		t.Fatalf("FindByRole(concatenated) = %+v, %v", concatenated, err)
	}
	converted, err := cat.FindByRole(context.Background(), catalog.RoleConverted)
	if err != nil || converted != nil {
		t.Fatalf("expected empty converted role, got %+v, %v", converted, err)
	}
}

func TestStatRejectsTraversalAndMissing(t *testing.T) {
	cat := mapCatalog(t, "clip.mp4")

	if _, err := cat.Stat(context.Background(), "missing.mp4"); !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected input not found, got %v", err)
	}
	for _, bad := range []string{"../etc/passwd", "sub/clip.mp4", "..", ""} {
		if _, err := cat.Stat(context.Background(), bad); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Stat(%q): expected validation error, got %v", bad, err)
		}
	}
	file, err := cat.Stat(context.Background(), "clip.mp4")
	if err != nil || file.Size != 1 {
		t.Fatalf("Stat(clip.mp4) = %+v, %v", file, err)
	}
}

func TestListUnreadableDirectoryIsIOError(t *testing.T) {
	cat, err := catalog.New(filepath.Join(t.TempDir(), "absent"), catalog.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	files, err := cat.List(context.Background())
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
	if files != nil {
		t.Fatalf("expected no partial listing, got %v", files)
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	if _, err := catalog.NewFS(fstest.MapFS{}, "", catalog.Options{SegmentPattern: "(["}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestDeleteThumbnail(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "thumbnail-1.png", "output.mkv")
	cat, err := catalog.New(dir, catalog.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := cat.DeleteThumbnail(ctx, "output.mkv"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-thumbnail, got %v", err)
	}
	if err := cat.DeleteThumbnail(ctx, "../thumbnail-1.png"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for traversal, got %v", err)
	}
	if err := cat.DeleteThumbnail(ctx, "thumbnail-2.png"); !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := cat.DeleteThumbnail(ctx, "thumbnail-1.png"); err != nil {
		t.Fatalf("DeleteThumbnail: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "thumbnail-1.png")); !os.IsNotExist(err) {
		t.Fatalf("expected thumbnail removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "output.mkv")); err != nil {
		t.Fatalf("output must be untouched: %v", err)
	}
}

func TestPublishRenamesOutputs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "output.mkv", "output.mp4", "segment1.mkv")
	cat, err := catalog.New(dir, catalog.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	renames, err := cat.Publish(context.Background(), `Launch: "Day" 1?`)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(renames) != 2 || renames[0].To != "Launch Day 1.mkv" || renames[1].To != "Launch Day 1.mp4" {
		t.Fatalf("unexpected renames %+v", renames)
	}

	files, err := cat.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := names(files); got != "Launch Day 1.mkv,Launch Day 1.mp4,segment1.mkv" {
		t.Fatalf("unexpected listing after publish: %s", got)
	}
	for _, f := range files[:2] {
		if f.Category != catalog.CategoryRenamed {
			t.Fatalf("%s should be a renamed output, got %s", f.Name, f.Category)
		}
	}

	if _, err := cat.Publish(context.Background(), "again"); !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected not found with no outputs left, got %v", err)
	}
	if _, err := cat.Publish(context.Background(), "???"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty title, got %v", err)
	}
}
