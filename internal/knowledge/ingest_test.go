package knowledge

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/kiwellness/coach/internal/storage"
)

func testIngester(t *testing.T) *Ingester {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewIngester(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"guide.txt", true},
		{"notes.md", true},
		{"data.JSON", true},
		{"meals.csv", true},
		{"handbook.pdf", true},
		{"image.png", false},
		{"archive.zip", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestProcessDir_IngestsTextFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hydration.txt"), []byte("Aim for eight cups of water per day."), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatal(err)
	}

	ing := testIngester(t)
	results, err := ing.ProcessDir(dir)
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	byFile := map[string]FileResult{}
	for _, r := range results {
		byFile[r.File] = r
	}
	if byFile["hydration.txt"].Status != "processed" {
		t.Errorf("hydration.txt status = %q", byFile["hydration.txt"].Status)
	}
	if byFile["photo.png"].Status != "skipped" {
		t.Errorf("photo.png status = %q", byFile["photo.png"].Status)
	}

	hits, err := ing.Search("eight cups", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].SourceFile != "hydration.txt" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestProcessDir_ReingestIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "guide.md"), []byte("# Sleep\nKeep a regular schedule."), 0o644); err != nil {
		t.Fatal(err)
	}

	ing := testIngester(t)
	for range 2 {
		if _, err := ing.ProcessDir(dir); err != nil {
			t.Fatalf("ProcessDir: %v", err)
		}
	}

	hits, err := ing.Search("regular schedule", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d docs after re-ingest, want 1", len(hits))
	}
}

func TestProcessDir_MissingDirErrors(t *testing.T) {
	ing := testIngester(t)
	if _, err := ing.ProcessDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestListTrainingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListTrainingFiles(dir)
	if err != nil {
		t.Fatalf("ListTrainingFiles: %v", err)
	}
	if len(files) != 1 || files[0].Name != "a.txt" || files[0].Size != 3 {
		t.Errorf("files = %+v", files)
	}

	empty, err := ListTrainingFiles(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("missing dir: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty list for missing dir")
	}
}

func TestCleanText(t *testing.T) {
	in := "Hello\x00   world\n\nnext  line\t here"
	got := cleanText(in)
	want := "Hello world\n\nnext line here"
	if got != want {
		t.Errorf("cleanText() = %q, want %q", got, want)
	}
}
