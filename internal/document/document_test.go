package document

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_TextAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "Chamomile tea aids sleep.")
	writeFile(t, dir, "guide.md", "# Remedies\n\nHoney soothes sore throats.")

	loader := NewLoader(nil)
	docs, skipped, err := loader.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Load() = %d documents, want 2", len(docs))
	}
	if len(skipped) != 0 {
		t.Errorf("Load() skipped %d files, want 0: %v", len(skipped), skipped)
	}

	sources := map[string]string{}
	for _, d := range docs {
		sources[d.Source] = d.Text
	}
	if sources["notes.txt"] != "Chamomile tea aids sleep." {
		t.Errorf("notes.txt text = %q", sources["notes.txt"])
	}
	if sources["guide.md"] == "" {
		t.Error("guide.md missing from results")
	}
}

func TestLoad_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("nested", "deep", "a.txt"), "nested content")

	loader := NewLoader(nil)
	docs, _, err := loader.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Load() = %d documents, want 1", len(docs))
	}
	want := filepath.Join("nested", "deep", "a.txt")
	if docs[0].Source != want {
		t.Errorf("source = %q, want %q", docs[0].Source, want)
	}
}

func TestLoad_SkipsUnsupportedAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.csv", "a,b,c")
	writeFile(t, dir, "readme.txt", "supported")

	loader := NewLoader(nil)
	docs, skipped, err := loader.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Load() = %d documents, want 1", len(docs))
	}
	if len(skipped) != 1 || skipped[0].Reason != "unsupported file type" {
		t.Errorf("skipped = %v, want one unsupported file", skipped)
	}
}

func TestLoad_CorruptPDFIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "this is not a real PDF")
	writeFile(t, dir, "ok.txt", "still loads")

	loader := NewLoader(nil)
	docs, skipped, err := loader.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Source != "ok.txt" {
		t.Errorf("Load() docs = %v, want just ok.txt", docs)
	}
	if len(skipped) != 1 {
		t.Errorf("skipped = %v, want the corrupt PDF", skipped)
	}
}

func TestLoad_EmptyDirectory(t *testing.T) {
	loader := NewLoader(nil)
	docs, skipped, err := loader.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 0 || len(skipped) != 0 {
		t.Errorf("Load() = %d docs, %d skipped, want 0/0", len(docs), len(skipped))
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	loader := NewLoader(nil)
	if _, _, err := loader.Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Load() on missing directory should fail")
	}
}

func TestLoad_FileNotDirectory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "file.txt", "x")

	loader := NewLoader(nil)
	if _, _, err := loader.Load(path); err == nil {
		t.Error("Load() on a file should fail")
	}
}

func TestLoad_EmptyTextFileDropped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "")

	loader := NewLoader(nil)
	docs, _, err := loader.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Load() = %d documents, want 0 for empty file", len(docs))
	}
}

func TestLoad_SkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join(".git", "config.txt"), "not content")
	writeFile(t, dir, "real.txt", "content")

	loader := NewLoader(nil)
	docs, _, err := loader.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Source != "real.txt" {
		t.Errorf("Load() = %v, want just real.txt", docs)
	}
}
