package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/anirudhbannikoppa/elderwell/internal/document"
	"github.com/anirudhbannikoppa/elderwell/internal/index"
)

type fakeLoader struct {
	docs    []document.Document
	skipped []document.Skip
	err     error
}

func (f *fakeLoader) Load(_ string) ([]document.Document, []document.Skip, error) {
	return f.docs, f.skipped, f.err
}

// fixedSplitter splits on "|" so tests control chunk counts exactly.
type fixedSplitter struct{}

func (fixedSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	start := 0
	for i := range text {
		if text[i] == '|' {
			chunks = append(chunks, text[start:i])
			start = i + 1
		}
	}
	return append(chunks, text[start:])
}

type fakeBatchEmbedder struct {
	err   error
	calls int
}

func (f *fakeBatchEmbedder) Batch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

type fakeWriter struct {
	added   []index.Entry
	deleted []string
	addErr  error
	delErr  error
}

func (f *fakeWriter) AddBatch(_ context.Context, entries []index.Entry) (int, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.added = append(f.added, entries...)
	return len(entries), nil
}

func (f *fakeWriter) DeleteBySource(_ context.Context, source string) (int64, error) {
	if f.delErr != nil {
		return 0, f.delErr
	}
	f.deleted = append(f.deleted, source)
	return 0, nil
}

func TestIndexerRun(t *testing.T) {
	loader := &fakeLoader{
		docs: []document.Document{
			{Source: "a.pdf#page=1", Text: "one|two|three"},
			{Source: "b.txt", Text: "only"},
		},
		skipped: []document.Skip{{Path: "broken.pdf", Reason: "corrupt"}},
	}
	writer := &fakeWriter{}
	embedder := &fakeBatchEmbedder{}
	ix := NewIndexer(loader, fixedSplitter{}, embedder, writer, false, nil)

	result, err := ix.Run(context.Background(), "data")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Documents != 2 || result.Chunks != 4 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 2 docs, 4 chunks, 1 skipped", result)
	}
	if len(writer.added) != 4 {
		t.Fatalf("stored %d entries, want 4", len(writer.added))
	}
	if writer.added[0].Source != "a.pdf#page=1" || writer.added[3].Source != "b.txt" {
		t.Errorf("entries carry wrong sources: %+v", writer.added)
	}
	// One embedding request per document
	if embedder.calls != 2 {
		t.Errorf("embedder calls = %d, want 2", embedder.calls)
	}
	if len(writer.deleted) != 0 {
		t.Errorf("deleted sources = %v, want none without replace", writer.deleted)
	}
}

func TestIndexerRun_AppendsOnRerun(t *testing.T) {
	loader := &fakeLoader{docs: []document.Document{{Source: "a.txt", Text: "one|two"}}}
	writer := &fakeWriter{}
	ix := NewIndexer(loader, fixedSplitter{}, &fakeBatchEmbedder{}, writer, false, nil)

	for range 2 {
		if _, err := ix.Run(context.Background(), "data"); err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	}

	// Two identical runs double the entry count
	if len(writer.added) != 4 {
		t.Errorf("stored %d entries after two runs, want 4", len(writer.added))
	}
	if len(writer.deleted) != 0 {
		t.Errorf("deleted sources = %v, want none", writer.deleted)
	}
}

func TestIndexerRun_ReplaceClearsOldChunks(t *testing.T) {
	loader := &fakeLoader{docs: []document.Document{
		{Source: "a.txt", Text: "one|two"},
		{Source: "b.txt", Text: "three"},
	}}
	writer := &fakeWriter{}
	ix := NewIndexer(loader, fixedSplitter{}, &fakeBatchEmbedder{}, writer, true, nil)

	if _, err := ix.Run(context.Background(), "data"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(writer.deleted) != 2 {
		t.Fatalf("deleted sources = %v, want both documents", writer.deleted)
	}
	if writer.deleted[0] != "a.txt" || writer.deleted[1] != "b.txt" {
		t.Errorf("deleted sources = %v", writer.deleted)
	}
	if len(writer.added) != 3 {
		t.Errorf("stored %d entries, want 3", len(writer.added))
	}
}

func TestIndexerRun_ReplaceDeleteError(t *testing.T) {
	loader := &fakeLoader{docs: []document.Document{{Source: "a.txt", Text: "x"}}}
	boom := errors.New("connection reset")
	writer := &fakeWriter{delErr: boom}
	ix := NewIndexer(loader, fixedSplitter{}, &fakeBatchEmbedder{}, writer, true, nil)

	if _, err := ix.Run(context.Background(), "data"); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want wrapped delete error", err)
	}
	if len(writer.added) != 0 {
		t.Error("nothing should be written after a delete failure")
	}
}

func TestIndexerRun_EmptyDocumentSkipped(t *testing.T) {
	loader := &fakeLoader{docs: []document.Document{{Source: "blank.txt", Text: ""}}}
	writer := &fakeWriter{}
	ix := NewIndexer(loader, fixedSplitter{}, &fakeBatchEmbedder{}, writer, false, nil)

	result, err := ix.Run(context.Background(), "data")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Documents != 0 || result.Chunks != 0 {
		t.Errorf("result = %+v, want nothing indexed", result)
	}
}

func TestIndexerRun_LoadError(t *testing.T) {
	loader := &fakeLoader{err: errors.New("no such directory")}
	ix := NewIndexer(loader, fixedSplitter{}, &fakeBatchEmbedder{}, &fakeWriter{}, false, nil)

	if _, err := ix.Run(context.Background(), "missing"); err == nil {
		t.Error("Run() should fail when loading fails")
	}
}

func TestIndexerRun_EmbedErrorAborts(t *testing.T) {
	loader := &fakeLoader{docs: []document.Document{{Source: "a.txt", Text: "x"}}}
	boom := errors.New("provider down")
	writer := &fakeWriter{}
	ix := NewIndexer(loader, fixedSplitter{}, &fakeBatchEmbedder{err: boom}, writer, false, nil)

	_, err := ix.Run(context.Background(), "data")
	if !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want wrapped embed error", err)
	}
	if len(writer.added) != 0 {
		t.Error("nothing should be written after an embedding failure")
	}
}

func TestIndexerRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := &fakeLoader{docs: []document.Document{{Source: "a.txt", Text: "x"}}}
	ix := NewIndexer(loader, fixedSplitter{}, &fakeBatchEmbedder{}, &fakeWriter{}, false, nil)

	if _, err := ix.Run(ctx, "data"); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
