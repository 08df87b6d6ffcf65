// Package document loads source documents from disk for indexing.
//
// Supported formats: PDF (extracted page by page), plain text and Markdown
// (loaded whole). Unreadable or unsupported files are skipped with a logged
// reason rather than aborting the run, so one corrupt PDF cannot block an
// entire corpus from being indexed.
package document

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is one unit of loadable text. For PDFs each page is its own
// Document so retrieval results can point at the exact page.
type Document struct {
	// Source identifies where the text came from, e.g. "remedies.pdf#page=12"
	// or "notes.md". It is stored alongside every chunk and surfaced in
	// answers for attribution.
	Source string

	// Text is the raw extracted text.
	Text string
}

// Skip records a file that was passed over during loading and why.
type Skip struct {
	Path   string
	Reason string
}

// Loader walks a directory tree and extracts text from supported files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load walks dir recursively and returns the extracted documents plus the
// files it skipped. Per-file extraction failures are reported as skips, not
// errors; the returned error is reserved for problems with dir itself.
func (l *Loader) Load(dir string) ([]Document, []Skip, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("data directory: %q is not a directory", dir)
	}

	var docs []Document
	var skipped []Skip

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			skipped = append(skipped, Skip{Path: path, Reason: err.Error()})
			l.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Hidden directories (.git etc.) have nothing indexable
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}

		name := d.Name()
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = name
		}

		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			pages, err := l.loadPDF(path, rel)
			if err != nil {
				skipped = append(skipped, Skip{Path: path, Reason: err.Error()})
				l.logger.Warn("skipping PDF", "path", path, "error", err)
				return nil
			}
			docs = append(docs, pages...)
		case ".txt", ".md":
			doc, err := loadText(path, rel)
			if err != nil {
				skipped = append(skipped, Skip{Path: path, Reason: err.Error()})
				l.logger.Warn("skipping text file", "path", path, "error", err)
				return nil
			}
			if doc.Text != "" {
				docs = append(docs, doc)
			}
		default:
			skipped = append(skipped, Skip{Path: path, Reason: "unsupported file type"})
			l.logger.Debug("skipping unsupported file", "path", path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("walking %q: %w", dir, walkErr)
	}

	l.logger.Info("loaded documents", "dir", dir, "documents", len(docs), "skipped", len(skipped))
	return docs, skipped, nil
}

// loadPDF extracts each page of a PDF as a separate Document. Pages that
// yield no text (scanned images, extraction failures) are dropped quietly;
// a PDF with zero extractable pages is an error so it shows up as a skip.
func (l *Loader) loadPDF(path, rel string) ([]Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			l.logger.Warn("closing PDF", "path", path, "error", closeErr)
		}
	}()

	var docs []Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Debug("no text extracted from page", "path", path, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, Document{
			Source: fmt.Sprintf("%s#page=%d", rel, i),
			Text:   text,
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no extractable text in %q", rel)
	}
	return docs, nil
}

// loadText reads a whole text or Markdown file as one Document.
func loadText(path, rel string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading file: %w", err)
	}
	return Document{Source: rel, Text: string(data)}, nil
}
