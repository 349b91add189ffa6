// Package extract converts uploaded PDF documents into plain text by
// shelling out to pdftotext. The Runner seam keeps the external command
// stubbable in tests.
package extract

import (
	"context"
	"strings"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

// TextExtractor is the behavior the ingestion pipeline depends on.
type TextExtractor interface {
	Text(ctx context.Context, path string) (string, error)
}

// Extractor runs pdftotext against a file on disk.
type Extractor struct {
	pdftotext string
	runner    Runner
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRunner replaces the exec-backed runner, for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// NewExtractor creates an Extractor using the given pdftotext binary
// (defaults to "pdftotext" on PATH).
func NewExtractor(pdftotext string, opts ...Option) *Extractor {
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	e := &Extractor{pdftotext: pdftotext, runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Text extracts the full plain text of the PDF at path.
// Corrupt or unreadable input surfaces as ErrExtraction.
func (e *Extractor) Text(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", common.NewAppErrorf(common.ErrExtraction, 400, "pdftotext: %v: %s", err, truncate(string(errb), 512))
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", common.NewAppError(common.ErrExtraction, 400, "document produced no text")
	}
	return text, nil
}
