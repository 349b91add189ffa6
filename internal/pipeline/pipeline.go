// Package pipeline implements document ingestion: extract text, check the
// deduplication gate, call the model, file the document, persist the row.
// Persistence is always the last step so a crash mid-pipeline never leaves
// an orphaned database row, only an orphaned temp or filed file.
package pipeline

import (
	"log/slog"

	"github.com/taxdesk/taxcase-tracker/internal/extract"
	"github.com/taxdesk/taxcase-tracker/internal/filing"
	"github.com/taxdesk/taxcase-tracker/internal/llm"
	"github.com/taxdesk/taxcase-tracker/internal/metrics"
	"github.com/taxdesk/taxcase-tracker/internal/repository"
)

// Service runs the notice and reply ingestion pipelines.
type Service struct {
	extractor extract.TextExtractor
	generator llm.Generator
	notices   repository.NoticeRepository
	replies   repository.ReplyRepository
	organizer *filing.Organizer

	// useRegexPrepass enables the local regex pre-pass that fills fields
	// the model leaves empty and feeds date/DIN into the duplicate gate
	// before any model call is made.
	useRegexPrepass bool

	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Config struct {
	UseRegexPrepass bool
}

func NewService(
	extractor extract.TextExtractor,
	generator llm.Generator,
	notices repository.NoticeRepository,
	replies repository.ReplyRepository,
	organizer *filing.Organizer,
	cfg Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &Service{
		extractor:       extractor,
		generator:       generator,
		notices:         notices,
		replies:         replies,
		organizer:       organizer,
		useRegexPrepass: cfg.UseRegexPrepass,
		metrics:         m,
		logger:          logger.With("component", "pipeline"),
	}
}

func pathPAN(pan string) string {
	if pan == "" {
		return "unknown"
	}
	return pan
}
