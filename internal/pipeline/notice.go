package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/taxdesk/taxcase-tracker/internal/common"
	"github.com/taxdesk/taxcase-tracker/internal/llm"
	"github.com/taxdesk/taxcase-tracker/internal/repository"
)

// NoticeResult is the outcome of a notice upload.
type NoticeResult struct {
	Fields      llm.NoticeFields
	NewFilePath string
	FileType    string
	Duplicate   bool
	Existing    *repository.Notice
}

// IngestNotice runs the full notice pipeline for the uploaded file at
// tempPath. On a duplicate hit the temp file is deleted and the stored
// record is returned as-is; the fresh extraction is discarded.
func (s *Service) IngestNotice(ctx context.Context, tempPath, originalFilename string) (*NoticeResult, error) {
	log := common.LoggerFromContext(ctx).With("component", "pipeline", "kind", "notice", "filename", originalFilename)

	text, err := s.extractor.Text(ctx, tempPath)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("notice", "error").Inc()
		return nil, err
	}

	// The duplicate gate runs before the model call, so date/DIN are only
	// available to it when the regex pre-pass is on.
	var pre llm.NoticeFields
	if s.useRegexPrepass {
		pre = llm.PrepassNoticeFields(text, llm.NoticeFields{})
	}
	existing, err := s.notices.FindDuplicate(ctx, originalFilename, pre.Date, pre.DIN, text)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("notice", "error").Inc()
		return nil, err
	}
	if existing != nil {
		log.Info("pipeline.ingest.duplicate", "existing_id", existing.ID)
		s.metrics.DuplicateHitsTotal.WithLabelValues("notice").Inc()
		s.metrics.UploadsTotal.WithLabelValues("notice", "duplicate").Inc()
		if err := os.Remove(tempPath); err != nil {
			log.Warn("pipeline.ingest.temp_cleanup_failed", "path", tempPath, "error", err)
		}
		return &NoticeResult{Duplicate: true, Existing: existing}, nil
	}

	fields, err := s.extractNoticeFields(ctx, text)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("notice", "error").Inc()
		return nil, err
	}

	// Move before insert: a failed move must not leave a database row.
	finalPath := s.organizer.ResolvePath(pathPAN(fields.PAN), "notice", originalFilename)
	if err := s.organizer.Place(tempPath, finalPath); err != nil {
		s.metrics.UploadsTotal.WithLabelValues("notice", "error").Inc()
		return nil, err
	}

	n := &repository.Notice{
		PANNumber:      fields.PAN,
		Date:           fields.Date,
		DINNumber:      fields.DIN,
		Address:        fields.Address,
		Sections:       marshalList(fields.Sections),
		AssessmentYear: fields.AssessmentYear,
		Annexure:       marshalList(fields.Annexure),
		FileLocation:   finalPath,
		FileType:       "notice",
		Filename:       originalFilename,
		FullText:       text,
	}
	if _, err := s.notices.Insert(ctx, n); err != nil {
		s.metrics.UploadsTotal.WithLabelValues("notice", "error").Inc()
		return nil, err
	}

	log.Info("pipeline.ingest.ok", "id", n.ID, "pan", fields.PAN, "path", finalPath)
	s.metrics.UploadsTotal.WithLabelValues("notice", "ok").Inc()
	return &NoticeResult{Fields: fields, NewFilePath: finalPath, FileType: "notice"}, nil
}

func (s *Service) extractNoticeFields(ctx context.Context, text string) (llm.NoticeFields, error) {
	start := time.Now()
	raw, err := s.generator.Generate(ctx, llm.BuildNoticePrompt(text))
	s.metrics.LLMCallDuration.WithLabelValues("fields").Observe(time.Since(start).Seconds())
	if err != nil {
		return llm.NoticeFields{}, err
	}

	fields, err := llm.DecodeNoticeFields(raw, s.logger)
	if err != nil {
		return llm.NoticeFields{}, err
	}
	if s.useRegexPrepass {
		fields = llm.PrepassNoticeFields(text, fields)
	}
	return fields, nil
}

// marshalList stores nil as an empty JSON array so list columns always
// deserialize.
func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}
