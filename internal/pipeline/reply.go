package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/taxdesk/taxcase-tracker/internal/common"
	"github.com/taxdesk/taxcase-tracker/internal/llm"
	"github.com/taxdesk/taxcase-tracker/internal/repository"
)

// ReplyResult is the outcome of a reply upload.
type ReplyResult struct {
	Fields       llm.ReplyFields
	NoticeID     int64
	NoticeDate   string
	Summary      string
	FinalOpinion string
	NewFilePath  string
	FileType     string
	Duplicate    bool
	Existing     *repository.Reply
}

// IngestReply runs the full reply pipeline. A reply cannot be filed
// against a nonexistent notice: when no notice exists for the extracted
// PAN the pipeline fails with ErrNotFound and writes nothing.
func (s *Service) IngestReply(ctx context.Context, tempPath, originalFilename string) (*ReplyResult, error) {
	log := common.LoggerFromContext(ctx).With("component", "pipeline", "kind", "reply", "filename", originalFilename)

	text, err := s.extractor.Text(ctx, tempPath)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("reply", "error").Inc()
		return nil, err
	}

	var pre llm.ReplyFields
	if s.useRegexPrepass {
		pre = llm.PrepassReplyFields(text, llm.ReplyFields{})
	}
	existing, err := s.replies.FindDuplicate(ctx, originalFilename, pre.ReplyDate, text)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("reply", "error").Inc()
		return nil, err
	}
	if existing != nil {
		log.Info("pipeline.ingest.duplicate", "existing_id", existing.ID)
		s.metrics.DuplicateHitsTotal.WithLabelValues("reply").Inc()
		s.metrics.UploadsTotal.WithLabelValues("reply", "duplicate").Inc()
		if err := os.Remove(tempPath); err != nil {
			log.Warn("pipeline.ingest.temp_cleanup_failed", "path", tempPath, "error", err)
		}
		return &ReplyResult{Duplicate: true, Existing: existing}, nil
	}

	start := time.Now()
	raw, err := s.generator.Generate(ctx, llm.BuildReplyPrompt(text))
	s.metrics.LLMCallDuration.WithLabelValues("fields").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("reply", "error").Inc()
		return nil, err
	}
	fields, err := llm.DecodeReplyFields(raw, s.logger)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("reply", "error").Inc()
		return nil, err
	}
	if s.useRegexPrepass {
		fields = llm.PrepassReplyFields(text, fields)
	}

	corr, err := s.correlate(ctx, fields)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("reply", "error").Inc()
		return nil, err
	}

	finalPath := s.organizer.ResolvePath(pathPAN(fields.PAN), "reply", originalFilename)
	if err := s.organizer.Place(tempPath, finalPath); err != nil {
		s.metrics.UploadsTotal.WithLabelValues("reply", "error").Inc()
		return nil, err
	}

	rp := &repository.Reply{
		PANNumber:      fields.PAN,
		NoticeID:       corr.NoticeID,
		NoticeDate:     corr.NoticeDate,
		ReplyDate:      fields.ReplyDate,
		Subject:        fields.Subject,
		AssessmentYear: fields.AssessmentYear,
		ReplyFrom:      fields.ReplyFrom,
		ReplyEmail:     fields.ReplyEmail,
		ReplyMobile:    fields.ReplyMobile,
		ReplyContent:   marshalList(fields.ReplyContent),
		Summary:        corr.Summary,
		FileLocation:   finalPath,
		FileType:       "reply",
		FinalOpinion:   corr.FinalOpinion,
		Filename:       originalFilename,
		FullText:       text,
	}
	if _, err := s.replies.Insert(ctx, rp); err != nil {
		s.metrics.UploadsTotal.WithLabelValues("reply", "error").Inc()
		return nil, err
	}

	log.Info("pipeline.ingest.ok", "id", rp.ID, "pan", fields.PAN, "notice_id", corr.NoticeID, "path", finalPath)
	s.metrics.UploadsTotal.WithLabelValues("reply", "ok").Inc()
	return &ReplyResult{
		Fields:       fields,
		NoticeID:     corr.NoticeID,
		NoticeDate:   corr.NoticeDate,
		Summary:      corr.Summary,
		FinalOpinion: corr.FinalOpinion,
		NewFilePath:  finalPath,
		FileType:     "reply",
	}, nil
}
