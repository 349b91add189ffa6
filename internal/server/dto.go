package server

import (
	"encoding/json"
	"log/slog"

	"github.com/taxdesk/taxcase-tracker/internal/repository"
)

// decodeListField deserializes a JSON-serialized list column for the
// caller. A failure for one row must not fail the whole list: the raw
// serialized value is returned instead and the error logged.
func decodeListField(raw string, field string, logger *slog.Logger) any {
	if raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Error("list field deserialization failed", "field", field, "raw", raw, "error", err)
		return raw
	}
	return items
}

func (s *Server) noticeDTO(n *repository.Notice) map[string]any {
	return map[string]any{
		"id":              n.ID,
		"pan_number":      n.PANNumber,
		"date":            n.Date,
		"din_number":      n.DINNumber,
		"address":         n.Address,
		"sections":        decodeListField(n.Sections, "sections", s.logger),
		"assessment_year": n.AssessmentYear,
		"annexure":        decodeListField(n.Annexure, "annexure", s.logger),
		"fileLocation":    n.FileLocation,
		"fileType":        n.FileType,
		"filename":        n.Filename,
		"status":          n.Status,
	}
}

// noticeRowDTO returns the row with list columns left in their raw
// serialized form, the shape the legacy single-document fetch used.
func noticeRowDTO(n *repository.Notice) map[string]any {
	return map[string]any{
		"id":              n.ID,
		"pan_number":      n.PANNumber,
		"date":            n.Date,
		"din_number":      n.DINNumber,
		"address":         n.Address,
		"sections":        n.Sections,
		"assessment_year": n.AssessmentYear,
		"annexure":        n.Annexure,
		"fileLocation":    n.FileLocation,
		"fileType":        n.FileType,
		"filename":        n.Filename,
		"status":          n.Status,
	}
}

func (s *Server) replyDTO(rp *repository.Reply) map[string]any {
	return map[string]any{
		"id":              rp.ID,
		"pan_number":      rp.PANNumber,
		"notice_id":       rp.NoticeID,
		"notice_date":     rp.NoticeDate,
		"reply_date":      rp.ReplyDate,
		"subject":         rp.Subject,
		"assessment_year": rp.AssessmentYear,
		"reply_from":      rp.ReplyFrom,
		"reply_email":     rp.ReplyEmail,
		"reply_mobile":    rp.ReplyMobile,
		"reply_content":   decodeListField(rp.ReplyContent, "reply_content", s.logger),
		"summary":         rp.Summary,
		"fileLocation":    rp.FileLocation,
		"fileType":        rp.FileType,
		"finalOpinion":    rp.FinalOpinion,
		"filename":        rp.Filename,
		"status":          rp.Status,
	}
}
