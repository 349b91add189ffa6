package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taxdesk/taxcase-tracker/internal/common"
	"github.com/taxdesk/taxcase-tracker/internal/llm"
)

// notRespondedMarker labels annexure items with no positional counterpart
// in the reply.
const notRespondedMarker = "not responded"

type correlation struct {
	NoticeID     int64
	NoticeDate   string
	Summary      string
	FinalOpinion string
}

// correlate resolves the owning notice for a reply (most recent notice for
// the taxpayer by filing date) and, when that notice carried an annexure,
// builds the coverage summary and asks the model for a final opinion.
func (s *Service) correlate(ctx context.Context, fields llm.ReplyFields) (*correlation, error) {
	notice, err := s.notices.LatestByPAN(ctx, fields.PAN)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewAppErrorf(common.ErrNotFound, 404, "corresponding notice not found for PAN %q", fields.PAN)
	}
	if err != nil {
		return nil, err
	}

	corr := &correlation{NoticeID: notice.ID, NoticeDate: notice.Date}

	annexure := unmarshalList(notice.Annexure)
	if len(annexure) == 0 {
		return corr, nil
	}

	corr.Summary = BuildCoverageSummary(annexure, fields.ReplyContent)

	start := time.Now()
	opinion, err := s.generator.Generate(ctx, llm.BuildFinalOpinionPrompt(annexure, fields.ReplyContent))
	s.metrics.LLMCallDuration.WithLabelValues("opinion").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	// Stored verbatim, unvalidated free text.
	corr.FinalOpinion = opinion
	return corr, nil
}

// BuildCoverageSummary pairs each annexure entry positionally with the
// reply-content entry at the same index. Matching is by index, not by
// meaning: reordered or partial client responses will misalign, and
// annexure entries past the end of the reply are marked "not responded".
func BuildCoverageSummary(annexure, replyContent []string) string {
	var b strings.Builder
	for i, item := range annexure {
		response := notRespondedMarker
		if i < len(replyContent) && strings.TrimSpace(replyContent[i]) != "" {
			response = replyContent[i]
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, item, response)
	}
	return strings.TrimRight(b.String(), "\n")
}

// unmarshalList decodes a JSON-serialized string list column; anything
// unparseable is treated as empty.
func unmarshalList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
