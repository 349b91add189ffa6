package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

func (s *Server) handleAllNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := s.notices.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(notices))
	for _, n := range notices {
		out = append(out, s.noticeDTO(n))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"notices": out})
}

func (s *Server) handleAllReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := s.replies.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(replies))
	for _, rp := range replies {
		out = append(out, s.replyDTO(rp))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"reply": out})
}

func (s *Server) handleGetNotice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.notices.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Single-document fetch keeps list columns raw, as the legacy API did.
	s.writeJSON(w, http.StatusOK, map[string]any{"document": noticeRowDTO(n)})
}

func (s *Server) handleUpdateNotice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.writeError(w, r, common.NewAppErrorf(common.ErrInvalidInput, 400, "invalid JSON body: %v", err))
		return
	}
	if err := s.notices.Update(r.Context(), id, fields); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Document updated successfully",
		"data":    fields,
	})
}

func (s *Server) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.notices.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "Notice deleted successfully"})
}

func (s *Server) handleDeleteAllNotices(w http.ResponseWriter, r *http.Request) {
	if _, err := s.notices.DeleteAll(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "All notices deleted successfully"})
}

func (s *Server) handleDeleteReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.replies.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "Reply deleted successfully"})
}

func (s *Server) handleDeleteAllReplies(w http.ResponseWriter, r *http.Request) {
	if _, err := s.replies.DeleteAll(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "All reply deleted successfully"})
}

func (s *Server) handleTotalCase(w http.ResponseWriter, r *http.Request) {
	n, err := s.notices.CountCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Total case count",
		"data":    n,
	})
}

func (s *Server) handlePendingCase(w http.ResponseWriter, r *http.Request) {
	n, err := s.notices.CountPendingCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Pending case count",
		"data":    n,
	})
}

func (s *Server) handleCloseCase(w http.ResponseWriter, r *http.Request) {
	s.setCaseStatus(w, r, "closed", "Case closed successfully")
}

func (s *Server) handleOpenCase(w http.ResponseWriter, r *http.Request) {
	s.setCaseStatus(w, r, "open", "Case opened successfully")
}

// setCaseStatus updates the notice rows and then the reply rows for a
// taxpayer as two independent statements; there is no wrapping
// transaction, so a reply-side failure leaves the notice-side change in
// place. That partial effect is observable and deliberate.
func (s *Server) setCaseStatus(w http.ResponseWriter, r *http.Request, status, successMsg string) {
	var body struct {
		PANNumber string `json:"pan_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PANNumber == "" {
		s.writeError(w, r, common.NewAppError(common.ErrInvalidInput, 400, "pan_number is required"))
		return
	}

	log := common.LoggerFromContext(r.Context())

	noticeCount, err := s.notices.SetStatusByPAN(r.Context(), body.PANNumber, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if noticeCount == 0 {
		s.writeError(w, r, common.NewAppErrorf(common.ErrNotFound, 404, "no notice found for PAN %q", body.PANNumber))
		return
	}
	log.Info("case.status_updated", "side", "notice", "pan", body.PANNumber, "status", status, "rows", noticeCount)

	replyCount, err := s.replies.SetStatusByPAN(r.Context(), body.PANNumber, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if replyCount == 0 {
		// Notice side already updated; reply side reports not found.
		s.writeError(w, r, common.NewAppErrorf(common.ErrNotFound, 404, "no reply found for PAN %q", body.PANNumber))
		return
	}
	log.Info("case.status_updated", "side", "reply", "pan", body.PANNumber, "status", status, "rows", replyCount)

	s.writeJSON(w, http.StatusOK, map[string]any{"message": successMsg})
}

func (s *Server) handleExportCases(w http.ResponseWriter, r *http.Request) {
	data, err := s.export.ExportCasesXLSX(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("cases-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write export failed", "error", err)
	}
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, common.NewAppErrorf(common.ErrInvalidInput, 400, "invalid id %q", raw)
	}
	return id, nil
}
