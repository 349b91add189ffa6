package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

// handleUploadNotice accepts a multipart PDF under field "notice-file" and
// runs the notice ingestion pipeline.
func (s *Server) handleUploadNotice(w http.ResponseWriter, r *http.Request) {
	tempPath, originalName, err := s.saveUpload(r, "notice-file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.pipeline.IngestNotice(r.Context(), tempPath, originalName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if res.Duplicate {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Notice file already exists",
			"data":    s.noticeDTO(res.Existing),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Notice file uploaded and data extracted successfully",
		"data": map[string]any{
			"PAN":            res.Fields.PAN,
			"Date":           res.Fields.Date,
			"DIN":            res.Fields.DIN,
			"Address":        res.Fields.Address,
			"Sections":       res.Fields.Sections,
			"AssessmentYear": res.Fields.AssessmentYear,
			"Annexure":       res.Fields.Annexure,
			"newFilePath":    res.NewFilePath,
			"fileType":       res.FileType,
		},
	})
}

// handleUploadReply accepts a multipart PDF under field "reply-file" and
// runs the reply ingestion pipeline, including notice correlation.
func (s *Server) handleUploadReply(w http.ResponseWriter, r *http.Request) {
	tempPath, originalName, err := s.saveUpload(r, "reply-file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.pipeline.IngestReply(r.Context(), tempPath, originalName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if res.Duplicate {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Reply file already exists",
			"data":    s.replyDTO(res.Existing),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Reply file uploaded and data extracted successfully",
		"data": map[string]any{
			"PAN":            res.Fields.PAN,
			"noticeId":       res.NoticeID,
			"noticeDate":     res.NoticeDate,
			"Reply_Date":     res.Fields.ReplyDate,
			"Subject":        res.Fields.Subject,
			"AssessmentYear": res.Fields.AssessmentYear,
			"Reply_From":     res.Fields.ReplyFrom,
			"Reply_Email":    res.Fields.ReplyEmail,
			"Reply_Mobile":   res.Fields.ReplyMobile,
			"Reply_Content":  res.Fields.ReplyContent,
			"summary":        res.Summary,
			"finalOpinion":   res.FinalOpinion,
			"newFilePath":    res.NewFilePath,
			"fileType":       res.FileType,
		},
	})
}

// saveUpload writes the multipart file to the temp upload directory and
// returns its path plus the client's original filename.
func (s *Server) saveUpload(r *http.Request, field string) (string, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", common.NewAppErrorf(common.ErrNoFileUploaded, 400, "missing multipart field %q", field)
	}
	defer func(file multipart.File) {
		if err := file.Close(); err != nil {
			s.logger.Warn("close uploaded file failed", "error", err)
		}
	}(file)

	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create temp upload dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.tempDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", "", fmt.Errorf("create temp upload file: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("save upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("save upload: %w", err)
	}
	return tmp.Name(), filepath.Base(header.Filename), nil
}
