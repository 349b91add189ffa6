package server

import (
	"net/http"

	"github.com/taxdesk/taxcase-tracker/internal/metrics"
	"github.com/taxdesk/taxcase-tracker/internal/middleware"
)

// Routes builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /api/v1/upload-notice     → notice ingestion pipeline
//	POST   /api/v1/upload-reply      → reply ingestion pipeline
//	GET    /api/v1/all-notice        → list notices
//	GET    /api/v1/all-notice/{id}   → fetch one notice
//	GET    /api/v1/all-reply         → list replies
//	GET    /api/v1/total-case        → distinct PAN count
//	GET    /api/v1/pending-case      → distinct PAN count, open only
//	POST   /api/v1/close-case        → close notice + replies by PAN
//	POST   /api/v1/open-case         → reopen notice + replies by PAN
//	PUT    /api/v1/notice/{id}       → update allow-listed notice fields
//	DELETE /api/v1/notice[/{id}]     → delete one / all notices
//	DELETE /api/v1/reply[/{id}]      → delete one / all replies
//	GET    /api/v1/export-cases      → XLSX case report
//	GET    /health, GET /metrics
//
// Middleware chain (outermost first): RequestID → AccessLog → Metrics.
func (s *Server) Routes(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/v1/upload-notice", s.handleUploadNotice)
	mux.HandleFunc("POST /api/v1/upload-reply", s.handleUploadReply)

	mux.HandleFunc("GET /api/v1/all-notice", s.handleAllNotices)
	mux.HandleFunc("GET /api/v1/all-notice/{id}", s.handleGetNotice)
	mux.HandleFunc("GET /api/v1/all-reply", s.handleAllReplies)

	mux.HandleFunc("GET /api/v1/total-case", s.handleTotalCase)
	mux.HandleFunc("GET /api/v1/pending-case", s.handlePendingCase)
	mux.HandleFunc("POST /api/v1/close-case", s.handleCloseCase)
	mux.HandleFunc("POST /api/v1/open-case", s.handleOpenCase)

	mux.HandleFunc("PUT /api/v1/notice/{id}", s.handleUpdateNotice)
	mux.HandleFunc("DELETE /api/v1/notice", s.handleDeleteAllNotices)
	mux.HandleFunc("DELETE /api/v1/notice/{id}", s.handleDeleteNotice)
	mux.HandleFunc("DELETE /api/v1/reply", s.handleDeleteAllReplies)
	mux.HandleFunc("DELETE /api/v1/reply/{id}", s.handleDeleteReply)

	mux.HandleFunc("GET /api/v1/export-cases", s.handleExportCases)

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.AccessLog(chain)
	chain = middleware.RequestID(chain)
	return chain
}
