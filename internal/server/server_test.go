package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdesk/taxcase-tracker/internal/export"
	"github.com/taxdesk/taxcase-tracker/internal/filing"
	"github.com/taxdesk/taxcase-tracker/internal/metrics"
	"github.com/taxdesk/taxcase-tracker/internal/pipeline"
	"github.com/taxdesk/taxcase-tracker/internal/repository"
)

const noticeModelJSON = "```json\n" + `{
	"PAN": "ABCDE1234F",
	"Date": "2024-03-12",
	"DIN": "ABCD/2024/001",
	"Address": "12 High St",
	"AssessmentYear": "2023-24",
	"Sections": ["143(2)"],
	"Annexure": ["Bank statements"]
}` + "\n```"

type stubExtractor struct{ text string }

func (e stubExtractor) Text(ctx context.Context, path string) (string, error) {
	return e.text, nil
}

type stubGenerator struct{ responses []string }

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if len(g.responses) == 0 {
		return "", io.EOF
	}
	r := g.responses[0]
	g.responses = g.responses[1:]
	return r, nil
}

type testServer struct {
	handler http.Handler
	notices repository.NoticeRepository
	replies repository.ReplyRepository
}

func newTestServer(t *testing.T, extractedText string, gen *stubGenerator) *testServer {
	t.Helper()
	db, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "cases.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notices := repository.NewNoticeRepository(db, slog.Default())
	replies := repository.NewReplyRepository(db, slog.Default())
	organizer := filing.NewOrganizer(t.TempDir(), filing.WithClock(func() time.Time {
		return time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC)
	}))
	m := metrics.NewUnregistered()
	pipe := pipeline.NewService(stubExtractor{text: extractedText}, gen, notices, replies,
		organizer, pipeline.Config{}, m, slog.Default())
	exporter := export.NewService(notices, replies, slog.Default())
	srv := New(pipe, notices, replies, exporter, t.TempDir(), slog.Default())
	return &testServer{handler: srv.Routes(m), notices: notices, replies: replies}
}

func (ts *testServer) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func multipartFile(t *testing.T, field, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func seedNotice(t *testing.T, ts *testServer, pan, date string) int64 {
	t.Helper()
	id, err := ts.notices.Insert(context.Background(), &repository.Notice{
		PANNumber: pan,
		Date:      date,
		DINNumber: "ABCD/2024/001",
		Sections:  `["143(2)"]`,
		Annexure:  `["Bank statements"]`,
		Filename:  pan + "-" + date + ".pdf",
		FullText:  "notice body " + pan + date,
	})
	require.NoError(t, err)
	return id
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	rec := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestUploadNotice(t *testing.T) {
	ts := newTestServer(t, "notice full text", &stubGenerator{responses: []string{noticeModelJSON}})
	body, ctype := multipartFile(t, "notice-file", "scan.pdf", "%PDF-1.4")

	rec := ts.do(t, http.MethodPost, "/api/v1/upload-notice", body, ctype)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Notice file uploaded and data extracted successfully", resp["message"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "ABCDE1234F", data["PAN"])
	assert.Equal(t, "ABCD/2024/001", data["DIN"])
	assert.Contains(t, data["newFilePath"], filepath.Join("March-2024", "ABCDE1234F", "notice_scan.pdf"))
}

func TestUploadNotice_MissingFileField(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	body, ctype := multipartFile(t, "wrong-field", "scan.pdf", "%PDF-1.4")

	rec := ts.do(t, http.MethodPost, "/api/v1/upload-notice", body, ctype)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "notice-file")
}

func TestUploadNotice_Duplicate(t *testing.T) {
	ts := newTestServer(t, "notice full text", &stubGenerator{responses: []string{noticeModelJSON}})

	body, ctype := multipartFile(t, "notice-file", "scan.pdf", "%PDF-1.4")
	rec := ts.do(t, http.MethodPost, "/api/v1/upload-notice", body, ctype)
	require.Equal(t, http.StatusOK, rec.Code)

	body, ctype = multipartFile(t, "notice-file", "scan.pdf", "%PDF-1.4")
	rec = ts.do(t, http.MethodPost, "/api/v1/upload-notice", body, ctype)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, "Notice file already exists", resp["message"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "ABCDE1234F", data["pan_number"])
	assert.Equal(t, []any{"143(2)"}, data["sections"], "stored record ships with decoded lists")
}

func TestUploadReply_NoNotice(t *testing.T) {
	replyJSON := `{"PAN": "ABCDE1234F", "Reply_Date": "2024-03-20"}`
	ts := newTestServer(t, "reply full text", &stubGenerator{responses: []string{replyJSON}})
	body, ctype := multipartFile(t, "reply-file", "reply.pdf", "%PDF-1.4")

	rec := ts.do(t, http.MethodPost, "/api/v1/upload-reply", body, ctype)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "corresponding notice not found")
}

func TestAllNotices(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	seedNotice(t, ts, "ABCDE1234F", "2024-03-12")

	rec := ts.do(t, http.MethodGet, "/api/v1/all-notice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	notices := resp["notices"].([]any)
	require.Len(t, notices, 1)
	row := notices[0].(map[string]any)
	assert.Equal(t, "ABCDE1234F", row["pan_number"])
	assert.Equal(t, []any{"143(2)"}, row["sections"])
	assert.Equal(t, []any{"Bank statements"}, row["annexure"])
}

func TestGetNotice_RawListColumns(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	id := seedNotice(t, ts, "ABCDE1234F", "2024-03-12")

	rec := ts.do(t, http.MethodGet, "/api/v1/all-notice/"+itoa(id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decodeBody(t, rec)["document"].(map[string]any)
	assert.Equal(t, `["143(2)"]`, doc["sections"], "single fetch keeps list columns serialized")
}

func TestGetNotice_NotFound(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	rec := ts.do(t, http.MethodGet, "/api/v1/all-notice/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNotice_InvalidID(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	rec := ts.do(t, http.MethodGet, "/api/v1/all-notice/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateNotice(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	id := seedNotice(t, ts, "ABCDE1234F", "2024-03-12")

	rec := ts.do(t, http.MethodPut, "/api/v1/notice/"+itoa(id),
		strings.NewReader(`{"address":"Updated address"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Document updated successfully", decodeBody(t, rec)["message"])

	got, err := ts.notices.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Updated address", got.Address)
}

func TestUpdateNotice_UnknownFieldRejected(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	id := seedNotice(t, ts, "ABCDE1234F", "2024-03-12")

	rec := ts.do(t, http.MethodPut, "/api/v1/notice/"+itoa(id),
		strings.NewReader(`{"full_text":"tampered"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "not updatable")
}

func TestDeleteNotice(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	id := seedNotice(t, ts, "ABCDE1234F", "2024-03-12")

	rec := ts.do(t, http.MethodDelete, "/api/v1/notice/"+itoa(id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notice deleted successfully", decodeBody(t, rec)["message"])

	rec = ts.do(t, http.MethodDelete, "/api/v1/notice/"+itoa(id), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAllNotices_EmptyTable(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	rec := ts.do(t, http.MethodDelete, "/api/v1/notice", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCaseCounts(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	seedNotice(t, ts, "ABCDE1234F", "2024-01-05")
	seedNotice(t, ts, "ABCDE1234F", "2024-03-12")
	seedNotice(t, ts, "FGHIJ5678K", "2024-03-13")

	rec := ts.do(t, http.MethodGet, "/api/v1/total-case", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["data"])

	rec = ts.do(t, http.MethodGet, "/api/v1/pending-case", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["data"])
}

func TestCloseCase_MissingPAN(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	rec := ts.do(t, http.MethodPost, "/api/v1/close-case", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "pan_number is required", decodeBody(t, rec)["error"])
}

func TestCloseCase_UnknownPAN(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	rec := ts.do(t, http.MethodPost, "/api/v1/close-case",
		strings.NewReader(`{"pan_number":"ZZZZZ9999Z"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "no notice found")
}

func TestCloseCase_NoticeWithoutReply(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	id := seedNotice(t, ts, "ABCDE1234F", "2024-03-12")

	rec := ts.do(t, http.MethodPost, "/api/v1/close-case",
		strings.NewReader(`{"pan_number":"ABCDE1234F"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "no reply found")

	// The notice side has already been updated when the reply side fails.
	got, err := ts.notices.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "closed", got.Status)
}

func TestCloseAndReopenCase(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	ctx := context.Background()
	noticeID := seedNotice(t, ts, "ABCDE1234F", "2024-03-12")
	_, err := ts.replies.Insert(ctx, &repository.Reply{
		PANNumber: "ABCDE1234F", NoticeID: noticeID, ReplyDate: "2024-03-20",
		Filename: "reply.pdf", FullText: "reply body",
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/close-case",
		strings.NewReader(`{"pan_number":"ABCDE1234F"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Case closed successfully", decodeBody(t, rec)["message"])

	rec = ts.do(t, http.MethodGet, "/api/v1/pending-case", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeBody(t, rec)["data"])

	rec = ts.do(t, http.MethodPost, "/api/v1/open-case",
		strings.NewReader(`{"pan_number":"ABCDE1234F"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Case opened successfully", decodeBody(t, rec)["message"])

	rec = ts.do(t, http.MethodGet, "/api/v1/pending-case", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["data"])
}

func TestDeleteAllReplies_EmptyTable(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	rec := ts.do(t, http.MethodDelete, "/api/v1/reply", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCases(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	seedNotice(t, ts, "ABCDE1234F", "2024-03-12")

	rec := ts.do(t, http.MethodGet, "/api/v1/export-cases", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	ts := newTestServer(t, "", &stubGenerator{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-Id"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
