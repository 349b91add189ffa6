// Package export produces XLSX case reports from the case store.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/taxdesk/taxcase-tracker/internal/repository"
)

// Service is a small façade over the repositories that renders XLSX bytes.
type Service struct {
	notices repository.NoticeRepository
	replies repository.ReplyRepository
	logger  *slog.Logger
}

func NewService(notices repository.NoticeRepository, replies repository.ReplyRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{notices: notices, replies: replies, logger: logger.With("component", "export")}
}

// ExportCasesXLSX returns a workbook with one row per notice: case
// identity, extracted metadata, lifecycle status, and how many replies
// have been filed against it.
func (s *Service) ExportCasesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	notices, err := s.notices.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query notices: %w", err)
	}
	replies, err := s.replies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}

	replyCount := make(map[int64]int, len(replies))
	for _, rp := range replies {
		replyCount[rp.NoticeID]++
	}

	f := excelize.NewFile()
	const sheet = "Cases"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"PAN",
		"Notice Date",
		"DIN",
		"Assessment Year",
		"Sections",
		"Status",
		"Replies Filed",
		"File Location",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, n := range notices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, n.PANNumber)
		write(2, n.Date)
		write(3, n.DINNumber)
		write(4, n.AssessmentYear)
		write(5, joinListColumn(n.Sections))
		write(6, n.Status)
		write(7, replyCount[n.ID])
		write(8, n.FileLocation)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	s.logger.Info("export.cases.ok",
		"rows", len(notices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// joinListColumn renders a JSON-serialized list column for a spreadsheet
// cell; unparseable values pass through raw.
func joinListColumn(raw string) string {
	if raw == "" {
		return ""
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return raw
	}
	return strings.Join(items, ", ")
}
