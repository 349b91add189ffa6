package llm

import (
	"regexp"
	"strings"
)

// Local regex pre-pass over the extracted text. The original system shipped
// parallel pipeline variants, one of which scraped DIN/PAN/Date with
// regexes before calling the model; this is the same behavior behind a
// single capability flag. Prepass values only fill fields the model left
// empty, they never overwrite a model answer.
var (
	reDIN = regexp.MustCompile(`(?i)DIN\s*[:\-]?\s*([A-Z0-9][A-Z0-9/\-]{4,})`)
	rePAN = regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)
	// "12 March 2024", "12-03-2024", "12/03/2024"
	reDate = regexp.MustCompile(`(?i)\bDate\s*[:\-]?\s*(\d{1,2}[ /\-](?:[A-Za-z]+|\d{1,2})[ /\-]\d{4})`)
)

// PrepassNoticeFields fills blank notice fields from the raw text.
func PrepassNoticeFields(text string, fields NoticeFields) NoticeFields {
	if fields.DIN == "" {
		if m := reDIN.FindStringSubmatch(text); m != nil {
			fields.DIN = strings.TrimSpace(m[1])
		}
	}
	if fields.PAN == "" {
		if m := rePAN.FindStringSubmatch(text); m != nil {
			fields.PAN = m[1]
		}
	}
	if fields.Date == "" {
		if m := reDate.FindStringSubmatch(text); m != nil {
			fields.Date = strings.TrimSpace(m[1])
		}
	}
	return fields
}

// PrepassReplyFields fills blank reply fields from the raw text.
func PrepassReplyFields(text string, fields ReplyFields) ReplyFields {
	if fields.DIN == "" {
		if m := reDIN.FindStringSubmatch(text); m != nil {
			fields.DIN = strings.TrimSpace(m[1])
		}
	}
	if fields.PAN == "" {
		if m := rePAN.FindStringSubmatch(text); m != nil {
			fields.PAN = m[1]
		}
	}
	if fields.ReplyDate == "" {
		if m := reDate.FindStringSubmatch(text); m != nil {
			fields.ReplyDate = strings.TrimSpace(m[1])
		}
	}
	return fields
}
