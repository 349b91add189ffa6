package llm

import "context"

// NoticeFields is the normalized shape we want from the model for a
// scanned tax notice. Missing keys decode as zero values.
type NoticeFields struct {
	PAN            string   `json:"PAN"`
	Date           string   `json:"Date"`
	DIN            string   `json:"DIN"`
	Address        string   `json:"Address"`
	AssessmentYear string   `json:"AssessmentYear"`
	Sections       []string `json:"Sections"`
	Annexure       []string `json:"Annexure"`
}

// ReplyFields is the normalized shape for a client's reply document.
type ReplyFields struct {
	PAN            string   `json:"PAN"`
	ReplyDate      string   `json:"Reply_Date"`
	Subject        string   `json:"Subject"`
	DIN            string   `json:"DIN"`
	ReplyFrom      string   `json:"Reply_From"`
	AssessmentYear string   `json:"AssessmentYear"`
	Sections       []string `json:"Sections"`
	ReplyEmail     string   `json:"Reply_Email"`
	ReplyMobile    string   `json:"Reply_Mobile"`
	ReplyContent   []string `json:"Reply_Content"`
}

// Generator is the one outbound dependency of the pipeline: prompt in,
// raw model text out. Fallible and non-deterministic; callers must treat
// the output as opaque text until normalized.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
