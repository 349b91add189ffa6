package llm

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

// CleanModelJSON strips markdown code-fence markers from raw model output.
// Models routinely wrap JSON in ```json ... ``` fences; everything else is
// left untouched.
func CleanModelJSON(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// DecodeNoticeFields cleans, validates, and decodes raw model output into
// NoticeFields. Invalid JSON or wrong-typed keys fail with
// ErrModelOutputParse; missing keys decode as zero values; unknown keys are
// dropped and logged.
func DecodeNoticeFields(raw string, logger *slog.Logger) (NoticeFields, error) {
	var out NoticeFields
	cleaned, err := decodeObject(raw, noticeSchema(), noticeKeys, logger)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return out, common.NewAppErrorf(common.ErrModelOutputParse, 400, "decode notice fields: %v", err)
	}
	return out, nil
}

// DecodeReplyFields is the reply-document counterpart of DecodeNoticeFields.
func DecodeReplyFields(raw string, logger *slog.Logger) (ReplyFields, error) {
	var out ReplyFields
	cleaned, err := decodeObject(raw, replySchema(), replyKeys, logger)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return out, common.NewAppErrorf(common.ErrModelOutputParse, 400, "decode reply fields: %v", err)
	}
	return out, nil
}

func decodeObject(raw string, schema map[string]any, allowed map[string]struct{}, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(CleanModelJSON(raw)), &m); err != nil {
		return nil, common.NewAppErrorf(common.ErrModelOutputParse, 400, "model output is not a JSON object: %v", err)
	}

	// Unknown keys are hallucination-shaped noise; drop them before the
	// strict schema check so they can't fail a good extraction.
	var dropped []string
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}
	if len(dropped) > 0 {
		logger.Warn("llm.normalize.unknown_keys_dropped", "keys", dropped)
	}

	// Nulls are "present but unknown" per the model contract; decode them
	// as absent so struct zero values apply.
	for k, v := range m {
		if v == nil {
			delete(m, k)
		}
	}

	// Models sometimes collapse a single-entry list into a bare string.
	for _, k := range []string{"Sections", "Annexure", "Reply_Content"} {
		if s, ok := m[k].(string); ok {
			m[k] = []any{s}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, common.NewAppErrorf(common.ErrModelOutputParse, 400, "re-encode model output: %v", err)
	}
	if err := ValidateJSONAgainstSchema(schema, out); err != nil {
		return nil, common.NewAppErrorf(common.ErrModelOutputParse, 400, "schema validation failed: %v", err)
	}
	return out, nil
}
