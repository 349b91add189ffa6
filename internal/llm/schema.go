package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Allowed key sets per document kind; anything else the model invents is
// stripped before validation.
var (
	noticeKeys = map[string]struct{}{
		"PAN": {}, "Date": {}, "DIN": {}, "Address": {},
		"AssessmentYear": {}, "Sections": {}, "Annexure": {},
	}
	replyKeys = map[string]struct{}{
		"PAN": {}, "Reply_Date": {}, "Subject": {}, "DIN": {},
		"Reply_From": {}, "AssessmentYear": {}, "Sections": {},
		"Reply_Email": {}, "Reply_Mobile": {}, "Reply_Content": {},
	}
)

// noticeSchema describes the JSON shape we accept for notice extraction.
// No key is required (missing means unknown), but present keys must be
// correctly typed.
func noticeSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"PAN":            stringProp(),
			"Date":           stringProp(),
			"DIN":            stringProp(),
			"Address":        stringProp(),
			"AssessmentYear": stringProp(),
			"Sections":       stringListProp(),
			"Annexure":       stringListProp(),
		},
	}
}

func replySchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"PAN":            stringProp(),
			"Reply_Date":     stringProp(),
			"Subject":        stringProp(),
			"DIN":            stringProp(),
			"Reply_From":     stringProp(),
			"AssessmentYear": stringProp(),
			"Sections":       stringListProp(),
			"Reply_Email":    stringProp(),
			"Reply_Mobile":   stringProp(),
			"Reply_Content":  stringListProp(),
		},
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func stringListProp() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
