package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// jsonArray locates the bracketed array inside a model response, tolerating
// prose before and after the JSON.
var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// responseSchema is the structural contract a provider response must meet:
// an array of objects. Field-level checks happen during the role merge.
var responseSchema = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "object"},
}

// parseItemObjects extracts the array of raw item objects from a model
// response. A missing array, malformed JSON, or a schema violation all
// return nil: the caller treats that as "no items", never as a fault.
func parseItemObjects(content string) []map[string]any {
	raw := jsonArray.FindString(content)
	if raw == "" {
		return nil
	}
	if err := validateJSONAgainstSchema(responseSchema, []byte(raw)); err != nil {
		return nil
	}
	var objects []map[string]any
	if err := json.Unmarshal([]byte(raw), &objects); err != nil {
		return nil
	}
	return objects
}

// validateJSONAgainstSchema validates "data" against "schemaMap".
func validateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
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

// stringify renders a scalar JSON value as a property string; non-scalars
// and empty strings are dropped by returning "".
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return trimFloat(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
