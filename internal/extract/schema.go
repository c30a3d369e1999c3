package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// tablesSchema is the JSON Schema equivalent of responseSchema.
const tablesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["tables"],
  "properties": {
    "tables": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["headers", "rows"],
        "properties": {
          "tableName": {"type": ["string", "null"]},
          "headers": {"type": "array", "items": {"type": "string"}},
          "rows": {
            "type": "array",
            "items": {"type": "array", "items": {"type": "string"}}
          }
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("tables.json", tablesSchema)

// CheckSchema reports whether raw is well-formed JSON matching the table
// response schema. A failure is not fatal; tables.Parse still recovers what it
// can. It only tells callers that the backend drifted from the contract.
func CheckSchema(raw string) error {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
