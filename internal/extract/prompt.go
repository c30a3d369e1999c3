package extract

import "google.golang.org/genai"

// TableExtractionPrompt is sent alongside every document.
const TableExtractionPrompt = `Extract ALL tables from this document.
Output: Compact JSON only.
Schema: { "tables": [{ "tableName": "Page X Table Y", "headers": ["Col1", "Col2"], "rows": [["Val1", "Val2"]] }] }
Rules:
1. Extract every row and column accurately.
2. Use empty string "" for empty cells.
3. Output ONLY valid JSON, no explanations.
4. Merge tables that continue across page breaks - if multiple pages have tables with the same column headers, combine them into a single table.
5. Use a descriptive table name based on the content, not just "Page X Table Y".`

// responseSchema constrains the structured output of the model to the table
// contract tables.Parse expects.
func responseSchema() *genai.Schema {
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tables": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"tableName": {Type: genai.TypeString},
						"headers":   stringList,
						"rows": {
							Type:  genai.TypeArray,
							Items: stringList,
						},
					},
					Required: []string{"headers", "rows"},
				},
			},
		},
		Required: []string{"tables"},
	}
}
