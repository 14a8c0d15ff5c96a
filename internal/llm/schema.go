package llm

// ExtractionSchema returns the JSON-Schema of the extraction oracle's answer: an array of records.
// It is sent to the model as a formatting constraint and used locally to validate.
func ExtractionSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"name":           map[string]any{"type": "string", "minLength": 1},
				"unit":           map[string]any{"type": "string"},
				"material_price": priceProp(),
				"work_price":     priceProp(),
			},
			"required": []string{"name", "material_price", "work_price"},
		},
	}
}

// MatchingSchema returns the JSON-Schema of the batch-matching answer: one string or null per input.
func MatchingSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": []string{"string", "null"}},
	}
}

// GroupingSchema describes the structured grouping answer: canonical name -> original names.
func GroupingSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": []string{"string", "integer"}},
		},
	}
}

func priceProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0}
}
