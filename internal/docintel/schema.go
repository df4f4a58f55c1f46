package docintel

// BuildAnalyzeResultJSONSchema returns a JSON-Schema (draft 2020-12 subset)
// as a generic map describing the analyzeResult payload we are willing to
// decode. Validated locally before decoding so a malformed service response
// fails loudly instead of silently producing an empty field tree.
func BuildAnalyzeResultJSONSchema() map[string]any {
	confidenceProp := map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}

	fieldProps := map[string]any{
		"type":       map[string]any{"type": "string"},
		"confidence": confidenceProp,
		"valueString": map[string]any{
			"type": "string",
		},
		"valueDate": map[string]any{
			"type":    "string",
			"pattern": `^\d{4}-\d{2}-\d{2}$`,
		},
		"valueTime": map[string]any{
			"type":    "string",
			"pattern": `^\d{2}:\d{2}:\d{2}$`,
		},
		"valueInteger":  map[string]any{"type": "integer"},
		"valueNumber":   map[string]any{"type": "number"},
		"valueCurrency": currencyProp(),
	}
	field := map[string]any{
		"type":       "object",
		"required":   []string{"type", "confidence"},
		"properties": fieldProps,
	}
	// Nested shapes reference the field schema recursively.
	fieldProps["valueArray"] = map[string]any{
		"type":  "array",
		"items": map[string]any{"$ref": "#/$defs/field"},
	}
	fieldProps["valueObject"] = map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"$ref": "#/$defs/field"},
	}

	document := map[string]any{
		"type":     "object",
		"required": []string{"confidence"},
		"properties": map[string]any{
			"docType":    map[string]any{"type": "string"},
			"confidence": confidenceProp,
			"fields": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"$ref": "#/$defs/field"},
			},
		},
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"modelId"},
		"$defs": map[string]any{
			"field": field,
		},
		"properties": map[string]any{
			"apiVersion": map[string]any{"type": "string"},
			"modelId":    map[string]any{"type": "string", "minLength": 1},
			"content":    map[string]any{"type": "string"},
			"documents": map[string]any{
				"type":  "array",
				"items": document,
			},
		},
	}
}

func currencyProp() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"amount"},
		"properties": map[string]any{
			"amount":       map[string]any{"type": "number"},
			"currencyCode": map[string]any{"type": "string"},
		},
	}
}
