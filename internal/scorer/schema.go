package scorer

import (
	"fmt"

	"github.com/spboyer/promptlab/internal/models"
)

// BuildSchema turns a rubric into the JSON schema submitted with the judge's
// structured-generation call. Every rubric field is required, and no fields
// outside the rubric are allowed, so a conforming reply is usable as the
// metrics mapping directly.
func BuildSchema(rubric models.Rubric) map[string]any {
	properties := make(map[string]any, len(rubric.Fields))
	required := make([]string, 0, len(rubric.Fields))

	for _, field := range rubric.Fields {
		properties[field.Name] = fieldSchema(field)
		required = append(required, field.Name)
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func fieldSchema(field models.RubricField) map[string]any {
	description := field.Description

	switch field.Kind {
	case models.KindNumber:
		if description == "" {
			description = fmt.Sprintf("Numeric score for %q", field.Name)
		}
		return map[string]any{"type": "number", "description": description}
	case models.KindBoolean:
		if description == "" {
			description = fmt.Sprintf("Whether the conversation satisfies %q", field.Name)
		}
		return map[string]any{"type": "boolean", "description": description}
	case models.KindEnum:
		if description == "" {
			description = fmt.Sprintf("One of the allowed values for %q", field.Name)
		}
		return map[string]any{"type": "string", "enum": field.Options, "description": description}
	default:
		if description == "" {
			description = fmt.Sprintf("Free-text assessment for %q", field.Name)
		}
		return map[string]any{"type": "string", "description": description}
	}
}
