package scorer

import (
	"strings"

	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/transcript"
)

const defaultJudgeInstruction = "You are an impartial judge scoring a conversation between a user and an AI assistant."

// jsonOnlyDirective is appended on the text fallback path, where no schema is
// enforced server-side.
const jsonOnlyDirective = "Respond with a single JSON object mapping each metric name to its value. Output only the JSON object, with no surrounding text."

// buildScoringPrompt assembles the judge's user prompt: the dataset entry's
// original context followed by the full conversation rendered as
// "ROLE: content" blocks.
func buildScoringPrompt(entry models.DatasetEntry, t models.Transcript) string {
	var sb strings.Builder

	if entry.Input != "" {
		sb.WriteString("## Original input\n")
		sb.WriteString(entry.Input)
		sb.WriteString("\n\n")
	}
	if entry.Expected != "" {
		sb.WriteString("## Expected behavior\n")
		sb.WriteString(entry.Expected)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Conversation\n\n")
	sb.WriteString(transcript.Render(t))

	return sb.String()
}

// rubricFieldHints lists the rubric fields for the text fallback path, where
// the judge has no schema to read them from.
func rubricFieldHints(rubric models.Rubric) string {
	if rubric.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Score these metrics:\n")
	for _, field := range rubric.Fields {
		sb.WriteString("- ")
		sb.WriteString(field.Name)
		sb.WriteString(" (")
		sb.WriteString(string(field.Kind))
		if field.Kind == models.KindEnum && len(field.Options) > 0 {
			sb.WriteString(": ")
			sb.WriteString(strings.Join(field.Options, " | "))
		}
		sb.WriteString(")")
		if field.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(field.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
