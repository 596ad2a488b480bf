package gateway

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOpenAI(t *testing.T) {
	client, err := Resolve("openai", "sk-test")
	require.NoError(t, err)
	assert.IsType(t, &openAIClient{}, client)
}

func TestResolveAnthropic(t *testing.T) {
	client, err := Resolve("Anthropic", "key")
	require.NoError(t, err)
	assert.IsType(t, &anthropicClient{}, client)
}

func TestResolveMissingKey(t *testing.T) {
	_, err := Resolve("openai", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	_, err = Resolve("anthropic", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestResolveUnknownProvider(t *testing.T) {
	_, err := Resolve("cohere", "key")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
	assert.Contains(t, err.Error(), "cohere")
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			text:  `{"score": 4}`,
			want:  `{"score": 4}`,
			found: true,
		},
		{
			name:  "surrounded by prose",
			text:  "Here is my evaluation:\n```json\n{\"score\": 4, \"pass\": true}\n```\nThanks!",
			want:  `{"score": 4, "pass": true}`,
			found: true,
		},
		{
			name:  "nested objects",
			text:  `result: {"outer": {"inner": 1}} trailing {"second": 2}`,
			want:  `{"outer": {"inner": 1}}`,
			found: true,
		},
		{
			name:  "braces inside strings",
			text:  `{"note": "a } inside and a \" quote", "n": 1}`,
			want:  `{"note": "a } inside and a \" quote", "n": 1}`,
			found: true,
		},
		{
			name:  "no object",
			text:  "no json here, just text",
			found: false,
		},
		{
			name:  "unbalanced",
			text:  `{"open": 1`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tt.text)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
				assert.True(t, json.Valid([]byte(got)))
			}
		})
	}
}

func TestValidateAgainstSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{"type": "number"},
			"pass":  map[string]any{"type": "boolean"},
		},
		"required":             []any{"score", "pass"},
		"additionalProperties": false,
	}

	err := ValidateAgainstSchema(map[string]any{"score": 4.0, "pass": true}, schema)
	assert.NoError(t, err)

	err = ValidateAgainstSchema(map[string]any{"score": "high", "pass": true}, schema)
	assert.Error(t, err)

	err = ValidateAgainstSchema(map[string]any{"score": 4.0}, schema)
	assert.Error(t, err)

	err = ValidateAgainstSchema(map[string]any{"score": 4.0, "pass": true, "extra": 1}, schema)
	assert.Error(t, err)
}

func TestScriptedClientReplaysInOrder(t *testing.T) {
	client := NewScriptedClient("first", "second")

	for i, want := range []string{"first", "second", "second"} {
		got, err := client.GenerateText(t.Context(), GenerateRequest{Model: "test"})
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, 3, client.TextCalls())
}

func TestScriptedClientEmptyScript(t *testing.T) {
	client := NewScriptedClient()
	_, err := client.GenerateText(t.Context(), GenerateRequest{})
	assert.True(t, errors.Is(err, ErrEmptyCompletion))
}
