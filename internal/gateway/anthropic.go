package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spboyer/promptlab/internal/models"
)

// defaultMaxTokens is used when the caller does not set a limit; the
// Anthropic API requires max_tokens on every request.
const defaultMaxTokens = 4096

// anthropicClient implements [Client] over the Anthropic Messages API.
//
// The Messages API has no server-side JSON-schema mode, so GenerateStructured
// embeds the schema in the prompt, extracts the JSON object from the text
// reply, and validates it locally before returning.
type anthropicClient struct {
	client anthropic.Client
}

func newAnthropicClient(apiKey string) *anthropicClient {
	return &anthropicClient{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (c *anthropicClient) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	system, messages := toAnthropicMessages(req.Messages)

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = anthropic.Float(req.TopP)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	text := textContent(msg)
	if text == "" {
		return "", fmt.Errorf("anthropic message: %w", ErrEmptyCompletion)
	}

	return text, nil
}

func (c *anthropicClient) GenerateStructured(ctx context.Context, req StructuredRequest) (map[string]any, error) {
	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("serializing schema: %w", err)
	}

	var prompt strings.Builder
	prompt.WriteString(req.Prompt)
	prompt.WriteString("\n\nRespond with a single JSON object conforming to this JSON schema. Output only the JSON object.\n\n")
	prompt.Write(schemaJSON)

	text, err := c.GenerateText(ctx, GenerateRequest{
		Model: req.Model,
		Messages: []Message{
			{Role: models.RoleSystem, Content: req.SystemInstruction},
			{Role: models.RoleUser, Content: prompt.String()},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw, ok := FirstJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("anthropic structured completion: no JSON object in response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("parsing structured response: %w", err)
	}

	if err := ValidateAgainstSchema(obj, req.Schema); err != nil {
		return nil, err
	}

	return obj, nil
}

// toAnthropicMessages splits out system turns (the Messages API takes the
// system instruction as a top-level parameter) and converts the rest.
func toAnthropicMessages(messages []Message) (string, []anthropic.MessageParam) {
	var system []string
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			if m.Content != "" {
				system = append(system, m.Content)
			}
		case models.RoleAssistant:
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
			})
		default:
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
			})
		}
	}

	return strings.Join(system, "\n\n"), out
}

func textContent(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
