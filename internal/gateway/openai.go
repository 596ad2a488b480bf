package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spboyer/promptlab/internal/models"
)

// openAIClient implements [Client] over the OpenAI chat completions API.
type openAIClient struct {
	client *openai.Client
}

func newOpenAIClient(apiKey string) *openAIClient {
	return &openAIClient{client: openai.NewClient(apiKey)}
}

func (c *openAIClient) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		TopP:        float32(req.TopP),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: %w", ErrEmptyCompletion)
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) GenerateStructured(ctx context.Context, req StructuredRequest) (map[string]any, error) {
	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("serializing schema: %w", err)
	}

	messages := []openai.ChatCompletionMessage{}
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	name := req.SchemaName
	if name == "" {
		name = "response"
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: json.RawMessage(schemaJSON),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai structured completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai structured completion: %w", ErrEmptyCompletion)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &obj); err != nil {
		return nil, fmt.Errorf("parsing structured response: %w", err)
	}

	// Strict mode should guarantee conformance; validate anyway so both
	// providers give the same contract.
	if err := ValidateAgainstSchema(obj, req.Schema); err != nil {
		return nil, err
	}

	return obj, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case models.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case models.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
