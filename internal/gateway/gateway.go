package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spboyer/promptlab/internal/models"
)

//go:generate mockgen -source=gateway.go -destination=mock_client.go -package=gateway

// Message is one entry of the history sent to a model. Role is the role as
// seen by that model, after any perspective remapping.
type Message struct {
	Role    models.Role
	Content string
}

// GenerateRequest asks a model for a free-text completion.
type GenerateRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// StructuredRequest asks a model for an object conforming to a JSON schema.
type StructuredRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
	SchemaName        string
	Schema            map[string]any
	Temperature       float64
	MaxTokens         int
}

// Client is the model client gateway: an opaque request/response surface over
// one provider. Implementations do not retry; failures are surfaced to the
// caller as-is.
type Client interface {
	// GenerateText returns a free-text completion for the message history.
	GenerateText(ctx context.Context, req GenerateRequest) (string, error)

	// GenerateStructured returns an object validated against req.Schema.
	GenerateStructured(ctx context.Context, req StructuredRequest) (map[string]any, error)
}

// ResolveFromEnv resolves a client using the conventional environment
// variable for the provider's API key.
func ResolveFromEnv(provider string) (Client, error) {
	var apiKey string
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		apiKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return Resolve(provider, apiKey)
}

// Resolve returns a client for the given provider. A missing API key and an
// unknown provider are distinguishable via [ErrMissingAPIKey] and
// [ErrUnknownProvider].
func Resolve(provider, apiKey string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("provider %q: %w", provider, ErrMissingAPIKey)
		}
		return newOpenAIClient(apiKey), nil
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("provider %q: %w", provider, ErrMissingAPIKey)
		}
		return newAnthropicClient(apiKey), nil
	default:
		return nil, fmt.Errorf("provider %q: %w", provider, ErrUnknownProvider)
	}
}
