package gateway

import (
	"context"
	"sync"
)

// ScriptedClient is a simple in-memory Client for testing. It replays canned
// text replies in order and records every request it receives.
type ScriptedClient struct {
	mu sync.Mutex

	// TextReplies are returned by GenerateText in order. When the script is
	// exhausted the last reply repeats.
	TextReplies []string

	// TextErr, when set, is returned by GenerateText instead of a reply.
	TextErr error

	// StructuredReply is returned by GenerateStructured.
	StructuredReply map[string]any

	// StructuredErr, when set, is returned by GenerateStructured.
	StructuredErr error

	TextRequests       []GenerateRequest
	StructuredRequests []StructuredRequest

	calls int
}

// NewScriptedClient creates a client that replays the given text replies.
func NewScriptedClient(replies ...string) *ScriptedClient {
	return &ScriptedClient{TextReplies: replies}
}

func (s *ScriptedClient) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TextRequests = append(s.TextRequests, req)

	if s.TextErr != nil {
		return "", s.TextErr
	}
	if len(s.TextReplies) == 0 {
		return "", ErrEmptyCompletion
	}

	idx := s.calls
	if idx >= len(s.TextReplies) {
		idx = len(s.TextReplies) - 1
	}
	s.calls++

	return s.TextReplies[idx], nil
}

func (s *ScriptedClient) GenerateStructured(ctx context.Context, req StructuredRequest) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.StructuredRequests = append(s.StructuredRequests, req)

	if s.StructuredErr != nil {
		return nil, s.StructuredErr
	}
	return s.StructuredReply, nil
}

// TextCalls reports how many GenerateText calls were made.
func (s *ScriptedClient) TextCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.TextRequests)
}
