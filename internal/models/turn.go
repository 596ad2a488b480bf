package models

import "time"

// Role identifies the author of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single message in a conversation. Immutable once appended to a
// transcript.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Transcript is an ordered sequence of turns. Insertion order is the
// conversational order and is replayed verbatim to models and judges, so the
// only permitted mutation is appending.
type Transcript []Turn

// Append returns the transcript with the new turn added at the end.
func (t Transcript) Append(role Role, content string) Transcript {
	return append(t, Turn{Role: role, Content: content})
}

// Last returns the most recent turn, or false when the transcript is empty.
func (t Transcript) Last() (Turn, bool) {
	if len(t) == 0 {
		return Turn{}, false
	}
	return t[len(t)-1], true
}

// TranscriptRecord is the persisted form of a finished (or aborted)
// conversation, stored in the transcript collection.
type TranscriptRecord struct {
	ID         string     `json:"id"`
	EntryID    string     `json:"entry_id"`
	Turns      Transcript `json:"turns"`
	StopReason string     `json:"stop_reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
