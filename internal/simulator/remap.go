package simulator

import (
	"github.com/spboyer/promptlab/internal/gateway"
	"github.com/spboyer/promptlab/internal/models"
)

// RemapForSpeaker rewrites transcript roles to the given speaker's
// perspective: turns the speaker authored become "assistant" (its own prior
// output), turns from the other side become "user" input. A single model
// plays both sides of the conversation across a run; without this flip each
// model would see its own words attributed to the other party. System turns
// pass through unchanged.
//
// Applying the remap for one speaker and then for the other restores the
// original role labels.
func RemapForSpeaker(transcript models.Transcript, speaker Speaker) []gateway.Message {
	out := make([]gateway.Message, 0, len(transcript))
	for _, turn := range transcript {
		role := turn.Role
		if role != models.RoleSystem {
			if authorOf(role) == speaker {
				role = models.RoleAssistant
			} else {
				role = models.RoleUser
			}
		}
		out = append(out, gateway.Message{Role: role, Content: turn.Content})
	}
	return out
}

// authorOf maps a transcript role back to the speaker that authored it.
func authorOf(role models.Role) Speaker {
	if role == models.RoleAssistant {
		return SpeakerAssistant
	}
	return SpeakerUser
}
