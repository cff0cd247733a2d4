package chat

import "fmt"

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

// ChatMessage represents a single message in an LLM conversation.
// The role/content shape is shared by the provider APIs we call.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// TranscriptEntry is one player-visible exchange, kept on the game state
// for save files. Audio is a synthesis artifact and is never persisted.
type TranscriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

// StripAudio returns a copy of the transcript with audio payloads removed,
// suitable for serialization.
func StripAudio(transcript []TranscriptEntry) []TranscriptEntry {
	out := make([]TranscriptEntry, 0, len(transcript))
	for _, e := range transcript {
		out = append(out, TranscriptEntry{Role: e.Role, Content: e.Content})
	}
	return out
}

// TurnRequest is a player turn submitted to the api.
type TurnRequest struct {
	Input string `json:"input"`
}

func (tr *TurnRequest) Validate() error {
	if tr.Input == "" {
		return fmt.Errorf("input cannot be empty")
	}
	return nil
}
