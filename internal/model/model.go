package model

// Role values for a conversation turn.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single entry in a conversation transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemTurn builds a turn carrying system instructions.
func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// UserTurn builds a turn carrying visitor input.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds a turn carrying a model reply.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// HasSystemHead reports whether the transcript already begins with a
// system turn. The relay uses this to keep persona injection idempotent:
// at most one system turn ever leads an outbound transcript.
func HasSystemHead(transcript []Turn) bool {
	return len(transcript) > 0 && transcript[0].Role == RoleSystem
}
