package conversation

import "time"

// Roles carried by a turn. The recognizer appends user turns, the
// generator appends assistant turns; nothing else writes history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged utterance in a session's history. Immutable
// once appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTurn stamps a turn with the current wall clock.
func NewTurn(role, content string) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
