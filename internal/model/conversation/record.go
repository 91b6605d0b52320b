package conversation

import "time"

// Record is the durable mirror of a session, kept for later
// retrieval/audit. It is never read back during the live pipeline.
type Record struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Message is one persisted turn belonging to a Record.
type Message struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
