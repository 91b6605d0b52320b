package logbook

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tanuki-create/voicechat/internal/model/conversation"
)

// Logbook mirrors each turn to an append-only per-session jsonl file and
// writes one consolidated snapshot when the session ends. All writes are
// best-effort: failures are logged and never surfaced to the pipeline.
type Logbook struct {
	dir string
}

// entry is one jsonl line.
type entry struct {
	Timestamp string `json:"timestamp"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

// snapshot is the consolidated end-of-session record.
type snapshot struct {
	SessionID    string              `json:"session_id"`
	Timestamp    string              `json:"timestamp"`
	Conversation []conversation.Turn `json:"conversation"`
}

// New ensures the log directory exists.
func New(dir string) (*Logbook, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Logbook{dir: dir}, nil
}

// Append records one turn as soon as its content is known.
func (l *Logbook) Append(sessionID, role, content string) {
	line, err := json.Marshal(entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Role:      role,
		Content:   content,
	})
	if err != nil {
		log.Printf("[logbook] failed to marshal entry session=%s: %v", sessionID, err)
		return
	}

	path := filepath.Join(l.dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[logbook] failed to open log session=%s: %v", sessionID, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		log.Printf("[logbook] failed to append entry session=%s: %v", sessionID, err)
	}
}

// Finalize writes the complete ordered history once, at termination.
func (l *Logbook) Finalize(sessionID string, turns []conversation.Turn) {
	data, err := json.MarshalIndent(snapshot{
		SessionID:    sessionID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Conversation: turns,
	}, "", "  ")
	if err != nil {
		log.Printf("[logbook] failed to marshal snapshot session=%s: %v", sessionID, err)
		return
	}

	path := filepath.Join(l.dir, sessionID+"_full.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[logbook] failed to write snapshot session=%s: %v", sessionID, err)
		return
	}

	log.Printf("[logbook] saved full conversation session=%s turns=%d", sessionID, len(turns))
}
