package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tanuki-create/voicechat/internal/model/conversation"
)

// ErrSessionNotFound is returned for operations on unknown identities.
var ErrSessionNotFound = errors.New("session not found")

// Session captures one live connection's identity and creation time.
// Its turn history lives in the manager so a session value can be
// copied freely.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Manager owns the registry mapping session identity to conversation
// state. It replaces process-wide registries: handlers receive it
// explicitly and all mutation goes through its methods.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	histories map[string][]conversation.Turn
}

// NewManager bootstraps an empty registry.
func NewManager() *Manager {
	return &Manager{
		sessions:  make(map[string]Session),
		histories: make(map[string][]conversation.Turn),
	}
}

// Create mints a session with a fresh identity and empty history.
func (m *Manager) Create() Session {
	sess := Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.histories[sess.ID] = make([]conversation.Turn, 0, 16)
	m.mu.Unlock()

	return sess
}

// Get retrieves a session by identifier.
func (m *Manager) Get(sessionID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Append adds one turn to the session history. Turns are immutable and
// strictly ordered; there is no way to edit or reorder them afterwards.
func (m *Manager) Append(sessionID string, turn conversation.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	m.histories[sessionID] = append(m.histories[sessionID], turn)
	return nil
}

// History returns a copy of the ordered turn sequence.
func (m *Manager) History(sessionID string) ([]conversation.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns, ok := m.histories[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]conversation.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// Remove discards the session and returns the history as it stood, so
// the caller can finalize it. Removing an unknown session yields nil.
func (m *Manager) Remove(sessionID string) []conversation.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.histories[sessionID]
	delete(m.sessions, sessionID)
	delete(m.histories, sessionID)
	return turns
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
