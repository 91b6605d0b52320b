package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tanuki-create/voicechat/internal/model/conversation"
)

const defaultBusyTimeout = 5 * time.Second

// Store is the durable mirror of conversation histories. It is written
// turn by turn during the live pipeline and only ever read back by the
// audit endpoint.
type Store struct {
	db *sql.DB
}

// NotFoundError indicates a requested record does not exist.
type NotFoundError struct {
	SessionID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("conversation %s not found", e.SessionID)
}

// IsNotFound returns true when err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// Open initialises the sqlite store at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", defaultBusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("store: apply pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// AppendMessage mirrors one turn. The parent conversation row is
// created on first write and its updated_at bumped on every append.
func (s *Store) AppendMessage(ctx context.Context, sessionID, role, content string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (session_id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now); err != nil {
		return fmt.Errorf("store: upsert conversation: %w", err)
	}

	var conversationID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&conversationID); err != nil {
		return fmt.Errorf("store: resolve conversation id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, timestamp)
		VALUES (?, ?, ?, ?)`,
		conversationID, role, content, now); err != nil {
		return fmt.Errorf("store: insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit append: %w", err)
	}
	return nil
}

// LoadConversation returns the persisted mirror with its ordered
// messages.
func (s *Store) LoadConversation(ctx context.Context, sessionID string) (*conversation.Record, error) {
	record := &conversation.Record{SessionID: sessionID}

	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at FROM conversations WHERE session_id = ?`,
		sessionID,
	).Scan(&record.ID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError{SessionID: sessionID}
	}
	if err != nil {
		return nil, fmt.Errorf("store: load conversation: %w", err)
	}

	record.CreatedAt = parseTimestamp(createdAt)
	record.UpdatedAt = parseTimestamp(updatedAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp FROM messages
		WHERE conversation_id = ? ORDER BY id`,
		record.ID)
	if err != nil {
		return nil, fmt.Errorf("store: load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg conversation.Message
		var ts string
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		msg.Timestamp = parseTimestamp(ts)
		record.Messages = append(record.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate messages: %w", err)
	}

	return record, nil
}

// parseTimestamp accepts both the RFC 3339 values written by this
// store and sqlite's CURRENT_TIMESTAMP format.
func parseTimestamp(raw string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}
