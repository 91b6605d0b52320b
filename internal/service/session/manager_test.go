package session_test

import (
	"errors"
	"testing"

	"github.com/tanuki-create/voicechat/internal/model/conversation"
	"github.com/tanuki-create/voicechat/internal/service/session"
)

func TestManagerCreateAndGet(t *testing.T) {
	mgr := session.NewManager()

	sess := mgr.Create()
	if sess.ID == "" {
		t.Fatal("expected a session identity")
	}
	if sess.CreatedAt.IsZero() {
		t.Fatal("expected a creation timestamp")
	}

	got, err := mgr.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.ID != sess.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, sess.ID)
	}

	other := mgr.Create()
	if other.ID == sess.ID {
		t.Fatal("session identities must be unique")
	}
}

func TestManagerGetNotFound(t *testing.T) {
	mgr := session.NewManager()

	if _, err := mgr.Get("missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerAppendPreservesOrder(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.Create()

	turns := []conversation.Turn{
		conversation.NewTurn(conversation.RoleUser, "こんにちは"),
		conversation.NewTurn(conversation.RoleAssistant, "やあ"),
		conversation.NewTurn(conversation.RoleUser, "元気？"),
	}
	for _, turn := range turns {
		if err := mgr.Append(sess.ID, turn); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	history, err := mgr.History(sess.ID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != len(turns) {
		t.Fatalf("expected %d turns, got %d", len(turns), len(history))
	}
	for i, turn := range turns {
		if history[i].Role != turn.Role || history[i].Content != turn.Content {
			t.Fatalf("turn %d out of order: %+v", i, history[i])
		}
	}
}

func TestManagerAppendUnknownSession(t *testing.T) {
	mgr := session.NewManager()

	err := mgr.Append("missing", conversation.NewTurn(conversation.RoleUser, "x"))
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerHistoryReturnsCopy(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.Create()

	if err := mgr.Append(sess.ID, conversation.NewTurn(conversation.RoleUser, "original")); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	history, _ := mgr.History(sess.ID)
	history[0].Content = "mutated"

	fresh, _ := mgr.History(sess.ID)
	if fresh[0].Content != "original" {
		t.Fatal("History must return a copy, not the backing slice")
	}
}

func TestManagerRemoveReturnsFinalHistory(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.Create()

	mgr.Append(sess.ID, conversation.NewTurn(conversation.RoleUser, "a"))
	mgr.Append(sess.ID, conversation.NewTurn(conversation.RoleAssistant, "b"))

	turns := mgr.Remove(sess.ID)
	if len(turns) != 2 {
		t.Fatalf("expected final history of 2 turns, got %d", len(turns))
	}
	if mgr.Len() != 0 {
		t.Fatalf("expected empty registry, got %d sessions", mgr.Len())
	}
	if _, err := mgr.Get(sess.ID); err == nil {
		t.Fatal("expected session to be gone")
	}

	if again := mgr.Remove(sess.ID); again != nil {
		t.Fatalf("removing twice should yield nil, got %v", again)
	}
}
