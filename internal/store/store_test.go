package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tanuki-create/voicechat/internal/model/conversation"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "voicechat.db"))
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAppendAndLoadConversation(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	appends := []struct{ role, content string }{
		{conversation.RoleUser, "こんにちは"},
		{conversation.RoleAssistant, "こんにちは、ご用件は何でしょうか"},
		{conversation.RoleUser, "天気を教えて"},
	}
	for _, a := range appends {
		if err := st.AppendMessage(ctx, "sess-1", a.role, a.content); err != nil {
			t.Fatalf("AppendMessage err: %v", err)
		}
	}

	record, err := st.LoadConversation(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LoadConversation err: %v", err)
	}

	if record.SessionID != "sess-1" {
		t.Fatalf("unexpected session id: %s", record.SessionID)
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps on the conversation row")
	}
	if len(record.Messages) != len(appends) {
		t.Fatalf("expected %d messages, got %d", len(appends), len(record.Messages))
	}
	for i, a := range appends {
		if record.Messages[i].Role != a.role || record.Messages[i].Content != a.content {
			t.Fatalf("message %d out of order: %+v", i, record.Messages[i])
		}
	}
}

func TestAppendIsolatesSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.AppendMessage(ctx, "sess-a", conversation.RoleUser, "a"); err != nil {
		t.Fatalf("AppendMessage err: %v", err)
	}
	if err := st.AppendMessage(ctx, "sess-b", conversation.RoleUser, "b"); err != nil {
		t.Fatalf("AppendMessage err: %v", err)
	}

	record, err := st.LoadConversation(ctx, "sess-a")
	if err != nil {
		t.Fatalf("LoadConversation err: %v", err)
	}
	if len(record.Messages) != 1 || record.Messages[0].Content != "a" {
		t.Fatalf("messages leaked across sessions: %+v", record.Messages)
	}
}

func TestLoadConversationNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.LoadConversation(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error for a missing conversation")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
