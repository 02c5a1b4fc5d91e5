package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "history.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAppendAndRead(t *testing.T) {
	st := openTestStore(t)

	if err := st.AppendMessage("sess-1", "user", "hello"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := st.AppendMessage("sess-1", "assistant", "hi"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := st.AppendMessage("sess-2", "user", "other session"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	msgs, err := st.MessagesForSession("sess-1")
	if err != nil {
		t.Fatalf("MessagesForSession: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "hi" {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
	if msgs[0].CreatedAt.IsZero() {
		t.Error("createdAt should be set")
	}
}

func TestMessagesForUnknownSession(t *testing.T) {
	st := openTestStore(t)
	msgs, err := st.MessagesForSession("nope")
	if err != nil {
		t.Fatalf("MessagesForSession: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages = %d, want 0", len(msgs))
	}
}

func TestSessionsListing(t *testing.T) {
	st := openTestStore(t)

	st.AppendMessage("a", "user", "1")
	st.AppendMessage("b", "user", "2")
	st.AppendMessage("a", "user", "3")

	ids, err := st.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("sessions = %v", ids)
	}
}
