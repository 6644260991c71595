package session

import (
	"strings"
	"testing"
)

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	sess, err := New("election-day")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	sess.AddMessage(Message{Role: "user", Content: "who represents me?"})
	sess.AddMessage(Message{
		Role:    "assistant",
		Content: "Your representative is on file.",
		ToolCalls: []ToolCall{
			{ToolCallID: "call_1", Name: "get_representative", Args: map[string]interface{}{"zip": "02139"}},
		},
	})
	if err := sess.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load("election-day")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "election-day" {
		t.Errorf("Expected session name %q, got %q", "election-day", loaded.Name)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("Expected 2 messages after round trip, got %d", len(loaded.Messages))
	}
	if loaded.Messages[0].Role != "user" || loaded.Messages[0].Content != "who represents me?" {
		t.Errorf("User message not preserved: %+v", loaded.Messages[0])
	}
	if len(loaded.Messages[1].ToolCalls) != 1 || loaded.Messages[1].ToolCalls[0].Name != "get_representative" {
		t.Errorf("Tool calls not preserved: %+v", loaded.Messages[1])
	}
}

func TestLoadedSessionCanSaveAgain(t *testing.T) {
	t.Chdir(t.TempDir())

	sess, err := New("resumable")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	sess.AddMessage(Message{Role: "user", Content: "first"})
	if err := sess.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load("resumable")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loaded.AddMessage(Message{Role: "assistant", Content: "second"})
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save after Load failed: %v", err)
	}

	reloaded, err := Load("resumable")
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(reloaded.Messages) != 2 {
		t.Errorf("Expected 2 messages after resumed save, got %d", len(reloaded.Messages))
	}
}

func TestLoadMissingSession(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load("never-saved"); err == nil {
		t.Error("Expected an error loading a session that was never saved")
	} else if !strings.Contains(err.Error(), "never-saved") {
		t.Errorf("Expected the session name in the error, got %v", err)
	}
}
