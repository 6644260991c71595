package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/civicbridge/civicbridge/session"
	"github.com/civicbridge/civicbridge/tools"
)

// Client is the interface for interacting with a chat-completion model
// that supports tool calling. Implementations convert the canonical
// message and descriptor types into their wire shapes and back.
type Client interface {
	Chat(ctx context.Context, messages []session.Message, availableTools []tools.Descriptor) (*session.Message, error)
}

// Unconfigured is a Client whose credential was missing at startup. A
// missing key is not fatal until the backend is actually used; every
// Chat call reports the original configuration error.
type Unconfigured struct {
	Err error
}

func (u *Unconfigured) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Descriptor) (*session.Message, error) {
	return nil, u.Err
}

// MockClient is a placeholder for testing.
type MockClient struct{}

func (m *MockClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Descriptor) (*session.Message, error) {
	lastUserMessage := messages[len(messages)-1].Content
	return &session.Message{
		Role:    "assistant",
		Content: fmt.Sprintf("I am a mock model. You said: %q. I cannot use tools.", lastUserMessage),
	}, nil
}

// parseToolArgs parses a raw JSON arguments payload, falling back to an
// empty object on malformed input so one bad call cannot abort a turn.
func parseToolArgs(raw string) map[string]interface{} {
	if raw == "" {
		return map[string]interface{}{}
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]interface{}{}
	}
	return args
}
