package llm

import (
	"testing"

	"github.com/civicbridge/civicbridge/session"
	"github.com/civicbridge/civicbridge/tools"
)

func TestConvertDescriptorsToOpenAITools(t *testing.T) {
	descriptors := []tools.Descriptor{
		weatherDescriptor(),
		{Name: "search_web", Description: "Web search"},
	}

	result := convertDescriptorsToOpenAITools(descriptors)
	if len(result) != 2 {
		t.Fatalf("Expected 2 tools, got %d", len(result))
	}

	first := result[0].OfFunction
	if first == nil {
		t.Fatal("Expected a function tool")
	}
	if first.Function.Name != "get_weather" {
		t.Errorf("Expected name 'get_weather', got %q", first.Function.Name)
	}
	// The full input schema travels as the function parameters.
	params := map[string]interface{}(first.Function.Parameters)
	props, ok := params["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected properties in parameters, got %v", params)
	}
	if _, ok := props["city"]; !ok {
		t.Errorf("Input schema not preserved: %v", props)
	}

	second := result[1].OfFunction
	if second.Function.Parameters == nil {
		t.Error("Expected a default object schema for a tool without one")
	}

	if convertDescriptorsToOpenAITools(nil) != nil {
		t.Error("Expected nil for empty catalog")
	}
}

func TestConvertDescriptorNamesAreInjective(t *testing.T) {
	descriptors := []tools.Descriptor{
		{Name: "tool_a"}, {Name: "tool_b"}, {Name: "tool_c"},
	}
	result := convertDescriptorsToOpenAITools(descriptors)

	seen := map[string]bool{}
	for _, tool := range result {
		name := tool.OfFunction.Function.Name
		if seen[name] {
			t.Errorf("Duplicate converted name %q", name)
		}
		seen[name] = true
	}
	for _, d := range descriptors {
		if !seen[d.Name] {
			t.Errorf("Name %q lost in conversion", d.Name)
		}
	}
}

func TestConvertMessagesToOpenaiContent(t *testing.T) {
	messages := []session.Message{
		{Role: "user", Content: "what's the weather?"},
		{
			Role:    "assistant",
			Content: "checking",
			ToolCalls: []session.ToolCall{
				{ToolCallID: "call_1", Name: "get_weather", Args: map[string]interface{}{"city": "Oslo"}},
			},
		},
		{
			Role:      "tool",
			Content:   "12C and raining",
			ToolCalls: []session.ToolCall{{ToolCallID: "call_1", Name: "get_weather"}},
		},
	}

	result := convertMessagesToOpenaiContent(messages)
	if len(result) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(result))
	}
	if result[0].OfUser == nil {
		t.Error("Expected first message to be a user message")
	}
	if result[2].OfTool == nil {
		t.Fatal("Expected third message to be a tool message")
	}
	if result[2].OfTool.ToolCallID != "call_1" {
		t.Errorf("Tool message not keyed to the call id: %q", result[2].OfTool.ToolCallID)
	}
}

func TestConvertMessagesSkipsMalformedToolMessage(t *testing.T) {
	// A tool message needs exactly one ToolCall to identify the call id.
	messages := []session.Message{
		{Role: "tool", Content: "orphan result"},
	}
	result := convertMessagesToOpenaiContent(messages)
	if len(result) != 0 {
		t.Errorf("Expected malformed tool message to be skipped, got %d messages", len(result))
	}
}
