package content

import (
	"testing"
)

type textBlock struct {
	Type string
	Text string
}

type getContenter struct{ text string }

func (g getContenter) GetText() string { return g.text }

func TestToTextNil(t *testing.T) {
	if got := ToText(nil); got != "" {
		t.Errorf("Expected empty string for nil, got %q", got)
	}
}

func TestToTextString(t *testing.T) {
	if got := ToText("hello"); got != "hello" {
		t.Errorf("Expected %q, got %q", "hello", got)
	}
}

func TestToTextSliceJoinsNonEmpty(t *testing.T) {
	if got := ToText([]interface{}{}); got != "" {
		t.Errorf("Expected empty string for empty slice, got %q", got)
	}

	got := ToText([]interface{}{"a", "", "b"})
	if got != "a\nb" {
		t.Errorf("Expected %q, got %q", "a\nb", got)
	}
}

func TestToTextNestedSlices(t *testing.T) {
	nested := []interface{}{
		"one",
		[]interface{}{"two", []interface{}{"three", nil}},
		"",
	}
	got := ToText(nested)
	if got != "one\ntwo\nthree" {
		t.Errorf("Expected %q, got %q", "one\ntwo\nthree", got)
	}
}

func TestToTextMapWithTextField(t *testing.T) {
	m := map[string]interface{}{
		"type": "text",
		"text": "the answer",
	}
	if got := ToText(m); got != "the answer" {
		t.Errorf("Expected text field to short-circuit, got %q", got)
	}
}

func TestToTextMapWithoutTextField(t *testing.T) {
	m := map[string]interface{}{"status": "ok"}
	if got := ToText(m); got != `{"status":"ok"}` {
		t.Errorf("Expected JSON serialization, got %q", got)
	}

	// A non-string text value must not short-circuit.
	m = map[string]interface{}{"text": 42}
	if got := ToText(m); got != `{"text":42}` {
		t.Errorf("Expected JSON serialization for non-string text, got %q", got)
	}
}

func TestToTextStructWithTextField(t *testing.T) {
	if got := ToText(textBlock{Type: "text", Text: "block text"}); got != "block text" {
		t.Errorf("Expected Text field value, got %q", got)
	}

	if got := ToText(&textBlock{Text: "pointer text"}); got != "pointer text" {
		t.Errorf("Expected Text field value through pointer, got %q", got)
	}

	var nilBlock *textBlock
	if got := ToText(nilBlock); got != "null" {
		t.Errorf("Expected JSON null for nil pointer, got %q", got)
	}
}

func TestToTextTexterInterface(t *testing.T) {
	if got := ToText(getContenter{text: "via accessor"}); got != "via accessor" {
		t.Errorf("Expected accessor value, got %q", got)
	}
}

func TestToTextFallbackSerialization(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	got := ToText(payload{Name: "x", Count: 2})
	if got != `{"name":"x","count":2}` {
		t.Errorf("Expected JSON fallback, got %q", got)
	}
}

func TestToTextUnserializableValue(t *testing.T) {
	// Channels cannot be JSON-marshaled; the default representation is
	// used and no panic occurs.
	ch := make(chan int)
	got := ToText(ch)
	if got == "" {
		t.Error("Expected non-empty default representation for channel")
	}
}

func TestToTextMixedParts(t *testing.T) {
	parts := []interface{}{
		map[string]interface{}{"type": "text", "text": "first"},
		textBlock{Text: "second"},
		nil,
		"third",
	}
	got := ToText(parts)
	if got != "first\nsecond\nthird" {
		t.Errorf("Expected %q, got %q", "first\nsecond\nthird", got)
	}
}
