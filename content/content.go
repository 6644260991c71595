// Package content collapses the heterogeneous content shapes returned
// by tool servers and model backends into plain text.
package content

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Texter is implemented by content values that can surface their text
// directly, such as provider-native text blocks.
type Texter interface {
	GetText() string
}

// ToText converts an arbitrary content value into a single flat string.
// It is total: it always terminates and never returns an error. Shapes
// are checked in order, so provider-native values with a direct text
// field short-circuit full JSON serialization and avoid being
// double-encoded.
func ToText(v interface{}) string {
	if v == nil {
		return ""
	}

	switch c := v.(type) {
	case string:
		return c
	case Texter:
		return c.GetText()
	case []interface{}:
		return joinParts(c)
	case map[string]interface{}:
		if text, ok := c["text"].(string); ok {
			return text
		}
		return jsonOrDefault(c)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = rv.Index(i).Interface()
		}
		return joinParts(parts)
	}

	// Opaque values exposing a readable string Text field, like the MCP
	// SDK's TextContent, are taken verbatim.
	if text, ok := textField(rv); ok {
		return text
	}

	return jsonOrDefault(v)
}

// joinParts normalizes each element and joins the non-empty results
// with newlines.
func joinParts(parts []interface{}) string {
	var out []string
	for _, p := range parts {
		if s := ToText(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

func textField(rv reflect.Value) (string, bool) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	f := rv.FieldByName("Text")
	if f.IsValid() && f.Kind() == reflect.String {
		return f.String(), true
	}
	return "", false
}

func jsonOrDefault(v interface{}) string {
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}
