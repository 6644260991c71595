package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/civicbridge/civicbridge/errors"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// fakeSession is an in-memory stand-in for the MCP client session.
type fakeSession struct {
	pages     [][]*mcpsdk.Tool
	page      int
	callErr   error
	lastCall  *mcpsdk.CallToolParams
	result    *mcpsdk.CallToolResult
	closed    int
	listCalls int
}

func (f *fakeSession) ListTools(ctx context.Context, params *mcpsdk.ListToolsParams) (*mcpsdk.ListToolsResult, error) {
	f.listCalls++
	if f.page >= len(f.pages) {
		return &mcpsdk.ListToolsResult{}, nil
	}
	res := &mcpsdk.ListToolsResult{Tools: f.pages[f.page]}
	f.page++
	if f.page < len(f.pages) {
		res.NextCursor = fmt.Sprintf("page-%d", f.page)
	}
	return res, nil
}

func (f *fakeSession) CallTool(ctx context.Context, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error) {
	f.lastCall = params
	if f.callErr != nil {
		return nil, f.callErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "ok"}},
	}, nil
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func TestCommandForScript(t *testing.T) {
	cases := []struct {
		path    string
		command string
		wantErr bool
	}{
		{"server.py", "python", false},
		{"path/to/server.js", "node", false},
		{"server.rb", "", true},
		{"server", "", true},
	}

	for _, tc := range cases {
		command, err := commandForScript(tc.path)
		if tc.wantErr {
			if err == nil {
				t.Errorf("commandForScript(%q): expected error", tc.path)
			} else if !errors.Is(err, errors.ErrUserInput) {
				t.Errorf("commandForScript(%q): expected user input error, got %v", tc.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("commandForScript(%q): unexpected error: %v", tc.path, err)
		}
		if command != tc.command {
			t.Errorf("commandForScript(%q): expected %q, got %q", tc.path, tc.command, command)
		}
	}
}

func TestSnapshotFollowsPagination(t *testing.T) {
	fake := &fakeSession{
		pages: [][]*mcpsdk.Tool{
			{{Name: "get_weather", Description: "current weather"}},
			{{Name: "search_web", Description: "web search"}},
		},
	}
	r := &Registry{conn: fake}

	snap, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Descriptors) != 2 {
		t.Fatalf("Expected 2 descriptors, got %d", len(snap.Descriptors))
	}
	if snap.Descriptors[0].Name != "get_weather" || snap.Descriptors[1].Name != "search_web" {
		t.Errorf("Descriptors out of order: %+v", snap.Descriptors)
	}
	if !snap.Has("get_weather") || snap.Has("unknown") {
		t.Error("Snapshot membership check is wrong")
	}
	if fake.listCalls != 2 {
		t.Errorf("Expected 2 list calls for 2 pages, got %d", fake.listCalls)
	}
}

func TestSnapshotVersionsAdvance(t *testing.T) {
	fake := &fakeSession{pages: [][]*mcpsdk.Tool{{{Name: "a"}}}}
	r := &Registry{conn: fake}

	first, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	fake.page = 0
	second, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if second.Version <= first.Version {
		t.Errorf("Expected version to advance: %d then %d", first.Version, second.Version)
	}
}

func TestSnapshotPreservesInputSchema(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"city": {Type: "string"},
		},
		Required: []string{"city"},
	}
	fake := &fakeSession{
		pages: [][]*mcpsdk.Tool{
			{{Name: "get_weather", Description: "weather", InputSchema: schema}},
		},
	}
	r := &Registry{conn: fake}

	snap, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	got := snap.Descriptors[0].InputSchema
	if got["type"] != "object" {
		t.Errorf("Expected schema type object, got %v", got["type"])
	}
	props, ok := got["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected properties map, got %T", got["properties"])
	}
	city, ok := props["city"].(map[string]interface{})
	if !ok || city["type"] != "string" {
		t.Errorf("Expected city property to survive round-trip, got %v", props["city"])
	}
}

func TestInvokeReturnsText(t *testing.T) {
	fake := &fakeSession{
		result: &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "first"},
				&mcpsdk.TextContent{Text: "second"},
			},
		},
	}
	r := &Registry{conn: fake}

	text, err := r.Invoke(context.Background(), "get_weather", map[string]interface{}{"city": "Oslo"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if text != "first\nsecond" {
		t.Errorf("Expected joined text, got %q", text)
	}
	if fake.lastCall.Name != "get_weather" {
		t.Errorf("Expected call to get_weather, got %q", fake.lastCall.Name)
	}
}

func TestInvokeTransportError(t *testing.T) {
	fake := &fakeSession{callErr: fmt.Errorf("pipe closed")}
	r := &Registry{conn: fake}

	_, err := r.Invoke(context.Background(), "get_weather", nil)
	if err == nil {
		t.Fatal("Expected error on channel failure")
	}
	if !errors.Is(err, errors.ErrTransport) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestInvokeUnknownToolAfterSnapshot(t *testing.T) {
	fake := &fakeSession{
		pages:   [][]*mcpsdk.Tool{{{Name: "get_weather"}}},
		callErr: fmt.Errorf("unknown tool"),
	}
	r := &Registry{conn: fake}
	if _, err := r.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	_, err := r.Invoke(context.Background(), "not_listed", nil)
	if !errors.Is(err, errors.ErrToolNotFound) {
		t.Errorf("Expected tool-not-found error, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := &fakeSession{}
	r := &Registry{conn: fake}

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
	if fake.closed != 1 {
		t.Errorf("Expected the session to be closed exactly once, got %d", fake.closed)
	}
}
