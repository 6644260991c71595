// Package tools manages the connection to the MCP tool server
// subprocess and exposes its catalog as backend-neutral descriptors.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/civicbridge/civicbridge/content"
	"github.com/civicbridge/civicbridge/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Descriptor describes one callable tool as listed by the server.
// Immutable once fetched; refreshed only by taking a new Snapshot.
type Descriptor struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Snapshot is one versioned fetch of the server's tool catalog. The
// engine takes one snapshot per user query rather than re-listing on
// every model round.
type Snapshot struct {
	Version     int
	Descriptors []Descriptor
	names       map[string]bool
}

// Has reports whether the named tool was present in this snapshot.
func (s *Snapshot) Has(name string) bool {
	return s != nil && s.names[name]
}

// rpcSession is the slice of the MCP client session the registry uses.
type rpcSession interface {
	ListTools(ctx context.Context, params *mcpsdk.ListToolsParams) (*mcpsdk.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error)
	Close() error
}

// Registry manages the connection to a single MCP server subprocess.
type Registry struct {
	conn    rpcSession
	cmd     *exec.Cmd
	version int
	last    *Snapshot
	closed  bool
}

// commandForScript maps a server script path to its interpreter.
func commandForScript(path string) (string, error) {
	switch {
	case strings.HasSuffix(path, ".py"):
		return "python", nil
	case strings.HasSuffix(path, ".js"):
		return "node", nil
	default:
		return "", errors.WithSentinel(errors.ErrUserInput, nil,
			"server script must be a .py or .js file, got %q", path)
	}
}

// Connect spawns the MCP server subprocess for the given script and
// performs the protocol handshake. The returned registry owns the
// subprocess; Close must be called on every exit path.
func Connect(ctx context.Context, scriptPath string) (*Registry, error) {
	command, err := commandForScript(scriptPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(command, scriptPath)
	cmd.Stderr = os.Stderr

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "civicbridge", Version: "v1.0.0"}, nil)
	conn, err := client.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		return nil, errors.Wrapf(err, "failed to connect to MCP server %q", scriptPath)
	}

	return &Registry{conn: conn, cmd: cmd}, nil
}

// Snapshot fetches the tool catalog fresh from the server, following
// pagination, and returns it as an immutable versioned snapshot.
func (r *Registry) Snapshot(ctx context.Context) (*Snapshot, error) {
	r.version++
	snap := &Snapshot{Version: r.version, names: make(map[string]bool)}

	params := &mcpsdk.ListToolsParams{}
	for {
		list, err := r.conn.ListTools(ctx, params)
		if err != nil {
			return nil, errors.WithSentinel(errors.ErrTransport, err, "failed to list tools")
		}
		for _, t := range list.Tools {
			snap.Descriptors = append(snap.Descriptors, Descriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schemaToMap(t.InputSchema),
			})
			snap.names[t.Name] = true
		}
		if list.NextCursor == "" {
			break
		}
		params.Cursor = list.NextCursor
	}

	r.last = snap
	return snap, nil
}

// Invoke forwards a tool call to the server and returns the result
// content flattened to text. Server-side tool errors come back as
// readable text, not as Go errors; only channel failures error out.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	result, err := r.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		if r.last != nil && !r.last.Has(name) {
			return "", errors.WithSentinel(errors.ErrToolNotFound, err, "tool %q is not in the catalog", name)
		}
		return "", errors.WithSentinel(errors.ErrTransport, err, "failed to call tool %q", name)
	}

	var parts []interface{}
	for _, c := range result.Content {
		parts = append(parts, c)
	}
	text := content.ToText(parts)
	if result.IsError && text == "" {
		text = fmt.Sprintf("tool %q reported an error", name)
	}
	return text, nil
}

// Close releases the MCP session and terminates the server subprocess.
// It is safe to call more than once.
func (r *Registry) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if r.conn != nil {
		r.conn.Close()
	}
	if r.cmd != nil && r.cmd.Process != nil {
		fmt.Printf("INFO: Terminating MCP server (pid %d)\n", r.cmd.Process.Pid)
		return r.cmd.Process.Kill()
	}
	return nil
}

// schemaToMap converts the SDK's schema representation into a plain
// map so backend adapters can re-serialize it without loss.
func schemaToMap(schema interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
	if schema == nil {
		return out
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return out
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil || len(m) == 0 {
		return out
	}
	return m
}
