package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicbridge/civicbridge/errors"
	"github.com/civicbridge/civicbridge/llm"
	"github.com/civicbridge/civicbridge/session"
	"github.com/civicbridge/civicbridge/tools"
)

// noContentPlaceholder stands in for tool results that normalize to
// empty text, so the model always sees an answer for every call.
const noContentPlaceholder = "Tool returned no content."

// ToolSource supplies the engine with a catalog snapshot and executes
// tool calls against the live connection.
type ToolSource interface {
	Snapshot(ctx context.Context) (*tools.Snapshot, error)
	Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

// Engine drives the conversation loop for one query: model call, tool
// execution, repeat, until the model stops asking for tools or the
// round limit is hit.
type Engine struct {
	Client    llm.Client
	Tools     ToolSource
	MaxRounds int
}

// ProcessQuery runs the loop for a single user query. The query string
// already carries the accumulated context prefix supplied by the shell.
// On a round-limit or backend error the output gathered so far is still
// returned alongside the error.
func (e *Engine) ProcessQuery(ctx context.Context, query string) (string, error) {
	history := []session.Message{{Role: "user", Content: query}}

	// One catalog snapshot per query; a reconnect between queries can
	// change the catalog, a model round within one cannot.
	snap, err := e.Tools.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	maxRounds := e.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 16
	}

	var finalText []string
	for round := 0; ; round++ {
		if round >= maxRounds {
			return strings.Join(finalText, "\n"),
				errors.WithSentinel(errors.ErrRoundLimit, nil, "model kept requesting tools after %d rounds", maxRounds)
		}

		resp, err := e.Client.Chat(ctx, history, snap.Descriptors)
		if err != nil {
			return strings.Join(finalText, "\n"), err
		}

		if resp.Content != "" {
			finalText = append(finalText, resp.Content)
		}

		if len(resp.ToolCalls) == 0 {
			return strings.Join(finalText, "\n"), nil
		}

		// The assistant message goes into history verbatim, call ids
		// included, so the backend can correlate the results.
		history = append(history, *resp)

		for _, tc := range resp.ToolCalls {
			args := tc.Args
			if args == nil {
				args = map[string]interface{}{}
			}

			result, err := e.Tools.Invoke(ctx, tc.Name, args)
			if err != nil {
				// Transport and lookup failures become tool-result text;
				// the remaining calls in the round still run.
				result = fmt.Sprintf("Error calling tool %q: %v", tc.Name, err)
			}
			if result == "" {
				result = noContentPlaceholder
			}

			history = append(history, session.Message{
				Role:      "tool",
				Content:   result,
				ToolCalls: []session.ToolCall{{ToolCallID: tc.ToolCallID, Name: tc.Name}},
			})
		}
	}
}
