package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/civicbridge/civicbridge/session"
	"github.com/civicbridge/civicbridge/tokens"
)

// QueryProcessor handles one user query and returns the final text.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query string) (string, error)
}

// Shell is the interactive read-eval-print loop around the engine. It
// owns the running context: every user line and assistant reply is
// appended and resupplied, ever-growing, as a prefix on the next query.
type Shell struct {
	Engine  QueryProcessor
	Context *session.RunningContext
	Monitor tokens.Monitor
	In      io.Reader
	Out     io.Writer

	// Session, when set, persists the transcript after each turn.
	Session *session.Session
}

// Run starts the interactive loop. A literal "quit" in any case ends
// the loop cleanly; a failed turn is reported and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	// The static guidance context alone can already blow the budget.
	s.warnIfOverBudget()

	scanner := bufio.NewScanner(s.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprint(s.Out, "\nQuery: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			break
		}

		s.processTurn(ctx, line)
	}

	return scanner.Err()
}

// processTurn handles a single user input line. Errors are rendered to
// the user; a bad turn never kills the loop.
func (s *Shell) processTurn(ctx context.Context, line string) {
	s.Context.AddUser(line)
	s.warnIfOverBudget()

	response, err := s.Engine.ProcessQuery(ctx, s.Context.Query(line))
	if response != "" {
		fmt.Fprintf(s.Out, "\n%s\n", response)
	}
	if err != nil {
		fmt.Fprintf(s.Out, "\nError: %v\n", err)
	}

	// A turn that produced nothing leaves no assistant line behind.
	if response != "" {
		s.Context.AddAssistant(response)
		s.warnIfOverBudget()
	}

	if s.Session != nil {
		s.Session.AddMessage(session.Message{Role: "user", Content: line})
		if response != "" {
			s.Session.AddMessage(session.Message{Role: "assistant", Content: response})
		}
		if err := s.Session.Save(); err != nil {
			fmt.Fprintf(s.Out, "Warning: failed to save session: %v\n", err)
		}
	}
}

// warnIfOverBudget re-estimates the accumulated context after every
// append. The advisory is never a hard stop; oversized context is the
// backend's problem to reject or degrade on.
func (s *Shell) warnIfOverBudget() {
	if advisory := s.Monitor.Advisory(s.Context.String()); advisory != "" {
		fmt.Fprintf(s.Out, "Warning: %s\n", advisory)
	}
}
