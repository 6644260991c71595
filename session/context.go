package session

import "strings"

// RunningContext is the accreted context resupplied as a prefix on
// every query: static guidance text followed by a rolling transcript of
// "User:" / "Assistant:" lines. It is append-only; nothing is ever
// trimmed, so callers are expected to watch its token cost.
type RunningContext struct {
	sb strings.Builder
}

// NewRunningContext seeds the context with static guidance text, if any.
func NewRunningContext(guidance string) *RunningContext {
	rc := &RunningContext{}
	if guidance != "" {
		rc.sb.WriteString("Guidance instructions:\n")
		rc.sb.WriteString(guidance)
		rc.sb.WriteString("\n\n")
	}
	return rc
}

// AddUser appends a user line to the transcript.
func (rc *RunningContext) AddUser(line string) {
	rc.sb.WriteString("User: ")
	rc.sb.WriteString(line)
	rc.sb.WriteString("\n")
}

// AddAssistant appends an assistant line to the transcript.
func (rc *RunningContext) AddAssistant(line string) {
	rc.sb.WriteString("Assistant: ")
	rc.sb.WriteString(line)
	rc.sb.WriteString("\n")
}

// String returns the full accumulated context.
func (rc *RunningContext) String() string {
	return rc.sb.String()
}

// Query returns the prompt for one turn: the accumulated context
// followed by the current query text.
func (rc *RunningContext) Query(query string) string {
	return rc.sb.String() + query
}
