// Package agent contains the conversation loop engine and the
// interactive shell around it.
//
// The engine owns a fresh message history per user query. Each round it
// sends the history plus the tool catalog to the model, folds any
// assistant text into the output buffer, executes requested tool calls
// strictly sequentially in the order the backend returned them, and
// appends one tool-result message per call before asking the model
// again. The loop ends when a response carries no tool calls, or when
// the configured round limit is exceeded.
//
// The shell owns the running context: a guidance prompt plus an
// append-only "User:" / "Assistant:" transcript that is resupplied as a
// prefix on every query. It is never trimmed; a token monitor prints an
// advisory whenever the context outgrows the effective window.
package agent
