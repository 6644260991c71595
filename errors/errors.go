package errors

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// New creates a new error with file and line number information.
func New(format string, a ...interface{}) error {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "???"
		line = 0
	} else {
		file = filepath.Base(file)
	}
	return fmt.Errorf("[%s:%d] %s", file, line, fmt.Sprintf(format, a...))
}

// Wrapf adds context (including file and line number) to an existing error.
// If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "???"
		line = 0
	} else {
		file = filepath.Base(file)
	}
	return fmt.Errorf("[%s:%d] %s: %w", file, line, fmt.Sprintf(format, a...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Sentinel errors for the failure classes the session distinguishes.
// Transport failures stay inside a turn; user input and round limit
// failures end the turn or the process.
var (
	// ErrToolNotFound indicates the model asked for a tool that is not
	// in the server's catalog.
	ErrToolNotFound = errors.New("tool not found")

	// ErrTransport indicates a failure on the channel to the tool server.
	ErrTransport = errors.New("tool server transport failure")

	// ErrBackendConfig indicates a missing or unusable backend credential.
	ErrBackendConfig = errors.New("backend not configured")

	// ErrUserInput indicates invalid input on the CLI surface, such as an
	// unsupported server script extension.
	ErrUserInput = errors.New("invalid user input")

	// ErrRoundLimit indicates the model kept requesting tool calls past
	// the configured round limit.
	ErrRoundLimit = errors.New("tool call round limit exceeded")
)

// WithSentinel tags err with a sentinel so callers can classify it via
// Is while keeping the original message.
func WithSentinel(sentinel, err error, format string, a ...interface{}) error {
	if err == nil {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), sentinel)
	}
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, a...), sentinel, err)
}
