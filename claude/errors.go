package claude

import (
	"errors"
	"fmt"
)

// Code classifies an Error for callers that branch on failure class.
type Code string

// Error codes for control-API failures.
const (
	CodeCLINotFound       Code = "CLI_NOT_FOUND"
	CodeSpawnFailure      Code = "SPAWN_FAILURE"
	CodeWriteFailure      Code = "WRITE_FAILURE"
	CodeParseFailure      Code = "PARSE_FAILURE"
	CodeProcessNotRunning Code = "PROCESS_NOT_RUNNING"
)

// Sentinel errors for session operations.
var (
	// ErrCLINotFound indicates the claude binary is absent from the
	// search path.
	ErrCLINotFound = errors.New("claude CLI is not installed or not in PATH")

	// ErrProcessNotRunning indicates the operation targeted a session
	// with no active CLI process.
	ErrProcessNotRunning = errors.New("no CLI process running for session")

	// ErrStdinUnavailable indicates the process stdin pipe is gone,
	// which usually means the process is already dead.
	ErrStdinUnavailable = errors.New("CLI stdin not available")
)

// Error wraps a session operation failure with its classification.
type Error struct {
	Code      Code
	Op        string // operation that failed: "start", "send", ...
	SessionID string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s session %s: %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, op, sessionID string, err error) *Error {
	return &Error{Code: code, Op: op, SessionID: sessionID, Err: err}
}

// ErrorCode extracts the classification from an error, or "" when the
// error did not originate from this package's control API.
func ErrorCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ParseError reports a protocol line that could not be decoded. The
// stream loop treats it as non-fatal: the line is logged and skipped.
type ParseError struct {
	Line string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse CLI output: %v", e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
