package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// ProtoshapeError is the interface implemented by all tooling errors.
type ProtoshapeError interface {
	error // Embed the standard error interface
	Pos() Position
	Kind() string // "Syntax", "Load" or "Runtime"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// SyntaxError represents a malformed scenario step or value literal.
type SyntaxError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax Error at %s: %s", e.Position, e.Msg)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// LoadError represents a file that could not be read or decoded.
type LoadError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("Load Error at %s: %s", e.Position, e.Msg)
}
func (e *LoadError) Pos() Position   { return e.Position }
func (e *LoadError) Kind() string    { return "Load" }
func (e *LoadError) Message() string { return e.Msg }
func (e *LoadError) Unwrap() error   { return e.Cause }
func (e *LoadError) CausedBy(cause error) *LoadError {
	e.Cause = cause
	return e
}

// RuntimeError represents a failed step: an uncaught script exception or an
// expectation that did not hold.
type RuntimeError struct {
	// Position points at the step that failed rather than the exact token.
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("Runtime Error at %s: %s", e.Position, e.Msg)
}
func (e *RuntimeError) Pos() Position   { return e.Position }
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// --- Helpers ---

// NewSyntaxError creates a SyntaxError with a formatted message
func NewSyntaxError(pos Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{Position: pos, Msg: fmt.Sprintf(format, args...)}
}

// NewLoadError creates a LoadError with a formatted message
func NewLoadError(pos Position, format string, args ...any) *LoadError {
	return &LoadError{Position: pos, Msg: fmt.Sprintf(format, args...)}
}

// NewRuntimeError creates a RuntimeError with a formatted message
func NewRuntimeError(pos Position, format string, args ...any) *RuntimeError {
	return &RuntimeError{Position: pos, Msg: fmt.Sprintf(format, args...)}
}

// AsProtoshapeError finds the first ProtoshapeError in err's chain
func AsProtoshapeError(err error) (ProtoshapeError, bool) {
	var pe ProtoshapeError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// --- Error Reporting ---

// DisplayErrors prints a list of errors to w in a user-friendly format,
// including the source line and position marker.
func DisplayErrors(w io.Writer, source string, errs []ProtoshapeError) {
	if len(errs) == 0 {
		return
	}

	lines := strings.Split(source, "\n")

	for _, err := range errs {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()
		if cause := err.Unwrap(); cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, cause)
		}

		// Ensure line numbers are within bounds (1-based index)
		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s Error: %s\n", kind, msg)
			continue
		}

		sourceLine := lines[lineIdx]
		trimmedLine := strings.TrimRight(sourceLine, "\r\n\t ")

		// Format: <Kind> Error at <Line>:<Column>: <Message>
		fmt.Fprintf(w, "%s Error at %s: %s\n", kind, pos, msg)
		fmt.Fprintf(w, "  %s\n", trimmedLine)

		column := pos.Column - 1
		if column < 0 {
			column = 0
		}
		marker := strings.Repeat(" ", column) + "^"
		fmt.Fprintf(w, "  %s\n", marker)
		fmt.Fprintln(w)
	}
}
