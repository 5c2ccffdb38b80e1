package pp

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes preprocessing errors.
type ErrorKind uint8

const (
	// ErrUnknownDirective indicates a '#' line with an unrecognized name.
	ErrUnknownDirective ErrorKind = iota

	// ErrMalformedDirective indicates a recognized directive with bad
	// syntax (e.g. #include without a file name).
	ErrMalformedDirective

	// ErrUnterminatedConditional indicates an #if without #endif at end
	// of file.
	ErrUnterminatedConditional

	// ErrUnbalancedConditional indicates #endif/#elif/#else without a
	// matching #if, or #elif/#else after #else.
	ErrUnbalancedConditional

	// ErrExpression indicates an invalid #if/#elif constant expression.
	ErrExpression

	// ErrMacroRedefinition indicates #define of an existing macro with a
	// different body.
	ErrMacroRedefinition

	// ErrMacroArguments indicates a function-like macro invoked with the
	// wrong number of arguments or an unterminated argument list.
	ErrMacroArguments

	// ErrInclude indicates a failed #include resolution.
	ErrInclude

	// ErrErrorDirective is raised by #error.
	ErrErrorDirective

	// ErrTooDeep indicates the include depth limit was exceeded.
	ErrTooDeep
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownDirective:
		return "UnknownDirective"
	case ErrMalformedDirective:
		return "MalformedDirective"
	case ErrUnterminatedConditional:
		return "UnterminatedConditional"
	case ErrUnbalancedConditional:
		return "UnbalancedConditional"
	case ErrExpression:
		return "Expression"
	case ErrMacroRedefinition:
		return "MacroRedefinition"
	case ErrMacroArguments:
		return "MacroArguments"
	case ErrInclude:
		return "Include"
	case ErrErrorDirective:
		return "ErrorDirective"
	case ErrTooDeep:
		return "TooDeep"
	default:
		return "Unknown"
	}
}

// Error represents a preprocessing error with source location.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// File is the name of the file being preprocessed.
	File string

	// Pos identifies the source location, if known.
	Pos Position
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("pp %s: %s", e.Kind, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: pp %s: %s", e.File, e.Pos.Line, e.Pos.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%d:%d: pp %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Message)
}

// FormatWithContext returns the error message with the offending source
// line and a caret pointing at the error column.
func (e *Error) FormatWithContext(source string) string {
	if source == "" || e.Pos.Line == 0 {
		return e.Error()
	}

	lines := strings.Split(source, "\n")
	if e.Pos.Line < 1 || e.Pos.Line > len(lines) {
		return e.Error()
	}

	line := lines[e.Pos.Line-1]
	col := e.Pos.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", e.Pos.Line, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Pos.Line, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))

	return sb.String()
}

// NewError creates a new preprocessing error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewErrorAt creates a new preprocessing error with location information.
func NewErrorAt(kind ErrorKind, file string, pos Position, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Pos:     pos,
	}
}

// ErrorList represents a list of preprocessing errors.
type ErrorList []*Error

// Error implements the error interface.
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// FormatAll returns all errors formatted with source context.
func (el ErrorList) FormatAll(source string) string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.FormatWithContext(source))
	}
	return sb.String()
}

// Add adds an error to the list.
func (el *ErrorList) Add(err *Error) {
	*el = append(*el, err)
}

// HasErrors returns true if there are any errors.
func (el ErrorList) HasErrors() bool {
	return len(el) > 0
}
