package domain

import "fmt"

// Kind classifies a generation failure.
type Kind string

const (
	// MalformedAnnotation means a directive could not be parsed.
	MalformedAnnotation Kind = "malformed-annotation"
	// UnsupportedFieldType means no default is derivable for a field and
	// none was supplied.
	UnsupportedFieldType Kind = "unsupported-field-type"
	// NoConversionPath means a rewrite needs a conversion into the
	// function's error type and no errgen:from provider is visible.
	NoConversionPath Kind = "no-conversion-path"

	// Ambient pipeline phases.
	KindConfig Kind = "config"
	KindScan   Kind = "scan"
	KindParse  Kind = "parse"
	KindEmit   Kind = "emit"
	KindWrite  Kind = "write"
	KindReport Kind = "report"
)

// Error is a generation-time failure pointing at the offending declaration.
// All failures surface before the generated program ever runs.
type Error struct {
	Kind       Kind
	File       string
	LineNumber int
	Message    string
	Suggestion string
	Cause      error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s]", e.Kind)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.LineNumber > 0 {
		s += fmt.Sprintf(":%d", e.LineNumber)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Suggestion != "" {
		s += fmt.Sprintf(" (%s)", e.Suggestion)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error.
func NewError(kind Kind, file string, line int, message string, cause error) *Error {
	return &Error{
		Kind:       kind,
		File:       file,
		LineNumber: line,
		Message:    message,
		Cause:      cause,
	}
}

// NewErrorWithSuggestion creates a new Error carrying a hint for the user.
func NewErrorWithSuggestion(kind Kind, file string, line int, message, suggestion string, cause error) *Error {
	e := NewError(kind, file, line, message, cause)
	e.Suggestion = suggestion
	return e
}
