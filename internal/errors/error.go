package errors

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryTemplate Category = "template"
	CategoryTree     Category = "tree"
	CategoryRender   Category = "render"
	CategoryServer   Category = "server"
	CategoryCLI      Category = "cli"
)

// Location is a position in a template file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// StitchError is a structured error with a code, an optional location
// and a hint.
type StitchError struct {
	// Code is a unique error identifier (e.g., "S101").
	Code string

	Category Category
	Message  string
	Detail   string
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL links to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StitchError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StitchError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a template location to the error.
func (e *StitchError) WithLocation(file string, line, column int) *StitchError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// templateErr matches "template: name:line:" and "template: name:line:col:"
// prefixes produced by text/template and html/template.
var templateErr = regexp.MustCompile(`template: ([^:]+):(\d+)(?::(\d+))?:`)

// WithLocationFromTemplate extracts the location from a template parse or
// execution error. Errors without one leave e unchanged.
func (e *StitchError) WithLocationFromTemplate(err error) *StitchError {
	if err == nil {
		return e
	}
	m := templateErr.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	line, _ := strconv.Atoi(m[2])
	col, _ := strconv.Atoi(m[3])
	return e.WithLocation(m[1], line, col)
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StitchError) WithSuggestion(s string) *StitchError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *StitchError) WithDetail(d string) *StitchError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *StitchError) Wrap(err error) *StitchError {
	e.Wrapped = err
	return e
}

// New creates a StitchError from a registered error code.
func New(code string) *StitchError {
	template, ok := registry[code]
	if !ok {
		return &StitchError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StitchError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   docURL(code),
	}
}

// Newf creates a StitchError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *StitchError {
	return &StitchError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err as a StitchError, wrapping it under code if it is
// not one already.
func FromError(err error, code string) *StitchError {
	if err == nil {
		return nil
	}
	var se *StitchError
	if stderrors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}
