package gen

import (
	"errors"
	"fmt"
	"go/token"
)

var (
	ErrNoPackage = errors.New("no Go files in package directory")
	ErrDuplicate = errors.New("duplicate generated name")
)

// Error is a generation failure tied to a source or config position.
//
// Format: file:line:column: message, followed by the suggestion when set.
type Error struct {
	File       string
	Line       int
	Column     int
	Message    string
	Suggestion string
}

func (e *Error) Error() string {
	result := fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	if e.Suggestion != "" {
		result += fmt.Sprintf("\n\nSuggestion: %s", e.Suggestion)
	}
	return result
}

func errorAt(pos position, suggestion, format string, args ...any) *Error {
	return &Error{
		File:       pos.file,
		Line:       pos.line,
		Column:     pos.column,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	}
}

func positionOf(fset *token.FileSet, p token.Pos) position {
	pp := fset.Position(p)
	return position{file: pp.Filename, line: pp.Line, column: pp.Column}
}
