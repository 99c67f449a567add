package rdf

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeUnsupportedFormat indicates an unsupported format.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeInvalidStatement indicates a statement that cannot be serialized.
	ErrCodeInvalidStatement ErrorCode = "INVALID_STATEMENT"
	// ErrCodeWriterState indicates a writer used outside its Start/End window.
	ErrCodeWriterState ErrorCode = "WRITER_STATE"
	// ErrCodeParseError indicates a general parse error.
	ErrCodeParseError ErrorCode = "PARSE_ERROR"
	// ErrCodeIOError indicates an I/O error.
	ErrCodeIOError ErrorCode = "IO_ERROR"
)

var (
	// ErrUnsupportedFormat indicates an unsupported format.
	ErrUnsupportedFormat = errors.New("unsupported RDF format")
	// ErrInvalidStatement indicates a statement that violates RDF term constraints.
	ErrInvalidStatement = errors.New("rdf: invalid statement")
	// ErrWriterState indicates Write/Comment before Start or after End.
	ErrWriterState = errors.New("rdf: writer not started or already ended")
)

// Code returns the error code for an error, or ErrCodeIOError if unknown.
// Returns empty string for nil errors or io.EOF (which is not an error condition).
func Code(err error) ErrorCode {
	if err == nil || err == io.EOF {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeUnsupportedFormat
	case errors.Is(err, ErrInvalidStatement):
		return ErrCodeInvalidStatement
	case errors.Is(err, ErrWriterState):
		return ErrCodeWriterState
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return ErrCodeParseError
	}
	return ErrCodeIOError
}

// ParseError provides structured context for parse failures.
type ParseError struct {
	Format    string // Format name (e.g., "ntriples")
	Statement string // Offending statement or input excerpt
	Line      int    // 1-based line number (0 if unknown)
	Err       error  // Underlying error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Format)
	if e.Line > 0 {
		fmt.Fprintf(&msg, ":%d", e.Line)
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	if e.Statement != "" {
		const maxExcerptLen = 80
		excerpt := e.Statement
		if len(excerpt) > maxExcerptLen {
			excerpt = excerpt[:maxExcerptLen] + "..."
		}
		msg.WriteString("\n  ")
		msg.WriteString(excerpt)
	}
	return msg.String()
}

func (e *ParseError) Unwrap() error { return e.Err }
