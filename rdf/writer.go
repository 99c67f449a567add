package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Writer streams RDF statements to an output. A document is framed by Start
// and End; namespace declarations must precede Start.
type Writer interface {
	// Format reports the serialization produced by the writer.
	Format() Format
	// HandleNamespace declares a prefix for the document.
	HandleNamespace(prefix, namespace string) error
	// Start writes the document header.
	Start() error
	// Write serializes one statement.
	Write(Triple) error
	// Comment writes a diagnostic into the document in a format-appropriate way.
	Comment(text string) error
	// Flush pushes buffered output to the underlying io.Writer.
	Flush() error
	// End writes the document footer and flushes.
	End() error
}

// encoder is implemented by each format; writer handles framing state.
type encoder interface {
	header(w *bufio.Writer, prefixes map[string]string) error
	statement(w *bufio.Writer, t Triple) error
	comment(w *bufio.Writer, text string) error
	footer(w *bufio.Writer) error
}

type writerState uint8

const (
	stateNew writerState = iota
	stateStarted
	stateEnded
)

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	var enc encoder
	switch format {
	case FormatTurtle:
		enc = &turtleEncoder{}
	case FormatTriG:
		enc = &turtleEncoder{trig: true}
	case FormatNTriples:
		enc = ntEncoder{}
	case FormatRDFXML:
		enc = newRDFXMLEncoder()
	case FormatJSONLD:
		enc = newJSONLDEncoder()
	default:
		return nil, ErrUnsupportedFormat
	}
	return &streamWriter{
		out:      bufio.NewWriter(w),
		format:   format,
		enc:      enc,
		prefixes: map[string]string{},
	}, nil
}

type streamWriter struct {
	out      *bufio.Writer
	format   Format
	enc      encoder
	prefixes map[string]string
	state    writerState
	err      error
}

func (w *streamWriter) Format() Format { return w.format }

func (w *streamWriter) HandleNamespace(prefix, namespace string) error {
	if w.state != stateNew {
		return fmt.Errorf("%w: namespace %q declared after start", ErrWriterState, prefix)
	}
	w.prefixes[prefix] = namespace
	return nil
}

func (w *streamWriter) Start() error {
	if w.state != stateNew {
		return fmt.Errorf("%w: start called twice", ErrWriterState)
	}
	w.state = stateStarted
	return w.record(w.enc.header(w.out, w.prefixes))
}

func (w *streamWriter) Write(t Triple) error {
	if w.err != nil {
		return w.err
	}
	if w.state != stateStarted {
		return ErrWriterState
	}
	if err := t.validate(); err != nil {
		return err
	}
	return w.record(w.enc.statement(w.out, t))
}

func (w *streamWriter) Comment(text string) error {
	if w.err != nil {
		return w.err
	}
	if w.state != stateStarted {
		return ErrWriterState
	}
	return w.record(w.enc.comment(w.out, text))
}

func (w *streamWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.record(w.out.Flush())
}

// End closes the document. An End without a prior Start emits an empty but
// well-formed document.
func (w *streamWriter) End() error {
	switch w.state {
	case stateEnded:
		return fmt.Errorf("%w: end called twice", ErrWriterState)
	case stateNew:
		if err := w.Start(); err != nil {
			return err
		}
	}
	w.state = stateEnded
	if w.err != nil {
		return w.err
	}
	if err := w.record(w.enc.footer(w.out)); err != nil {
		return err
	}
	return w.record(w.out.Flush())
}

func (w *streamWriter) record(err error) error {
	if err != nil && w.err == nil {
		w.err = err
	}
	return err
}

// commentLines splits a diagnostic into single lines so that line-oriented
// formats stay parseable.
func commentLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
