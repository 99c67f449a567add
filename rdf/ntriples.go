package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NTriplesDecoder reads N-Triples line by line.
type NTriplesDecoder struct {
	reader *bufio.Reader
	line   int
	err    error
}

// NewNTriplesDecoder creates a pull-style N-Triples decoder.
func NewNTriplesDecoder(r io.Reader) *NTriplesDecoder {
	return &NTriplesDecoder{reader: bufio.NewReader(r)}
}

// Next returns the next triple, or io.EOF when the input is exhausted.
func (d *NTriplesDecoder) Next() (Triple, error) {
	if d.err != nil {
		return Triple{}, d.err
	}
	for {
		line, err := d.readLine()
		if err != nil {
			d.err = err
			return Triple{}, err
		}
		d.line++
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		triple, err := parseNTLine(line)
		if err != nil {
			d.err = &ParseError{Format: string(FormatNTriples), Statement: line, Line: d.line, Err: err}
			return Triple{}, d.err
		}
		return triple, nil
	}
}

func (d *NTriplesDecoder) readLine() (string, error) {
	line, err := d.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

func parseNTLine(line string) (Triple, error) {
	cursor := &ntCursor{input: line}
	subject, err := cursor.parseTerm(false)
	if err != nil {
		return Triple{}, err
	}
	predicate, err := cursor.parseIRI()
	if err != nil {
		return Triple{}, err
	}
	object, err := cursor.parseTerm(true)
	if err != nil {
		return Triple{}, err
	}
	if !cursor.consume('.') {
		return Triple{}, cursor.errorf("expected '.' at end of statement")
	}
	cursor.skipWS()
	if cursor.pos < len(cursor.input) && cursor.input[cursor.pos] != '#' {
		return Triple{}, cursor.errorf("unexpected content after '.'")
	}
	return Triple{S: subject, P: predicate, O: object}, nil
}

type ntCursor struct {
	input string
	pos   int
}

func (c *ntCursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *ntCursor) consume(ch byte) bool {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == ch {
		c.pos++
		return true
	}
	return false
}

func (c *ntCursor) parseTerm(allowLiteral bool) (Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) {
		return nil, c.errorf("unexpected end of line")
	}
	switch {
	case c.input[c.pos] == '<':
		return c.parseIRI()
	case strings.HasPrefix(c.input[c.pos:], "_:"):
		return c.parseBlankNode()
	case c.input[c.pos] == '"':
		if !allowLiteral {
			return nil, c.errorf("literal not allowed here")
		}
		return c.parseLiteral()
	default:
		return nil, c.errorf("unexpected token")
	}
}

func (c *ntCursor) parseIRI() (IRI, error) {
	c.skipWS()
	if !c.consume('<') {
		return IRI{}, c.errorf("expected IRI")
	}
	start := c.pos
	for c.pos < len(c.input) && c.input[c.pos] != '>' {
		c.pos++
	}
	if c.pos >= len(c.input) {
		return IRI{}, c.errorf("unterminated IRI")
	}
	value := c.input[start:c.pos]
	c.pos++
	return IRI{Value: value}, nil
}

func (c *ntCursor) parseBlankNode() (BlankNode, error) {
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) {
		c.pos++
	}
	if start == c.pos {
		return BlankNode{}, c.errorf("blank node id missing")
	}
	return BlankNode{ID: c.input[start:c.pos]}, nil
}

func (c *ntCursor) parseLiteral() (Literal, error) {
	c.pos++ // opening quote
	var builder strings.Builder
	closed := false
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		if ch == '"' {
			c.pos++
			closed = true
			break
		}
		if ch != '\\' {
			builder.WriteByte(ch)
			c.pos++
			continue
		}
		if c.pos+1 >= len(c.input) {
			return Literal{}, c.errorf("unterminated escape")
		}
		next := c.input[c.pos+1]
		switch next {
		case 'n':
			builder.WriteByte('\n')
		case 't':
			builder.WriteByte('\t')
		case 'r':
			builder.WriteByte('\r')
		case 'b':
			builder.WriteByte('\b')
		case 'f':
			builder.WriteByte('\f')
		case 'u', 'U':
			width := 4
			if next == 'U' {
				width = 8
			}
			if c.pos+2+width > len(c.input) {
				return Literal{}, c.errorf("truncated unicode escape")
			}
			code, err := strconv.ParseUint(c.input[c.pos+2:c.pos+2+width], 16, 32)
			if err != nil {
				return Literal{}, c.errorf("invalid unicode escape")
			}
			builder.WriteRune(rune(code))
			c.pos += 2 + width
			continue
		default:
			builder.WriteByte(next)
		}
		c.pos += 2
	}
	if !closed {
		return Literal{}, c.errorf("unterminated literal")
	}
	lexical := builder.String()
	if strings.HasPrefix(c.input[c.pos:], "@") {
		c.pos++
		start := c.pos
		for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) {
			c.pos++
		}
		return NewLangLiteral(lexical, c.input[start:c.pos]), nil
	}
	if strings.HasPrefix(c.input[c.pos:], "^^") {
		c.pos += 2
		dt, err := c.parseIRI()
		if err != nil {
			return Literal{}, err
		}
		return NewTypedLiteral(lexical, dt), nil
	}
	return NewLiteral(lexical), nil
}

func (c *ntCursor) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("ntriples: "+format, args...)
}

func isTermDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '.':
		return true
	default:
		return false
	}
}

// ntEncoder writes one statement per line.
type ntEncoder struct{}

func (ntEncoder) header(*bufio.Writer, map[string]string) error { return nil }

func (ntEncoder) statement(w *bufio.Writer, t Triple) error {
	_, err := w.WriteString(t.String() + " .\n")
	return err
}

func (ntEncoder) comment(w *bufio.Writer, text string) error {
	return writeHashComment(w, "", text)
}

func (ntEncoder) footer(*bufio.Writer) error { return nil }

func writeHashComment(w *bufio.Writer, indent, text string) error {
	for _, line := range commentLines(text) {
		if _, err := w.WriteString(indent + "# " + line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func renderIRI(iri IRI) string {
	return "<" + iri.Value + ">"
}

func renderTerm(term Term) string {
	switch value := term.(type) {
	case IRI:
		return renderIRI(value)
	case BlankNode:
		return value.String()
	case Literal:
		return renderLiteral(value, renderIRI(value.Datatype))
	default:
		return ""
	}
}

func renderLiteral(lit Literal, datatype string) string {
	quoted := `"` + escapeLiteral(lit.Lexical) + `"`
	if lit.Lang != "" {
		return quoted + "@" + lit.Lang
	}
	if lit.Datatype.Value != "" {
		return quoted + "^^" + datatype
	}
	return quoted
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(value string) string {
	return literalEscaper.Replace(value)
}
