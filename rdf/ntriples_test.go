package rdf

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, input string) []Triple {
	t.Helper()
	dec := NewNTriplesDecoder(strings.NewReader(input))
	var out []Triple
	for {
		tr, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, tr)
	}
}

func TestNTriplesDecodeTerms(t *testing.T) {
	input := "# comment\n" +
		"<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n" +
		"\n" +
		"_:b1 <http://example.org/p> \"v\"@en-gb .\n" +
		"<http://example.org/s> <http://example.org/p> \"1\"^^<http://www.w3.org/2001/XMLSchema#integer> .\n" +
		"<http://example.org/s> <http://example.org/p> \"tab\\there \\u00e9 \\\"q\\\"\" ."
	triples := decodeAll(t, input)
	require.Len(t, triples, 4)

	assert.Equal(t, IRI{Value: "http://example.org/o"}, triples[0].O)
	assert.Equal(t, BlankNode{ID: "b1"}, triples[1].S)
	assert.Equal(t, NewLangLiteral("v", "en-gb"), triples[1].O)
	assert.Equal(t, NewTypedLiteral("1", XSDInteger), triples[2].O)
	assert.Equal(t, NewLiteral("tab\there é \"q\""), triples[3].O)
}

func TestNTriplesDecodeErrors(t *testing.T) {
	tests := map[string]string{
		"missing object":  "<http://example.org/s> <http://example.org/p> .\n",
		"missing dot":     "<http://example.org/s> <http://example.org/p> <http://example.org/o>\n",
		"graph term":      "<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .\n",
		"literal subject": "\"s\" <http://example.org/p> <http://example.org/o> .\n",
		"unterminated":    "<http://example.org/s> <http://example.org/p> \"open .\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			dec := NewNTriplesDecoder(strings.NewReader(input))
			_, err := dec.Next()
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, 1, perr.Line)
			assert.Equal(t, ErrCodeParseError, Code(err))
		})
	}
}

func TestNTriplesWriteThenDecode(t *testing.T) {
	triples := []Triple{
		NewTriple(exS, exName, NewLiteral("line\nbreak \\ \"quote\"")),
		NewTriple(exS, exP, NewTypedLiteral("2024-01-02", XSDDate)),
		NewTriple(BlankNode{ID: "genid1"}, exP, exS),
	}
	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatNTriples)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	for _, tr := range triples {
		require.NoError(t, w.Write(tr))
	}
	require.NoError(t, w.End())

	assert.Equal(t, triples, decodeAll(t, buf.String()))
}
