package literal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/namespace"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

func xsdTable(t *testing.T) *namespace.Table {
	t.Helper()
	tbl := namespace.NewTable()
	require.NoError(t, tbl.Add("xsd", rdf.XSDNamespace))
	require.NoError(t, tbl.Add("ex", "http://ex.org/types#"))
	return tbl
}

func TestEncodeStringSuffixes(t *testing.T) {
	c := New(xsdTable(t))

	lit, err := c.EncodeString("foo@en")
	require.NoError(t, err)
	assert.Equal(t, rdf.NewLangLiteral("foo", "en"), lit)

	lit, err = c.EncodeString("foo§§xsd:customType")
	require.NoError(t, err)
	assert.Equal(t, "foo", lit.Lexical)
	assert.Equal(t, rdf.XSDNamespace+"customType", lit.Datatype.Value)
	assert.Empty(t, lit.Lang)

	lit, err = c.EncodeString("bar§§http://ex.org/dt")
	require.NoError(t, err)
	assert.Equal(t, rdf.NewTypedLiteral("bar", rdf.IRI{Value: "http://ex.org/dt"}), lit)

	lit, err = c.EncodeString("plain text")
	require.NoError(t, err)
	assert.Equal(t, rdf.NewLiteral("plain text"), lit)
}

func TestEncodeStringMissingPrefixIsFatal(t *testing.T) {
	c := New(xsdTable(t))
	_, err := c.EncodeString("foo§§ex2:thing")
	assert.ErrorIs(t, err, namespace.ErrMissingPrefix)
}

func TestEncodeStringMalformedSuffixPassesThrough(t *testing.T) {
	c := New(xsdTable(t))
	for _, s := range []string{"foo§§", "foo§§bare", "foo@EN", "a@b c"} {
		lit, err := c.EncodeString(s)
		require.NoError(t, err, s)
		assert.Equal(t, rdf.NewLiteral(s), lit, s)
	}
}

func TestEncodeWithoutTableUsesAbsoluteTokens(t *testing.T) {
	c := New(nil)
	lit, err := c.EncodeString("foo§§xsd:customType")
	require.NoError(t, err)
	assert.Equal(t, "xsd:customType", lit.Datatype.Value)

	lit, err = c.EncodeString("x@fr,be")
	require.NoError(t, err)
	assert.Equal(t, "fr,be", lit.Lang)
}

func TestEncodeScalars(t *testing.T) {
	c := New(nil)
	day := time.Date(2021, 5, 9, 0, 0, 0, 0, time.UTC)
	moment := time.Date(2021, 5, 9, 8, 7, 6, 0, time.UTC)
	tests := []struct {
		in   graph.Value
		want rdf.Literal
	}{
		{graph.Integer(30), rdf.NewTypedLiteral("30", rdf.XSDInteger)},
		{graph.Float(2.5), rdf.NewTypedLiteral("2.5", rdf.XSDDouble)},
		{graph.Boolean(true), rdf.NewTypedLiteral("true", rdf.XSDBoolean)},
		{graph.Date(day), rdf.NewTypedLiteral("2021-05-09", rdf.XSDDate)},
		{graph.DateTime(moment), rdf.NewTypedLiteral("2021-05-09T08:07:06", rdf.XSDDateTime)},
		{graph.Other("[1 2]"), rdf.NewLiteral("[1 2]")},
	}
	for _, tt := range tests {
		got, err := c.Encode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, []rdf.Literal{tt.want}, got)
	}
}

func TestEncodeNonFiniteDoubles(t *testing.T) {
	c := New(nil)
	for _, tt := range []struct {
		in   float64
		want string
	}{
		{math.Inf(1), "INF"},
		{math.Inf(-1), "-INF"},
		{math.NaN(), "NaN"},
		{1e21, "1e+21"},
	} {
		got, err := c.Encode(graph.Float(tt.in))
		require.NoError(t, err)
		assert.Equal(t, []rdf.Literal{rdf.NewTypedLiteral(tt.want, rdf.XSDDouble)}, got)
	}

	back := c.Decode(rdf.NewTypedLiteral("-INF", rdf.XSDDouble))
	assert.Equal(t, graph.KindFloat, back.Kind())
	assert.True(t, math.IsInf(back.Float(), -1))
}

func TestEncodeListKeepsOrder(t *testing.T) {
	c := New(xsdTable(t))
	got, err := c.Encode(graph.List(graph.String("a@en"), graph.String("b§§xsd:token"), graph.String("c")))
	require.NoError(t, err)
	assert.Equal(t, []rdf.Literal{
		rdf.NewLangLiteral("a", "en"),
		rdf.NewTypedLiteral("b", rdf.IRI{Value: rdf.XSDNamespace + "token"}),
		rdf.NewLiteral("c"),
	}, got)

	got, err = c.Encode(graph.List(graph.Integer(3), graph.Integer(1)))
	require.NoError(t, err)
	assert.Equal(t, "3", got[0].Lexical)
	assert.Equal(t, "1", got[1].Lexical)
}

func TestDecode(t *testing.T) {
	c := New(xsdTable(t))
	tests := []struct {
		in   rdf.Literal
		want graph.Value
	}{
		{rdf.NewLiteral("Ann"), graph.String("Ann")},
		{rdf.NewTypedLiteral("Ann", rdf.XSDString), graph.String("Ann")},
		{rdf.NewLangLiteral("Ann", "EN"), graph.String("Ann@en")},
		{rdf.NewTypedLiteral("30", rdf.XSDInteger), graph.Integer(30)},
		{rdf.NewTypedLiteral("2.5", rdf.XSDDouble), graph.Float(2.5)},
		{rdf.NewTypedLiteral("1", rdf.XSDBoolean), graph.Boolean(true)},
		{rdf.NewTypedLiteral("2021-05-09", rdf.XSDDate), graph.Date(time.Date(2021, 5, 9, 0, 0, 0, 0, time.UTC))},
		{rdf.NewTypedLiteral("abc", rdf.XSDInteger), graph.String("abc§§xsd:integer")},
		{rdf.NewTypedLiteral("v", rdf.IRI{Value: "http://ex.org/types#code"}), graph.String("v§§ex:code")},
		{rdf.NewTypedLiteral("v", rdf.IRI{Value: "http://other.org/code"}), graph.String("v§§http://other.org/code")},
	}
	for _, tt := range tests {
		got := c.Decode(tt.in)
		assert.True(t, tt.want.Equal(got), "%v: got %v", tt.in, got)
	}
}

func TestDecodeThenEncodeIsIdentity(t *testing.T) {
	c := New(xsdTable(t))
	lits := []rdf.Literal{
		rdf.NewLiteral("multi\nline"),
		rdf.NewLangLiteral("bonjour", "fr"),
		rdf.NewTypedLiteral("42", rdf.XSDInteger),
		rdf.NewTypedLiteral("2021-05-09T08:07:06.5", rdf.XSDDateTime),
		rdf.NewTypedLiteral("v", rdf.IRI{Value: "http://ex.org/types#code"}),
		rdf.NewTypedLiteral("w", rdf.IRI{Value: "http://other.org/code"}),
	}
	for _, lit := range lits {
		got, err := c.Encode(c.Decode(lit))
		require.NoError(t, err)
		assert.Equal(t, []rdf.Literal{lit}, got)
	}
}
