// Package literal converts property values to RDF literals and back.
//
// Strings carry two optional suffixes: "lexical@lang" for language-tagged
// literals and "lexical§§prefix:local" for literals with a custom datatype.
package literal

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/namespace"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

// DatatypeSeparator splits a lexical form from its datatype token.
const DatatypeSeparator = "§§"

var (
	langTagged   = regexp.MustCompile(`(?s)^(.*)@([a-z,\-]+)$`)
	customTyped  = regexp.MustCompile(`(?s)^(.*)` + regexp.QuoteMeta(DatatypeSeparator) + `(.*)$`)
	prefixedType = regexp.MustCompile(`^\w+` + namespace.Separator + `.+$`)
)

// Codec encodes graph values as literals. With a namespace table, datatype
// tokens are resolved through it and an undefined prefix is an error. Without
// one, a token is used verbatim when it is an absolute IRI.
type Codec struct {
	ns *namespace.Table
}

// New returns a codec resolving datatype prefixes with ns, which may be nil.
func New(ns *namespace.Table) *Codec {
	return &Codec{ns: ns}
}

// Encode returns one literal per element of v, in order. Scalars yield a
// single literal.
func (c *Codec) Encode(v graph.Value) ([]rdf.Literal, error) {
	items := v.Items()
	out := make([]rdf.Literal, 0, len(items))
	for _, item := range items {
		lit, err := c.encodeScalar(item)
		if err != nil {
			return nil, err
		}
		out = append(out, lit)
	}
	return out, nil
}

func (c *Codec) encodeScalar(v graph.Value) (rdf.Literal, error) {
	switch v.Kind() {
	case graph.KindString:
		return c.EncodeString(v.Str())
	case graph.KindInteger:
		return rdf.NewTypedLiteral(v.String(), rdf.XSDInteger), nil
	case graph.KindFloat:
		return rdf.NewTypedLiteral(doubleLexical(v.Float()), rdf.XSDDouble), nil
	case graph.KindBoolean:
		return rdf.NewTypedLiteral(v.String(), rdf.XSDBoolean), nil
	case graph.KindDate:
		return rdf.NewTypedLiteral(v.String(), rdf.XSDDate), nil
	case graph.KindDateTime:
		return rdf.NewTypedLiteral(v.String(), rdf.XSDDateTime), nil
	case graph.KindOther:
		return rdf.NewLiteral(v.Str()), nil
	default:
		return rdf.Literal{}, fmt.Errorf("literal: cannot encode %s value", v.Kind())
	}
}

// doubleLexical spells the non-finite values the way xsd:double does.
func doubleLexical(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// EncodeString decodes the language and datatype suffixes of s. A suffix that
// does not form a usable datatype leaves s as a plain literal.
func (c *Codec) EncodeString(s string) (rdf.Literal, error) {
	if m := langTagged.FindStringSubmatch(s); m != nil {
		return rdf.NewLangLiteral(m[1], m[2]), nil
	}
	m := customTyped.FindStringSubmatch(s)
	if m == nil {
		return rdf.NewLiteral(s), nil
	}
	lexical, token := m[1], m[2]
	datatype, ok, err := c.datatype(token)
	if err != nil {
		return rdf.Literal{}, err
	}
	if !ok {
		return rdf.NewLiteral(s), nil
	}
	return rdf.NewTypedLiteral(lexical, rdf.IRI{Value: datatype}), nil
}

func (c *Codec) datatype(token string) (string, bool, error) {
	if !prefixedType.MatchString(token) {
		return "", false, nil
	}
	if c.ns == nil {
		return token, rdf.ValidateIRI(token) == nil, nil
	}
	iri, err := c.ns.BuildCustomDatatypeFromShortIRI(token)
	if err != nil {
		return "", false, err
	}
	return iri, rdf.ValidateIRI(iri) == nil, nil
}

// Decode converts a literal into the value ingestion stores. XSD numeric,
// boolean and temporal types become native values; language tags and other
// datatypes are folded into the string suffixes understood by EncodeString.
// A lexical form that does not parse as its datatype is kept as a string
// with the datatype suffix.
func (c *Codec) Decode(lit rdf.Literal) graph.Value {
	if lit.Lang != "" {
		return graph.String(lit.Lexical + "@" + strings.ToLower(lit.Lang))
	}
	switch lit.Datatype {
	case rdf.IRI{}, rdf.XSDString:
		return graph.String(lit.Lexical)
	case rdf.XSDInteger, rdf.XSDLong, rdf.XSDInt:
		if i, err := strconv.ParseInt(lit.Lexical, 10, 64); err == nil {
			return graph.Integer(i)
		}
	case rdf.XSDDouble, rdf.XSDFloat, rdf.XSDDecimal:
		if f, err := strconv.ParseFloat(lit.Lexical, 64); err == nil {
			return graph.Float(f)
		}
	case rdf.XSDBoolean:
		switch lit.Lexical {
		case "true", "1":
			return graph.Boolean(true)
		case "false", "0":
			return graph.Boolean(false)
		}
	case rdf.XSDDate:
		if t, err := time.Parse(graph.DateLayout, lit.Lexical); err == nil {
			return graph.Date(t)
		}
	case rdf.XSDDateTime:
		if t, err := time.Parse(graph.DateTimeLayout, lit.Lexical); err == nil {
			return graph.DateTime(t)
		}
	}
	return graph.String(lit.Lexical + DatatypeSeparator + c.shorten(lit.Datatype.Value))
}

func (c *Codec) shorten(iri string) string {
	if c.ns != nil {
		if short, ok := c.ns.Shorten(iri); ok {
			return short
		}
	}
	return iri
}
