package rdf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateIRI checks that iri is an absolute IRI: a scheme starting with a
// letter and no characters that must be percent-encoded.
func ValidateIRI(iri string) error {
	if iri == "" {
		return fmt.Errorf("empty IRI")
	}
	parsed, err := url.Parse(iri)
	if err != nil {
		return fmt.Errorf("invalid IRI syntax: %w", err)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("IRI has no scheme: %s", iri)
	}
	first := parsed.Scheme[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return fmt.Errorf("scheme must start with a letter: %s", iri)
	}
	for i, r := range iri {
		if r < 0x20 || r == ' ' {
			return fmt.Errorf("invalid character at position %d in IRI: %s", i, iri)
		}
		if r == '<' || r == '>' || r == '"' {
			return fmt.Errorf("invalid character '%c' at position %d in IRI (should be percent-encoded): %s", r, i, iri)
		}
	}
	return nil
}

// ResourceTerm turns a stored resource identifier into a subject/object term.
// Identifiers that parse as absolute IRIs become IRIs; anything else (no
// scheme separator, or unparseable) is a blank node with that id.
func ResourceTerm(id string) Term {
	if strings.IndexByte(id, ':') >= 0 && ValidateIRI(id) == nil {
		return IRI{Value: id}
	}
	return BlankNode{ID: strings.TrimPrefix(id, "_:")}
}

// LocalName returns the part of iri after the last '#', '/' or ':'.
func LocalName(iri string) string {
	idx := strings.LastIndexAny(iri, "#/:")
	if idx < 0 {
		return iri
	}
	return iri[idx+1:]
}
