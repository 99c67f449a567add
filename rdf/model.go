package rdf

import "fmt"

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
)

// Term is a value that can appear in RDF statements.
type Term interface {
	Kind() TermKind
	String() string
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// BlankNode represents an RDF blank node.
type BlankNode struct {
	// ID is the blank node identifier.
	ID string
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the blank node identifier prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal represents an RDF literal. At most one of Datatype and Lang is set.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// NewLiteral returns a plain literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical}
}

// NewLangLiteral returns a language-tagged literal.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: lang}
}

// NewTypedLiteral returns a literal with the given datatype.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	return Literal{Lexical: lexical, Datatype: datatype}
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// IsPlain reports whether the literal has neither a language tag nor a datatype.
func (l Literal) IsPlain() bool {
	return l.Lang == "" && l.Datatype.Value == ""
}

// String returns a string representation of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype.Value != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype.Value)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

// Triple is an RDF statement. Triples built from IRI, BlankNode and Literal
// terms are comparable and can be used as map keys.
type Triple struct {
	// S is the subject.
	S Term
	// P is the predicate.
	P IRI
	// O is the object.
	O Term
}

// NewTriple builds a triple.
func NewTriple(s Term, p IRI, o Term) Triple {
	return Triple{S: s, P: p, O: o}
}

// String returns an N-Triples style rendering of the triple without the final dot.
func (t Triple) String() string {
	return renderTerm(t.S) + " " + renderIRI(t.P) + " " + renderTerm(t.O)
}

// validate checks the structural constraints every writer relies on.
func (t Triple) validate() error {
	if t.S == nil || t.P.Value == "" || t.O == nil {
		return fmt.Errorf("%w: missing statement fields", ErrInvalidStatement)
	}
	if t.S.Kind() == TermLiteral {
		return fmt.Errorf("%w: literal subject", ErrInvalidStatement)
	}
	if lit, ok := t.O.(Literal); ok && lit.Lang != "" && lit.Datatype.Value != "" {
		return fmt.Errorf("%w: literal cannot have both language and datatype", ErrInvalidStatement)
	}
	return nil
}
