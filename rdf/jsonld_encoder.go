package rdf

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/piprate/json-gold/ld"
)

const rdfLangString = RDFNamespace + "langString"

// jsonldEncoder collects statements into a json-gold dataset and writes the
// compacted document at End. JSON-LD is a document-level format, so this is
// the only encoder that buffers.
type jsonldEncoder struct {
	dataset  *ld.RDFDataset
	prefixes map[string]string
	comments int
}

func newJSONLDEncoder() *jsonldEncoder {
	return &jsonldEncoder{dataset: ld.NewRDFDataset()}
}

func (e *jsonldEncoder) header(_ *bufio.Writer, prefixes map[string]string) error {
	e.prefixes = copyPrefixMap(prefixes)
	return nil
}

func (e *jsonldEncoder) statement(_ *bufio.Writer, t Triple) error {
	subject, err := jsonldNode(t.S)
	if err != nil {
		return err
	}
	object, err := jsonldNode(t.O)
	if err != nil {
		return err
	}
	e.add(ld.NewQuad(subject, ld.NewIRI(t.P.Value), object, "@default"))
	return nil
}

// comment records the diagnostic as an rdfs:comment on a dedicated blank node
// so that the document stays valid JSON-LD.
func (e *jsonldEncoder) comment(_ *bufio.Writer, text string) error {
	e.comments++
	subject := ld.NewBlankNode(fmt.Sprintf("_:diagnostic%d", e.comments))
	object := ld.NewLiteral(text, XSDString.Value, "")
	e.add(ld.NewQuad(subject, ld.NewIRI(RDFSComment.Value), object, "@default"))
	return nil
}

func (e *jsonldEncoder) footer(w *bufio.Writer) error {
	opts := ld.NewJsonLdOptions("")
	// JsonLdProcessor.FromRDF only parses serialized input.
	expanded, err := ld.NewJsonLdApi().FromRDF(e.dataset, opts)
	if err != nil {
		return fmt.Errorf("jsonld: %w", err)
	}
	proc := ld.NewJsonLdProcessor()
	context := make(map[string]interface{}, len(e.prefixes))
	for prefix, ns := range e.prefixes {
		if prefix == "" {
			context["@vocab"] = ns
			continue
		}
		context[prefix] = ns
	}
	compacted, err := proc.Compact(expanded, map[string]interface{}{"@context": context}, opts)
	if err != nil {
		return fmt.Errorf("jsonld: %w", err)
	}
	out, err := json.MarshalIndent(compacted, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonld: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func (e *jsonldEncoder) add(q *ld.Quad) {
	e.dataset.Graphs["@default"] = append(e.dataset.Graphs["@default"], q)
}

func jsonldNode(term Term) (ld.Node, error) {
	switch value := term.(type) {
	case IRI:
		return ld.NewIRI(value.Value), nil
	case BlankNode:
		return ld.NewBlankNode("_:" + value.ID), nil
	case Literal:
		switch {
		case value.Lang != "":
			return ld.NewLiteral(value.Lexical, rdfLangString, value.Lang), nil
		case value.Datatype.Value != "":
			return ld.NewLiteral(value.Lexical, value.Datatype.Value, ""), nil
		default:
			return ld.NewLiteral(value.Lexical, XSDString.Value, ""), nil
		}
	default:
		return nil, fmt.Errorf("%w: jsonld: unsupported term", ErrInvalidStatement)
	}
}
