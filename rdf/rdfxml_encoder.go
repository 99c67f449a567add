package rdf

import (
	"bufio"
	"fmt"
	"strings"
)

// rdfxmlEncoder writes one rdf:Description per statement.
type rdfxmlEncoder struct {
	rootPrefixes map[string]string
	nsToPref     map[string]string
	autoSeq      int
}

func newRDFXMLEncoder() *rdfxmlEncoder {
	return &rdfxmlEncoder{nsToPref: map[string]string{}}
}

func (e *rdfxmlEncoder) header(w *bufio.Writer, prefixes map[string]string) error {
	e.rootPrefixes = copyPrefixMap(prefixes)
	e.rootPrefixes["rdf"] = rdfXMLNS
	for prefix, ns := range e.rootPrefixes {
		e.nsToPref[ns] = prefix
	}
	if _, err := w.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n"); err != nil {
		return err
	}
	root := `<rdf:RDF xmlns:rdf="` + rdfXMLNS + `"`
	for _, prefix := range sortedPrefixKeys(e.rootPrefixes) {
		if prefix == "rdf" {
			continue
		}
		ns := e.rootPrefixes[prefix]
		if prefix == "" {
			root += ` xmlns="` + escapeXML(ns) + `"`
			continue
		}
		root += ` xmlns:` + prefix + `="` + escapeXML(ns) + `"`
	}
	_, err := w.WriteString(root + ">\n")
	return err
}

func (e *rdfxmlEncoder) statement(w *bufio.Writer, t Triple) error {
	subjectAttrs, err := rdfxmlSubjectAttrs(t.S)
	if err != nil {
		return err
	}
	predicate, predicateNS, err := e.predicateQName(t.P.Value)
	if err != nil {
		return err
	}
	var line string
	switch object := t.O.(type) {
	case IRI:
		line = fmt.Sprintf(`  <rdf:Description %s><%s%s rdf:resource="%s"/></rdf:Description>`,
			subjectAttrs, predicate, predicateNS, escapeXML(object.Value))
	case BlankNode:
		line = fmt.Sprintf(`  <rdf:Description %s><%s%s rdf:nodeID="%s"/></rdf:Description>`,
			subjectAttrs, predicate, predicateNS, escapeXML(object.ID))
	case Literal:
		literalAttrs := ""
		if object.Lang != "" {
			literalAttrs = ` xml:lang="` + escapeXML(object.Lang) + `"`
		} else if object.Datatype.Value != "" {
			literalAttrs = ` rdf:datatype="` + escapeXML(object.Datatype.Value) + `"`
		}
		line = fmt.Sprintf(`  <rdf:Description %s><%s%s%s>%s</%s></rdf:Description>`,
			subjectAttrs, predicate, predicateNS, literalAttrs, escapeXML(object.Lexical), predicate)
	default:
		return fmt.Errorf("%w: rdfxml: unsupported object type", ErrInvalidStatement)
	}
	_, err = w.WriteString(line + "\n")
	return err
}

func (e *rdfxmlEncoder) comment(w *bufio.Writer, text string) error {
	// "--" is not allowed inside XML comments.
	safe := strings.ReplaceAll(text, "--", "- -")
	if strings.HasSuffix(safe, "-") {
		safe += " "
	}
	_, err := w.WriteString("  <!-- " + safe + " -->\n")
	return err
}

func (e *rdfxmlEncoder) footer(w *bufio.Writer) error {
	_, err := w.WriteString("</rdf:RDF>\n")
	return err
}

var xmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&apos;",
)

func escapeXML(value string) string {
	return xmlEscaper.Replace(value)
}

func copyPrefixMap(prefixes map[string]string) map[string]string {
	out := make(map[string]string, len(prefixes))
	for key, value := range prefixes {
		out[key] = value
	}
	return out
}

func rdfxmlSubjectAttrs(term Term) (string, error) {
	switch value := term.(type) {
	case IRI:
		return `rdf:about="` + escapeXML(value.Value) + `"`, nil
	case BlankNode:
		return `rdf:nodeID="` + escapeXML(value.ID) + `"`, nil
	default:
		return "", fmt.Errorf("%w: rdfxml: unsupported subject type", ErrInvalidStatement)
	}
}

func (e *rdfxmlEncoder) predicateQName(iri string) (string, string, error) {
	ns, local, ok := splitIRIForQName(iri)
	if !ok {
		return "", "", fmt.Errorf("%w: rdfxml: unable to abbreviate predicate IRI %q", ErrInvalidStatement, iri)
	}
	if prefix, ok := e.nsToPref[ns]; ok {
		if prefix == "" {
			return local, "", nil
		}
		if _, declared := e.rootPrefixes[prefix]; declared {
			return prefix + ":" + local, "", nil
		}
		return prefix + ":" + local, ` xmlns:` + prefix + `="` + escapeXML(ns) + `"`, nil
	}
	prefix := fmt.Sprintf("ns%d", e.autoSeq)
	for e.rootPrefixes[prefix] != "" {
		e.autoSeq++
		prefix = fmt.Sprintf("ns%d", e.autoSeq)
	}
	e.autoSeq++
	e.nsToPref[ns] = prefix
	return prefix + ":" + local, ` xmlns:` + prefix + `="` + escapeXML(ns) + `"`, nil
}

// splitIRIForQName splits at the last '#', '/' or ':' so that the local part
// is a valid XML element name.
func splitIRIForQName(iri string) (string, string, bool) {
	idx := strings.LastIndexAny(iri, "#/:")
	if idx <= 0 || idx+1 >= len(iri) {
		return "", "", false
	}
	ns := iri[:idx+1]
	local := iri[idx+1:]
	if !isQNameLocal(local) || !isNameStartChar(local[0]) {
		return "", "", false
	}
	return ns, local, true
}
