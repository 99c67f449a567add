package rdf

import (
	"bufio"
	"sort"
	"strings"
)

// turtleEncoder writes one statement per line with prefixed names. With trig
// set, statements are wrapped in a default-graph block.
type turtleEncoder struct {
	prefixes map[string]string
	trig     bool
}

func (e *turtleEncoder) indent() string {
	if e.trig {
		return "  "
	}
	return ""
}

func (e *turtleEncoder) header(w *bufio.Writer, prefixes map[string]string) error {
	e.prefixes = prefixes
	for _, prefix := range sortedPrefixKeys(prefixes) {
		label := prefix + ":"
		if prefix == "" {
			label = ":"
		}
		if _, err := w.WriteString("@prefix " + label + " <" + prefixes[prefix] + "> .\n"); err != nil {
			return err
		}
	}
	if len(prefixes) > 0 {
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if e.trig {
		_, err := w.WriteString("{\n")
		return err
	}
	return nil
}

func (e *turtleEncoder) statement(w *bufio.Writer, t Triple) error {
	line := e.indent() + renderTermWithPrefixes(t.S, e.prefixes) + " " +
		renderIRIWithPrefixes(t.P, e.prefixes) + " " +
		renderTermWithPrefixes(t.O, e.prefixes) + " .\n"
	_, err := w.WriteString(line)
	return err
}

func (e *turtleEncoder) comment(w *bufio.Writer, text string) error {
	return writeHashComment(w, e.indent(), text)
}

func (e *turtleEncoder) footer(w *bufio.Writer) error {
	if e.trig {
		_, err := w.WriteString("}\n")
		return err
	}
	return nil
}

func sortedPrefixKeys(prefixes map[string]string) []string {
	keys := make([]string, 0, len(prefixes))
	for key := range prefixes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func renderIRIWithPrefixes(iri IRI, prefixes map[string]string) string {
	if iri == RDFType {
		return "a"
	}
	if qname, ok := abbreviateQName(iri.Value, prefixes, true); ok {
		return qname
	}
	return renderIRI(iri)
}

func renderTermWithPrefixes(term Term, prefixes map[string]string) string {
	switch value := term.(type) {
	case IRI:
		if qname, ok := abbreviateQName(value.Value, prefixes, true); ok {
			return qname
		}
		return renderIRI(value)
	case BlankNode:
		return value.String()
	case Literal:
		return renderLiteral(value, renderIRIWithPrefixes(value.Datatype, prefixes))
	default:
		return ""
	}
}

func abbreviateQName(iri string, prefixes map[string]string, allowEmptyPrefix bool) (string, bool) {
	if len(prefixes) == 0 {
		return "", false
	}
	bestNS := ""
	bestPrefix := ""
	found := false
	for prefix, ns := range prefixes {
		if prefix == "" && !allowEmptyPrefix {
			continue
		}
		if ns == "" || !strings.HasPrefix(iri, ns) {
			continue
		}
		local := iri[len(ns):]
		if !isQNameLocal(local) {
			continue
		}
		if len(ns) > len(bestNS) || (len(ns) == len(bestNS) && prefix < bestPrefix) {
			bestNS = ns
			bestPrefix = prefix
			found = true
		}
	}
	if !found {
		return "", false
	}
	local := iri[len(bestNS):]
	if bestPrefix == "" {
		return ":" + local, true
	}
	return bestPrefix + ":" + local, true
}
