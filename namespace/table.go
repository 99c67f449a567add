// Package namespace resolves prefixed names against the namespace table
// stored in the graph.
package namespace

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/geoknoesis/lpg-rdf/graph"
)

// DefinitionLabel marks the node whose properties map namespace IRIs to
// prefixes.
const DefinitionLabel = "NamespacePrefixDefinition"

// Separator splits a prefix from a local name.
const Separator = ":"

var prefixedName = regexp.MustCompile(`^(\w+)` + Separator + `(.*)$`)

// schemes are returned unchanged by BuildURI when no prefix of the same name
// is defined.
var schemes = map[string]bool{
	"http": true, "https": true, "urn": true, "mailto": true,
	"file": true, "ftp": true, "tag": true, "neo4j": true,
}

// Table is a bidirectional prefix/namespace mapping.
type Table struct {
	byNamespace map[string]string
	byPrefix    map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byNamespace: map[string]string{}, byPrefix: map[string]string{}}
}

// Load reads the namespace table from every NamespacePrefixDefinition node.
// A store without definitions yields an empty table.
func Load(ctx context.Context, s graph.Session) (*Table, error) {
	it, err := s.Match(ctx, graph.NewMatch().Labelled(DefinitionLabel))
	if err != nil {
		return nil, fmt.Errorf("namespace: load: %w", err)
	}
	nodes, err := graph.CollectNodes(it)
	if err != nil {
		return nil, fmt.Errorf("namespace: load: %w", err)
	}
	return FromNodes(nodes)
}

// FromNodes builds a table from definition nodes, whose properties map a
// namespace to its prefix.
func FromNodes(nodes []graph.Node) (*Table, error) {
	t := NewTable()
	for _, n := range nodes {
		for _, ns := range n.Keys() {
			v := n.Properties[ns]
			if v.Kind() != graph.KindString {
				return nil, fmt.Errorf("namespace: prefix for %q is a %s, not a string", ns, v.Kind())
			}
			if err := t.Add(v.Str(), ns); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// Add registers prefix for namespace. Re-adding an identical pair is a no-op.
func (t *Table) Add(prefix, namespace string) error {
	if existing, ok := t.byPrefix[prefix]; ok && existing != namespace {
		return fmt.Errorf("%w: %q is bound to %q and %q", ErrAmbiguousPrefix, prefix, existing, namespace)
	}
	if existing, ok := t.byNamespace[namespace]; ok && existing != prefix {
		return fmt.Errorf("%w: %q has prefixes %q and %q", ErrAmbiguousPrefix, namespace, existing, prefix)
	}
	t.byPrefix[prefix] = namespace
	t.byNamespace[namespace] = prefix
	return nil
}

// Namespace returns the namespace bound to prefix.
func (t *Table) Namespace(prefix string) (string, bool) {
	ns, ok := t.byPrefix[prefix]
	return ns, ok
}

// Prefix returns the prefix bound to namespace.
func (t *Table) Prefix(namespace string) (string, bool) {
	p, ok := t.byNamespace[namespace]
	return p, ok
}

// Len returns the number of bindings.
func (t *Table) Len() int { return len(t.byPrefix) }

// Prefixes returns a copy of the bindings keyed by prefix.
func (t *Table) Prefixes() map[string]string {
	out := make(map[string]string, len(t.byPrefix))
	for p, ns := range t.byPrefix {
		out[p] = ns
	}
	return out
}

// SortedPrefixes returns the bound prefixes in lexical order.
func (t *Table) SortedPrefixes() []string {
	out := make([]string, 0, len(t.byPrefix))
	for p := range t.byPrefix {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// BuildURI turns name into an absolute identifier. A prefixed name is
// expanded with the table; a name whose prefix is unknown but is a URI scheme
// is already absolute; any other prefixed name is a MissingPrefixError. Names
// without a prefix are appended to base.
func (t *Table) BuildURI(base, name string) (string, error) {
	m := prefixedName.FindStringSubmatch(name)
	if m == nil {
		return base + name, nil
	}
	prefix, local := m[1], m[2]
	if ns, ok := t.byPrefix[prefix]; ok {
		return ns + local, nil
	}
	if isScheme(prefix, local) {
		return name, nil
	}
	return "", &MissingPrefixError{Prefix: prefix, Name: name}
}

// BuildCustomDatatypeFromShortIRI resolves the datatype token of an encoded
// literal. The token must be a prefixed name or an absolute IRI.
func (t *Table) BuildCustomDatatypeFromShortIRI(token string) (string, error) {
	m := prefixedName.FindStringSubmatch(token)
	if m == nil {
		return "", &MissingPrefixError{Name: token}
	}
	return t.BuildURI("", token)
}

// Shorten splits iri at its last '#' or '/' and returns prefix:local when the
// namespace part is bound.
func (t *Table) Shorten(iri string) (string, bool) {
	ns, local := Split(iri)
	if ns == "" {
		return "", false
	}
	prefix, ok := t.byNamespace[ns]
	if !ok {
		return "", false
	}
	return prefix + Separator + local, true
}

// Split divides iri after its last '#' or '/'. When neither occurs, the
// namespace is empty.
func Split(iri string) (namespace, local string) {
	idx := strings.LastIndexAny(iri, "#/")
	if idx < 0 {
		return "", iri
	}
	return iri[:idx+1], iri[idx+1:]
}

func isScheme(prefix, rest string) bool {
	return schemes[strings.ToLower(prefix)] || strings.HasPrefix(rest, "//")
}
