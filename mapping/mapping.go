// Package mapping loads the export overrides stored in the graph. A _MapDef
// node names a label, relationship type or property key (_key) and a local
// name (_local); its _IN relationship points at the _MapNs node holding the
// target namespace (_ns) and, optionally, a prefix (_prefix).
package mapping

import (
	"context"
	"fmt"
	"sort"

	"github.com/geoknoesis/lpg-rdf/graph"
)

const (
	DefinitionLabel   = "_MapDef"
	NamespaceLabel    = "_MapNs"
	InRelationship    = "_IN"
	KeyProperty       = "_key"
	LocalProperty     = "_local"
	NamespaceProperty = "_ns"
	PrefixProperty    = "_prefix"
)

// Table maps element names to target identifiers. The zero value and a nil
// *Table are empty.
type Table struct {
	targets map[string]string
}

// New builds a table from explicit overrides.
func New(targets map[string]string) *Table {
	t := &Table{targets: make(map[string]string, len(targets))}
	for k, v := range targets {
		t.targets[k] = v
	}
	return t
}

// Load reads every _MapDef node. Definitions missing a key, a local name or a
// namespace are skipped.
func Load(ctx context.Context, s graph.Session) (*Table, error) {
	it, err := s.Match(ctx, graph.NewMatch().Labelled(DefinitionLabel))
	if err != nil {
		return nil, fmt.Errorf("mapping: load: %w", err)
	}
	defs, err := graph.CollectNodes(it)
	if err != nil {
		return nil, fmt.Errorf("mapping: load: %w", err)
	}
	t := &Table{targets: map[string]string{}}
	for _, def := range defs {
		key, okKey := stringProperty(def, KeyProperty)
		local, okLocal := stringProperty(def, LocalProperty)
		if !okKey || !okLocal {
			continue
		}
		links, err := s.Relationships(ctx, def.ID, graph.Outgoing, InRelationship)
		if err != nil {
			return nil, fmt.Errorf("mapping: load %q: %w", key, err)
		}
		for _, link := range links {
			if ns, ok := stringProperty(link.Node, NamespaceProperty); ok && link.Node.HasLabel(NamespaceLabel) {
				t.targets[key] = ns + local
				break
			}
		}
	}
	return t, nil
}

// Lookup returns the override for a label, relationship type or property key.
func (t *Table) Lookup(elem string) (string, bool) {
	if t == nil {
		return "", false
	}
	target, ok := t.targets[elem]
	return target, ok
}

// Resolve returns the identifier for elem: its override, or base+elem. With
// mappedOnly set, elements without an override are rejected.
func (t *Table) Resolve(base, elem string, mappedOnly bool) (string, bool) {
	if target, ok := t.Lookup(elem); ok {
		return target, true
	}
	if mappedOnly {
		return "", false
	}
	return base + elem, true
}

// Len returns the number of overrides.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.targets)
}

// Namespace is a prefix declared on a _MapNs node.
type Namespace struct {
	Prefix    string
	Namespace string
}

// Namespaces returns the _MapNs nodes that declare a prefix, ordered by
// prefix.
func Namespaces(ctx context.Context, s graph.Session) ([]Namespace, error) {
	it, err := s.Match(ctx, graph.NewMatch().Labelled(NamespaceLabel))
	if err != nil {
		return nil, fmt.Errorf("mapping: namespaces: %w", err)
	}
	nodes, err := graph.CollectNodes(it)
	if err != nil {
		return nil, fmt.Errorf("mapping: namespaces: %w", err)
	}
	var out []Namespace
	for _, n := range nodes {
		prefix, okPrefix := stringProperty(n, PrefixProperty)
		ns, okNS := stringProperty(n, NamespaceProperty)
		if okPrefix && okNS {
			out = append(out, Namespace{Prefix: prefix, Namespace: ns})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out, nil
}

func stringProperty(n graph.Node, key string) (string, bool) {
	v, ok := n.Property(key)
	if !ok || v.Kind() != graph.KindString {
		return "", false
	}
	return v.Str(), true
}
