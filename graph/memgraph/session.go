package memgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/geoknoesis/lpg-rdf/graph"
)

type session struct {
	store  *Store
	snap   *snapshot
	closed bool
}

var _ graph.Session = (*session)(nil)

func (s *session) check(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("memgraph: session closed")
	}
	return ctx.Err()
}

func (s *session) Execute(ctx context.Context, q graph.Query) (graph.Rows, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	h, ok := s.store.handlers.Load(q.Text)
	if !ok {
		return nil, fmt.Errorf("memgraph: no handler registered for query %q", q.Text)
	}
	return h.(Handler)(ctx, s, q.Params)
}

func (s *session) Node(ctx context.Context, id int64) (graph.Node, error) {
	if err := s.check(ctx); err != nil {
		return graph.Node{}, err
	}
	return s.snap.node(id)
}

func (s *session) FindNodes(ctx context.Context, label, key string, value graph.Value) ([]graph.Node, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.snap.findNodes(label, key, value), nil
}

func (s *snapshot) findNodes(label, key string, value graph.Value) []graph.Node {
	var out []graph.Node
	for _, id := range s.sortedNodeIDs() {
		n := s.nodes[id]
		if label != "" && !n.HasLabel(label) {
			continue
		}
		if v, ok := n.Properties[key]; ok && v.Equal(value) {
			out = append(out, cloneNode(n))
		}
	}
	return out
}

func (s *session) Relationships(ctx context.Context, nodeID int64, dir graph.Direction, types ...string) ([]graph.Neighbour, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if _, ok := s.snap.nodes[nodeID]; !ok {
		return nil, graph.NotFound("node %d", nodeID)
	}
	ids := append([]int64(nil), s.snap.adj[nodeID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []graph.Neighbour
	for _, id := range ids {
		rel := s.snap.rels[id]
		if !dir.Matches(rel, nodeID) {
			continue
		}
		if len(types) > 0 && !contains(types, rel.Type) {
			continue
		}
		out = append(out, graph.Neighbour{Relationship: rel, Node: cloneNode(s.snap.nodes[rel.Other(nodeID)])})
	}
	return out, nil
}

func (s *session) Match(ctx context.Context, m *graph.Match) (graph.NodeIterator, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var out []graph.Node
	if !m.Empty() {
		for _, id := range s.snap.sortedNodeIDs() {
			n := s.snap.nodes[id]
			for _, b := range m.Branches() {
				if s.snap.matches(n, b) {
					out = append(out, cloneNode(n))
					break
				}
			}
		}
	}
	return graph.SliceNodes(out, nil), nil
}

func (s *snapshot) matches(n graph.Node, b graph.Branch) bool {
	if !b.Linked() {
		return n.HasLabel(b.Label)
	}
	for _, id := range s.adj[n.ID] {
		rel := s.rels[id]
		if rel.StartID == n.ID && rel.Type == b.RelType && rel.EndID == b.TargetID {
			return true
		}
	}
	return false
}

// Schema lists every label, and every relationship type once per observed
// (start label, end label) combination.
func (s *session) Schema(ctx context.Context) (graph.Schema, error) {
	if err := s.check(ctx); err != nil {
		return graph.Schema{}, err
	}
	var schema graph.Schema
	seenLabels := map[string]bool{}
	for _, id := range s.snap.sortedNodeIDs() {
		for _, l := range s.snap.nodes[id].Labels {
			if !seenLabels[l] {
				seenLabels[l] = true
				schema.Labels = append(schema.Labels, graph.LabelDescriptor{Name: l})
			}
		}
	}
	sort.Slice(schema.Labels, func(i, j int) bool { return schema.Labels[i].Name < schema.Labels[j].Name })

	relIDs := make([]int64, 0, len(s.snap.rels))
	for id := range s.snap.rels {
		relIDs = append(relIDs, id)
	}
	sort.Slice(relIDs, func(i, j int) bool { return relIDs[i] < relIDs[j] })
	seenRels := map[graph.RelationshipDescriptor]bool{}
	for _, id := range relIDs {
		rel := s.snap.rels[id]
		for _, start := range s.snap.nodes[rel.StartID].Labels {
			for _, end := range s.snap.nodes[rel.EndID].Labels {
				d := graph.RelationshipDescriptor{Type: rel.Type, StartLabel: start, EndLabel: end}
				if !seenRels[d] {
					seenRels[d] = true
					schema.Relationships = append(schema.Relationships, d)
				}
			}
		}
	}
	return schema, nil
}

func (s *session) Close() error {
	s.closed = true
	return nil
}
