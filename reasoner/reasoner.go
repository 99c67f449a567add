// Package reasoner answers subsumption queries over category and
// relationship hierarchies stored in the graph, without materializing their
// transitive closure.
//
// Categories are nodes labelled Config.CatLabel, linked child to parent by
// Config.SubCatRel. A category's name is also a node label, so a virtual
// label stands for itself and the names of all its sub-categories.
// Relationship descriptors form the same kind of hierarchy for relationship
// types. Individuals join categories through Config.InCatRel.
package reasoner

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/geoknoesis/lpg-rdf/graph"
)

// Reasoner evaluates subsumption against a store. Every call opens its own
// session, so a Reasoner is safe for concurrent use.
type Reasoner struct {
	store graph.Store
	log   *logrus.Entry
}

// Option configures a Reasoner.
type Option func(*Reasoner)

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Reasoner) { r.log = log }
}

// New returns a reasoner over store.
func New(store graph.Store, opts ...Option) *Reasoner {
	r := &Reasoner{store: store, log: logrus.WithField("component", "reasoner")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NodesLabelled returns the nodes carrying virtualLabel or the label of any
// of its sub-categories. The iterator owns a session and must be closed.
func (r *Reasoner) NodesLabelled(ctx context.Context, virtualLabel string, cfg Config) (graph.NodeIterator, error) {
	cfg = cfg.withDefaults()
	s, err := r.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	labels, err := subNames(ctx, s, cfg.CatLabel, cfg.CatNameProp, cfg.SubCatRel, virtualLabel)
	if err != nil {
		s.Close()
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"label": virtualLabel, "labels": labels}).Debug("label extension")
	m := graph.NewMatch()
	for _, l := range labels {
		m.Labelled(l)
	}
	return owned(ctx, s, m)
}

// NodesInCategory returns the individuals linked to the category node with
// id categoryID or to any of its sub-categories. The iterator owns a session
// and must be closed.
func (r *Reasoner) NodesInCategory(ctx context.Context, categoryID int64, cfg Config) (graph.NodeIterator, error) {
	cfg = cfg.withDefaults()
	s, err := r.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.Node(ctx, categoryID); err != nil {
		s.Close()
		return nil, err
	}
	ids, err := closure(ctx, s, categoryID, cfg.SubCatRel, graph.Incoming)
	if err != nil {
		s.Close()
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"category": categoryID, "categories": len(ids)}).Debug("category extension")
	m := graph.NewMatch()
	for _, id := range sortedIDs(ids) {
		m.LinkedTo(cfg.InCatRel, id)
	}
	return owned(ctx, s, m)
}

// GetRels returns the relationships of node nodeID, in the configured
// direction, whose type is virtualRel or one of its sub-relationships.
func (r *Reasoner) GetRels(ctx context.Context, nodeID int64, virtualRel string, cfg Config) ([]graph.Relationship, error) {
	cfg = cfg.withDefaults()
	s, err := r.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	types, err := subNames(ctx, s, cfg.RelLabel, cfg.RelNameProp, cfg.SubRelRel, virtualRel)
	if err != nil {
		return nil, err
	}
	neighbours, err := s.Relationships(ctx, nodeID, cfg.Direction(), types...)
	if err != nil {
		return nil, err
	}
	rels := make([]graph.Relationship, 0, len(neighbours))
	for _, nb := range neighbours {
		rels = append(rels, nb.Relationship)
	}
	return rels, nil
}

// HasLabel reports whether node nodeID carries label or the label of one of
// its sub-categories.
func (r *Reasoner) HasLabel(ctx context.Context, nodeID int64, label string, cfg Config) (bool, error) {
	cfg = cfg.withDefaults()
	s, err := r.store.Session(ctx)
	if err != nil {
		return false, err
	}
	defer s.Close()
	n, err := s.Node(ctx, nodeID)
	if err != nil {
		return false, err
	}
	labels, err := subNames(ctx, s, cfg.CatLabel, cfg.CatNameProp, cfg.SubCatRel, label)
	if err != nil {
		return false, err
	}
	for _, l := range labels {
		if n.HasLabel(l) {
			return true, nil
		}
	}
	return false, nil
}

// InCategory reports whether individual is linked to category or to one of
// its sub-categories. Both strategies give the same answer; top-down expands
// the category once, bottom-up expands upward from each linked category.
func (r *Reasoner) InCategory(ctx context.Context, individual, category int64, cfg Config) (bool, error) {
	cfg = cfg.withDefaults()
	s, err := r.store.Session(ctx)
	if err != nil {
		return false, err
	}
	defer s.Close()
	if _, err := s.Node(ctx, category); err != nil {
		return false, err
	}
	links, err := s.Relationships(ctx, individual, graph.Outgoing, cfg.InCatRel)
	if err != nil {
		return false, err
	}
	if cfg.SearchTopDown {
		below, err := closure(ctx, s, category, cfg.SubCatRel, graph.Incoming)
		if err != nil {
			return false, err
		}
		for _, l := range links {
			if _, ok := below[l.Relationship.EndID]; ok {
				return true, nil
			}
		}
		return false, nil
	}
	for _, l := range links {
		above, err := closure(ctx, s, l.Relationship.EndID, cfg.SubCatRel, graph.Outgoing)
		if err != nil {
			return false, err
		}
		if _, ok := above[category]; ok {
			return true, nil
		}
	}
	return false, nil
}

// closure returns start and every node reachable from it over relType in
// dir. Visited ids are tracked, so cycles terminate.
func closure(ctx context.Context, s graph.Session, start int64, relType string, dir graph.Direction) (map[int64]struct{}, error) {
	seen := map[int64]struct{}{start: {}}
	queue := []int64{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		neighbours, err := s.Relationships(ctx, id, dir, relType)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbours {
			if _, ok := seen[nb.Node.ID]; ok {
				continue
			}
			seen[nb.Node.ID] = struct{}{}
			queue = append(queue, nb.Node.ID)
		}
	}
	return seen, nil
}

// subNames returns name followed by the names of the nodes labelled label
// reachable below the nodes named name, in first-seen order.
func subNames(ctx context.Context, s graph.Session, label, nameProp, subRel, name string) ([]string, error) {
	roots, err := s.FindNodes(ctx, label, nameProp, graph.String(name))
	if err != nil {
		return nil, err
	}
	names := []string{name}
	seenNames := map[string]bool{name: true}
	for _, root := range roots {
		ids, err := closure(ctx, s, root.ID, subRel, graph.Incoming)
		if err != nil {
			return nil, err
		}
		for _, id := range sortedIDs(ids) {
			if id == root.ID {
				continue
			}
			n, err := s.Node(ctx, id)
			if err != nil {
				return nil, err
			}
			v, ok := n.Property(nameProp)
			if !ok || v.Kind() != graph.KindString || !n.HasLabel(label) || seenNames[v.Str()] {
				continue
			}
			seenNames[v.Str()] = true
			names = append(names, v.Str())
		}
	}
	return names, nil
}

func sortedIDs(ids map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// owned runs m on s and returns an iterator that closes s with itself.
func owned(ctx context.Context, s graph.Session, m *graph.Match) (graph.NodeIterator, error) {
	it, err := s.Match(ctx, m)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &sessionNodes{NodeIterator: it, session: s}, nil
}

type sessionNodes struct {
	graph.NodeIterator
	session graph.Session
	closed  bool
}

func (it *sessionNodes) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	err := it.NodeIterator.Close()
	if cerr := it.session.Close(); err == nil {
		err = cerr
	}
	return err
}
