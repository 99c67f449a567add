// Package memgraph is an in-memory graph.Store. Sessions read an immutable
// snapshot; Update works on a copy that replaces the snapshot on success.
package memgraph

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/geoknoesis/lpg-rdf/graph"
)

// Handler answers a registered Execute query against a session.
type Handler func(ctx context.Context, s graph.Session, params map[string]any) (graph.Rows, error)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) { s.log = log }
}

// Store is a thread-safe in-memory labeled property graph.
type Store struct {
	mu       sync.Mutex // serializes Update
	current  atomic.Pointer[snapshot]
	handlers sync.Map
	log      *logrus.Entry
}

type snapshot struct {
	nodes    map[int64]graph.Node
	rels     map[int64]graph.Relationship
	adj      map[int64][]int64
	nextNode int64
	nextRel  int64
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{log: logrus.WithField("component", "memgraph")}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&snapshot{
		nodes: map[int64]graph.Node{},
		rels:  map[int64]graph.Relationship{},
		adj:   map[int64][]int64{},
	})
	return s
}

// Register binds a query text to a handler for Session.Execute.
func (s *Store) Register(text string, h Handler) {
	s.handlers.Store(text, h)
}

// Session opens a read session over the current snapshot.
func (s *Store) Session(ctx context.Context) (graph.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{store: s, snap: s.current.Load()}, nil
}

// Update runs fn against a private copy of the graph and publishes it when
// fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(graph.Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &writer{snap: s.current.Load().clone()}
	if err := fn(w); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.current.Store(w.snap)
	s.log.WithFields(logrus.Fields{
		"nodes":         len(w.snap.nodes),
		"relationships": len(w.snap.rels),
	}).Debug("update committed")
	return nil
}

// Close releases nothing; it exists to satisfy graph.Store.
func (s *Store) Close() error { return nil }

func (s *snapshot) clone() *snapshot {
	out := &snapshot{
		nodes:    make(map[int64]graph.Node, len(s.nodes)),
		rels:     make(map[int64]graph.Relationship, len(s.rels)),
		adj:      make(map[int64][]int64, len(s.adj)),
		nextNode: s.nextNode,
		nextRel:  s.nextRel,
	}
	for id, n := range s.nodes {
		out.nodes[id] = n
	}
	for id, r := range s.rels {
		out.rels[id] = r
	}
	for id, rels := range s.adj {
		out.adj[id] = rels
	}
	return out
}

func (s *snapshot) sortedNodeIDs() []int64 {
	ids := make([]int64, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *snapshot) node(id int64) (graph.Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return graph.Node{}, graph.NotFound("node %d", id)
	}
	return cloneNode(n), nil
}

func cloneNode(n graph.Node) graph.Node {
	out := graph.Node{
		ID:         n.ID,
		Labels:     append([]string(nil), n.Labels...),
		Properties: make(map[string]graph.Value, len(n.Properties)),
	}
	for k, v := range n.Properties {
		out.Properties[k] = v
	}
	return out
}

type writer struct {
	snap *snapshot
}

func (w *writer) FindNodes(_ context.Context, label, key string, value graph.Value) ([]graph.Node, error) {
	return w.snap.findNodes(label, key, value), nil
}

func (w *writer) NodesByLabel(_ context.Context, label string) ([]graph.Node, error) {
	var out []graph.Node
	for _, id := range w.snap.sortedNodeIDs() {
		if n := w.snap.nodes[id]; n.HasLabel(label) {
			out = append(out, cloneNode(n))
		}
	}
	return out, nil
}

func (w *writer) CreateNode(_ context.Context, labels []string, props map[string]graph.Value) (graph.Node, error) {
	w.snap.nextNode++
	n := graph.Node{ID: w.snap.nextNode, Properties: map[string]graph.Value{}}
	n.Labels = appendLabels(nil, labels)
	for k, v := range props {
		n.Properties[k] = v
	}
	w.snap.nodes[n.ID] = n
	return cloneNode(n), nil
}

func (w *writer) AddLabels(_ context.Context, id int64, labels ...string) error {
	n, err := w.snap.node(id)
	if err != nil {
		return err
	}
	n.Labels = appendLabels(n.Labels, labels)
	w.snap.nodes[id] = n
	return nil
}

func (w *writer) SetProperty(_ context.Context, id int64, key string, value graph.Value) error {
	n, err := w.snap.node(id)
	if err != nil {
		return err
	}
	n.Properties[key] = value
	w.snap.nodes[id] = n
	return nil
}

func (w *writer) CreateRelationship(_ context.Context, relType string, startID, endID int64) (graph.Relationship, error) {
	if relType == "" {
		return graph.Relationship{}, fmt.Errorf("memgraph: relationship type is required")
	}
	for _, id := range []int64{startID, endID} {
		if _, ok := w.snap.nodes[id]; !ok {
			return graph.Relationship{}, graph.NotFound("node %d", id)
		}
	}
	w.snap.nextRel++
	rel := graph.Relationship{ID: w.snap.nextRel, Type: relType, StartID: startID, EndID: endID}
	w.snap.rels[rel.ID] = rel
	w.snap.adj[startID] = appendID(w.snap.adj[startID], rel.ID)
	if endID != startID {
		w.snap.adj[endID] = appendID(w.snap.adj[endID], rel.ID)
	}
	return rel, nil
}

// appendID copies before appending so that older snapshots keep their slice.
func appendID(ids []int64, id int64) []int64 {
	out := make([]int64, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}

func appendLabels(existing, labels []string) []string {
	out := append([]string(nil), existing...)
	for _, l := range labels {
		if l == "" || contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
