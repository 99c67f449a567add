package graph

import (
	"context"
	"io"
)

// Query is a store-specific query text plus named parameters.
type Query struct {
	Text   string
	Params map[string]any
}

// Column is one named value of a result row. Value holds a Node, a
// Relationship, a Path, a Value, or nil.
type Column struct {
	Name  string
	Value any
}

// Row is an ordered result row.
type Row []Column

// Get returns the value of the named column.
func (r Row) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Rows is a lazy sequence of result rows. Next returns io.EOF when exhausted.
type Rows interface {
	Next() (Row, error)
	Close() error
}

// NodeIterator is a lazy sequence of nodes. Next returns io.EOF when exhausted.
type NodeIterator interface {
	Next() (Node, error)
	Close() error
}

// LabelDescriptor describes one label present in the store.
type LabelDescriptor struct {
	Name string
}

// RelationshipDescriptor describes a relationship type together with one
// observed combination of start and end labels.
type RelationshipDescriptor struct {
	Type       string
	StartLabel string
	EndLabel   string
}

// Schema is the result of store introspection. Relationships may list the
// same type several times, once per co-occurring label pair.
type Schema struct {
	Labels        []LabelDescriptor
	Relationships []RelationshipDescriptor
}

// Session is a read scope on a store. It must be closed on every path.
type Session interface {
	// Execute runs a store-specific query and returns its rows lazily.
	Execute(ctx context.Context, q Query) (Rows, error)
	// Node returns a node by id, or ErrNotFound.
	Node(ctx context.Context, id int64) (Node, error)
	// FindNodes returns the nodes with label whose property key equals value.
	// An empty label matches any node.
	FindNodes(ctx context.Context, label, key string, value Value) ([]Node, error)
	// Relationships returns the relationships of a node in the given
	// direction, optionally restricted to types, with their far nodes.
	Relationships(ctx context.Context, nodeID int64, dir Direction, types ...string) ([]Neighbour, error)
	// Match runs a disjunctive node query.
	Match(ctx context.Context, m *Match) (NodeIterator, error)
	// Schema introspects labels and relationship types.
	Schema(ctx context.Context) (Schema, error)
	io.Closer
}

// Writer mutates a store. It is used by ingestion.
type Writer interface {
	FindNodes(ctx context.Context, label, key string, value Value) ([]Node, error)
	NodesByLabel(ctx context.Context, label string) ([]Node, error)
	CreateNode(ctx context.Context, labels []string, props map[string]Value) (Node, error)
	AddLabels(ctx context.Context, id int64, labels ...string) error
	SetProperty(ctx context.Context, id int64, key string, value Value) error
	CreateRelationship(ctx context.Context, relType string, startID, endID int64) (Relationship, error)
}

// Store hands out sessions and runs write transactions.
type Store interface {
	Session(ctx context.Context) (Session, error)
	Update(ctx context.Context, fn func(Writer) error) error
	io.Closer
}
