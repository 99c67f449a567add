package sqlitegraph

import (
	"context"

	"github.com/geoknoesis/lpg-rdf/graph"
)

type writer struct {
	q querier
}

var _ graph.Writer = (*writer)(nil)

func (w *writer) FindNodes(ctx context.Context, label, key string, value graph.Value) ([]graph.Node, error) {
	return w.q.findNodes(ctx, label, key, value)
}

func (w *writer) NodesByLabel(ctx context.Context, label string) ([]graph.Node, error) {
	return w.q.nodesByLabel(ctx, label)
}

func (w *writer) CreateNode(ctx context.Context, labels []string, props map[string]graph.Value) (graph.Node, error) {
	res, err := w.q.tx.ExecContext(ctx, `INSERT INTO nodes DEFAULT VALUES`)
	if err != nil {
		return graph.Node{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return graph.Node{}, err
	}
	if err := w.AddLabels(ctx, id, labels...); err != nil {
		return graph.Node{}, err
	}
	for k, v := range props {
		if err := w.SetProperty(ctx, id, k, v); err != nil {
			return graph.Node{}, err
		}
	}
	return w.q.node(ctx, id)
}

// AddLabels appends labels the node does not carry yet.
func (w *writer) AddLabels(ctx context.Context, id int64, labels ...string) error {
	if err := w.q.exists(ctx, id); err != nil {
		return err
	}
	for _, l := range labels {
		_, err := w.q.tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO node_labels (node_id, label, pos)
			SELECT ?, ?, COALESCE(MAX(pos) + 1, 0) FROM node_labels WHERE node_id = ?`,
			id, l, id)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) SetProperty(ctx context.Context, id int64, key string, value graph.Value) error {
	if err := w.q.exists(ctx, id); err != nil {
		return err
	}
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	_, err = w.q.tx.ExecContext(ctx, `
		INSERT INTO node_props (node_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (node_id, key) DO UPDATE SET value = excluded.value`,
		id, key, raw)
	return err
}

func (w *writer) CreateRelationship(ctx context.Context, relType string, startID, endID int64) (graph.Relationship, error) {
	for _, id := range []int64{startID, endID} {
		if err := w.q.exists(ctx, id); err != nil {
			return graph.Relationship{}, err
		}
	}
	res, err := w.q.tx.ExecContext(ctx, `INSERT INTO rels (type, start_id, end_id) VALUES (?, ?, ?)`, relType, startID, endID)
	if err != nil {
		return graph.Relationship{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return graph.Relationship{}, err
	}
	return graph.Relationship{ID: id, Type: relType, StartID: startID, EndID: endID}, nil
}
