package sqlitegraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/geoknoesis/lpg-rdf/graph"
)

// querier holds the lookups shared by sessions and writers.
type querier struct {
	tx *sql.Tx
}

func encodeValue(v graph.Value) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlitegraph: encode value: %w", err)
	}
	return string(b), nil
}

func (q querier) exists(ctx context.Context, id int64) error {
	var found int64
	err := q.tx.QueryRowContext(ctx, `SELECT id FROM nodes WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.NotFound("node %d", id)
	}
	return err
}

func (q querier) node(ctx context.Context, id int64) (graph.Node, error) {
	if err := q.exists(ctx, id); err != nil {
		return graph.Node{}, err
	}
	n := graph.Node{ID: id, Properties: map[string]graph.Value{}}

	rows, err := q.tx.QueryContext(ctx, `SELECT label FROM node_labels WHERE node_id = ? ORDER BY pos`, id)
	if err != nil {
		return graph.Node{}, err
	}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			rows.Close()
			return graph.Node{}, err
		}
		n.Labels = append(n.Labels, label)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return graph.Node{}, err
	}

	rows, err = q.tx.QueryContext(ctx, `SELECT key, value FROM node_props WHERE node_id = ?`, id)
	if err != nil {
		return graph.Node{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return graph.Node{}, err
		}
		var v graph.Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return graph.Node{}, fmt.Errorf("sqlitegraph: node %d property %q: %w", id, key, err)
		}
		n.Properties[key] = v
	}
	return n, rows.Err()
}

func (q querier) relationship(ctx context.Context, id int64) (graph.Relationship, error) {
	r := graph.Relationship{ID: id}
	err := q.tx.QueryRowContext(ctx, `SELECT type, start_id, end_id FROM rels WHERE id = ?`, id).
		Scan(&r.Type, &r.StartID, &r.EndID)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Relationship{}, graph.NotFound("relationship %d", id)
	}
	return r, err
}

// ids runs a query returning one id column.
func (q querier) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := q.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (q querier) nodes(ctx context.Context, ids []int64) ([]graph.Node, error) {
	out := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		n, err := q.node(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (q querier) findNodes(ctx context.Context, label, key string, value graph.Value) ([]graph.Node, error) {
	raw, err := encodeValue(value)
	if err != nil {
		return nil, err
	}
	query := `SELECT p.node_id FROM node_props p WHERE p.key = ? AND p.value = ? ORDER BY p.node_id`
	args := []any{key, raw}
	if label != "" {
		query = `SELECT p.node_id FROM node_props p
			JOIN node_labels l ON l.node_id = p.node_id AND l.label = ?
			WHERE p.key = ? AND p.value = ? ORDER BY p.node_id`
		args = []any{label, key, raw}
	}
	ids, err := q.ids(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return q.nodes(ctx, ids)
}

func (q querier) nodesByLabel(ctx context.Context, label string) ([]graph.Node, error) {
	ids, err := q.ids(ctx, `SELECT node_id FROM node_labels WHERE label = ? ORDER BY node_id`, label)
	if err != nil {
		return nil, err
	}
	return q.nodes(ctx, ids)
}

// compileMatch builds one UNION over the branches with every label, type and
// id bound as a parameter.
func compileMatch(m *graph.Match) (string, []any) {
	parts := make([]string, 0, len(m.Branches()))
	var args []any
	for _, b := range m.Branches() {
		if b.Linked() {
			parts = append(parts, `SELECT start_id AS id FROM rels WHERE type = ? AND end_id = ?`)
			args = append(args, b.RelType, b.TargetID)
			continue
		}
		parts = append(parts, `SELECT node_id AS id FROM node_labels WHERE label = ?`)
		args = append(args, b.Label)
	}
	return `SELECT id FROM (` + strings.Join(parts, " UNION ") + `) ORDER BY id`, args
}
