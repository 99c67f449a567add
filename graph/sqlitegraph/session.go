package sqlitegraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/geoknoesis/lpg-rdf/graph"
)

// Column alias suffixes that mark id columns to be loaded as graph elements.
const (
	SuffixNode = "@node"
	SuffixRel  = "@rel"
	SuffixPath = "@path"
)

type session struct {
	q      querier
	closed bool
}

var _ graph.Session = (*session)(nil)

func (s *session) check(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("sqlitegraph: session closed")
	}
	return ctx.Err()
}

// Execute runs SQL with named parameters (:name). Columns aliased name@node
// or name@rel hold ids and are returned as the element under name; a
// name@path column holds a JSON array of alternating node and relationship
// ids. Other columns are returned as graph values.
func (s *session) Execute(ctx context.Context, q graph.Query) (graph.Rows, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(q.Params))
	for k := range q.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, sql.Named(k, sqlArg(q.Params[k])))
	}
	rows, err := s.q.tx.QueryContext(ctx, q.Text, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitegraph: execute: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &sqlRows{ctx: ctx, q: s.q, rows: rows, cols: cols}, nil
}

func sqlArg(v any) any {
	val, ok := v.(graph.Value)
	if !ok {
		return v
	}
	switch val.Kind() {
	case graph.KindString, graph.KindOther:
		return val.Str()
	case graph.KindInteger:
		return val.Int()
	case graph.KindFloat:
		return val.Float()
	case graph.KindBoolean:
		return val.Bool()
	default:
		return val.String()
	}
}

type sqlRows struct {
	ctx  context.Context
	q    querier
	rows *sql.Rows
	cols []string
}

func (r *sqlRows) Next() (graph.Row, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	raw := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(graph.Row, len(r.cols))
	for i, col := range r.cols {
		name, v, err := r.column(col, raw[i])
		if err != nil {
			return nil, err
		}
		row[i] = graph.Column{Name: name, Value: v}
	}
	return row, nil
}

func (r *sqlRows) column(col string, raw any) (string, any, error) {
	name, kind, typed := cutSuffix(col)
	if raw == nil {
		return name, nil, nil
	}
	if !typed {
		return col, graph.FromNative(raw), nil
	}
	switch kind {
	case SuffixNode:
		id, err := asID(raw)
		if err != nil {
			return "", nil, err
		}
		n, err := r.q.node(r.ctx, id)
		return name, n, err
	case SuffixRel:
		id, err := asID(raw)
		if err != nil {
			return "", nil, err
		}
		rel, err := r.q.relationship(r.ctx, id)
		return name, rel, err
	default:
		p, err := r.path(raw)
		return name, p, err
	}
}

func (r *sqlRows) path(raw any) (graph.Path, error) {
	var text string
	switch x := raw.(type) {
	case string:
		text = x
	case []byte:
		text = string(x)
	default:
		return graph.Path{}, fmt.Errorf("sqlitegraph: path column is %T, not JSON text", raw)
	}
	var ids []int64
	if err := json.Unmarshal([]byte(text), &ids); err != nil {
		return graph.Path{}, fmt.Errorf("sqlitegraph: path: %w", err)
	}
	var p graph.Path
	for i, id := range ids {
		if i%2 == 0 {
			n, err := r.q.node(r.ctx, id)
			if err != nil {
				return graph.Path{}, err
			}
			p.Nodes = append(p.Nodes, n)
			continue
		}
		rel, err := r.q.relationship(r.ctx, id)
		if err != nil {
			return graph.Path{}, err
		}
		p.Relationships = append(p.Relationships, rel)
	}
	return p, nil
}

func (r *sqlRows) Close() error { return r.rows.Close() }

func cutSuffix(col string) (name, suffix string, ok bool) {
	for _, s := range []string{SuffixNode, SuffixRel, SuffixPath} {
		if base, found := strings.CutSuffix(col, s); found {
			return base, s, true
		}
	}
	return col, "", false
}

func asID(raw any) (int64, error) {
	switch x := raw.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("sqlitegraph: id column holds %T", raw)
	}
}

func (s *session) Node(ctx context.Context, id int64) (graph.Node, error) {
	if err := s.check(ctx); err != nil {
		return graph.Node{}, err
	}
	return s.q.node(ctx, id)
}

func (s *session) FindNodes(ctx context.Context, label, key string, value graph.Value) ([]graph.Node, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.q.findNodes(ctx, label, key, value)
}

func (s *session) Relationships(ctx context.Context, nodeID int64, dir graph.Direction, types ...string) ([]graph.Neighbour, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := s.q.exists(ctx, nodeID); err != nil {
		return nil, err
	}
	var where string
	args := []any{}
	switch dir {
	case graph.Outgoing:
		where = `start_id = ?`
		args = append(args, nodeID)
	case graph.Incoming:
		where = `end_id = ?`
		args = append(args, nodeID)
	default:
		where = `(start_id = ? OR end_id = ?)`
		args = append(args, nodeID, nodeID)
	}
	if len(types) > 0 {
		where += ` AND type IN (?` + strings.Repeat(`, ?`, len(types)-1) + `)`
		for _, t := range types {
			args = append(args, t)
		}
	}
	ids, err := s.q.ids(ctx, `SELECT id FROM rels WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	out := make([]graph.Neighbour, 0, len(ids))
	for _, id := range ids {
		rel, err := s.q.relationship(ctx, id)
		if err != nil {
			return nil, err
		}
		far, err := s.q.node(ctx, rel.Other(nodeID))
		if err != nil {
			return nil, err
		}
		out = append(out, graph.Neighbour{Relationship: rel, Node: far})
	}
	return out, nil
}

// Match collects the matching ids with one query and loads each node as the
// iterator advances.
func (s *session) Match(ctx context.Context, m *graph.Match) (graph.NodeIterator, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if m.Empty() {
		return graph.SliceNodes(nil, nil), nil
	}
	query, args := compileMatch(m)
	ids, err := s.q.ids(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitegraph: match: %w", err)
	}
	return &idNodes{ctx: ctx, q: s.q, ids: ids}, nil
}

type idNodes struct {
	ctx context.Context
	q   querier
	ids []int64
	pos int
}

func (it *idNodes) Next() (graph.Node, error) {
	if it.pos >= len(it.ids) {
		return graph.Node{}, io.EOF
	}
	id := it.ids[it.pos]
	it.pos++
	return it.q.node(it.ctx, id)
}

func (it *idNodes) Close() error {
	it.pos = len(it.ids)
	return nil
}

// Schema lists every label, and every relationship type once per observed
// (start label, end label) pair.
func (s *session) Schema(ctx context.Context) (graph.Schema, error) {
	if err := s.check(ctx); err != nil {
		return graph.Schema{}, err
	}
	var schema graph.Schema
	rows, err := s.q.tx.QueryContext(ctx, `SELECT DISTINCT label FROM node_labels ORDER BY label`)
	if err != nil {
		return graph.Schema{}, err
	}
	for rows.Next() {
		var l graph.LabelDescriptor
		if err := rows.Scan(&l.Name); err != nil {
			rows.Close()
			return graph.Schema{}, err
		}
		schema.Labels = append(schema.Labels, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return graph.Schema{}, err
	}

	rows, err = s.q.tx.QueryContext(ctx, `
		SELECT DISTINCT r.type, sl.label, el.label
		FROM rels r
		JOIN node_labels sl ON sl.node_id = r.start_id
		JOIN node_labels el ON el.node_id = r.end_id
		ORDER BY r.type, sl.label, el.label`)
	if err != nil {
		return graph.Schema{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var d graph.RelationshipDescriptor
		if err := rows.Scan(&d.Type, &d.StartLabel, &d.EndLabel); err != nil {
			return graph.Schema{}, err
		}
		schema.Relationships = append(schema.Relationships, d)
	}
	return schema, rows.Err()
}

// Close ends the read transaction.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.q.tx.Rollback()
}
