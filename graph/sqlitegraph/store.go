// Package sqlitegraph stores a labeled property graph in SQLite.
//
// Nodes, their labels, their properties and relationships live in four
// tables. Property values are stored as the JSON encoding of graph.Value,
// which is deterministic, so equality lookups compare the encoded text.
// Sessions are read transactions; Update runs a write transaction.
package sqlitegraph

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/geoknoesis/lpg-rdf/graph"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY AUTOINCREMENT
);

CREATE TABLE IF NOT EXISTS node_labels (
	node_id INTEGER NOT NULL REFERENCES nodes(id),
	label TEXT NOT NULL,
	pos INTEGER NOT NULL,
	PRIMARY KEY (node_id, label)
);

CREATE TABLE IF NOT EXISTS node_props (
	node_id INTEGER NOT NULL REFERENCES nodes(id),
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (node_id, key)
);

CREATE TABLE IF NOT EXISTS rels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	start_id INTEGER NOT NULL REFERENCES nodes(id),
	end_id INTEGER NOT NULL REFERENCES nodes(id)
);

CREATE INDEX IF NOT EXISTS idx_node_labels_label ON node_labels(label);
CREATE INDEX IF NOT EXISTS idx_node_props_kv ON node_props(key, value);
CREATE INDEX IF NOT EXISTS idx_rels_start ON rels(start_id, type);
CREATE INDEX IF NOT EXISTS idx_rels_end ON rels(end_id, type);
`

// Store is a graph.Store backed by one SQLite database file.
type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ graph.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) { s.log = log }
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitegraph: open %s: %w", path, err)
	}
	s := &Store{db: db, log: logrus.WithField("component", "sqlitegraph")}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitegraph: initialize schema: %w", err)
	}
	s.log.WithField("path", path).Debug("store opened")
	return s, nil
}

// Session begins a read transaction. Closing the session rolls it back.
func (s *Store) Session(ctx context.Context) (graph.Session, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("sqlitegraph: begin session: %w", err)
	}
	return &session{q: querier{tx: tx}}, nil
}

// Update runs fn in a write transaction, committing only when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(graph.Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitegraph: begin update: %w", err)
	}
	w := &writer{querier{tx: tx}}
	if err := fn(w); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitegraph: commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
