// Package export publishes graph content as RDF.
//
// Two modes are supported. The generic mode names nodes after their store id
// in the individuals namespace and types after their name in the vocabulary
// namespace, applying mapping overrides. The identity mode serves graphs
// produced by RDF ingestion: a node's uri property is its subject and names
// are resolved through the stored namespace table.
//
// Every call runs in one store session and streams statements to the output.
// A failure is reported inside the document as a comment, the document is
// closed, and the error is returned.
package export

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

// Exporter serializes graph content from a store. It holds no per-call state
// and is safe for concurrent use.
type Exporter struct {
	store graph.Store
	log   *logrus.Entry
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Exporter) { e.log = log }
}

// New creates an exporter over store.
func New(store graph.Store, opts ...Option) *Exporter {
	e := &Exporter{store: store, log: logrus.WithField("component", "export")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the state of one export call.
type run struct {
	ctx     context.Context
	session graph.Session
	w       rdf.Writer
	log     *logrus.Entry
	opts    Options
	started bool
	written int
}

func (e *Exporter) run(ctx context.Context, out io.Writer, op string, opts Options, body func(r *run) error) error {
	format, source := opts.Negotiate()
	log := e.log.WithFields(logrus.Fields{"op": op, "format": format.Name()})
	log.WithField("source", source).Info("serialization selected")

	w, err := rdf.NewWriter(out, format)
	if err != nil {
		return err
	}
	r := &run{ctx: ctx, w: w, log: log, opts: opts}

	s, err := e.store.Session(ctx)
	if err != nil {
		return r.abort(err)
	}
	defer s.Close()
	r.session = s

	if err := body(r); err != nil {
		return r.abort(err)
	}
	if err := r.start(); err != nil {
		return r.abort(err)
	}
	if err := w.End(); err != nil {
		return err
	}
	log.WithField("statements", r.written).Debug("export complete")
	return nil
}

// declare registers prefixes on the writer, skipping prefixes already taken.
func (r *run) declare(prefixes [][2]string) error {
	seen := map[string]bool{}
	for _, p := range prefixes {
		if seen[p[0]] {
			continue
		}
		seen[p[0]] = true
		if err := r.w.HandleNamespace(p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) start() error {
	if r.started {
		return nil
	}
	r.started = true
	return r.w.Start()
}

func (r *run) emit(t rdf.Triple) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if err := r.w.Write(t); err != nil {
		return err
	}
	r.written++
	return nil
}

// abort closes the document with err as a trailing comment.
func (r *run) abort(err error) error {
	r.log.WithError(err).WithField("statements", r.written).Error("export failed")
	if startErr := r.start(); startErr != nil && !errors.Is(startErr, rdf.ErrWriterState) {
		return errors.Join(err, startErr)
	}
	if commentErr := r.w.Comment(err.Error()); commentErr != nil {
		return errors.Join(err, commentErr)
	}
	if endErr := r.w.End(); endErr != nil {
		return errors.Join(err, endErr)
	}
	return err
}

// each drains rows and hands every column value to fn.
func (r *run) each(rows graph.Rows, fn func(any) error) error {
	defer rows.Close()
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, col := range row {
			if err := fn(col.Value); err != nil {
				return err
			}
		}
	}
}

// element dispatches a result value to the node and relationship handlers.
// Scalars and nulls are ignored.
func (r *run) element(v any, node func(graph.Node) error, rel func(graph.Relationship) error) error {
	switch x := v.(type) {
	case graph.Node:
		return node(x)
	case graph.Relationship:
		return rel(x)
	case graph.Path:
		for _, n := range x.Nodes {
			if err := node(n); err != nil {
				return err
			}
		}
		for _, rl := range x.Relationships {
			if err := rel(rl); err != nil {
				return err
			}
		}
		return nil
	default:
		r.log.WithField("type", typeName(v)).Debug("skipping non-graph value")
		return nil
	}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	if val, ok := v.(graph.Value); ok {
		return val.Kind().String()
	}
	return "unknown"
}
