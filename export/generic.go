package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/literal"
	"github.com/geoknoesis/lpg-rdf/mapping"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

// generic serializes nodes named by store id.
type generic struct {
	*run
	mappings *mapping.Table
	codec    *literal.Codec
	seen     map[int64]struct{}
}

// openGeneric declares the generic prefixes, loads the mapping table and
// starts the document.
func openGeneric(r *run) (*generic, error) {
	prefixes := [][2]string{
		{"neovoc", r.opts.vocab()},
		{"neoind", r.opts.individuals()},
	}
	nss, err := mapping.Namespaces(r.ctx, r.session)
	if err != nil {
		return nil, err
	}
	for _, ns := range nss {
		prefixes = append(prefixes, [2]string{ns.Prefix, ns.Namespace})
	}
	prefixes = append(prefixes, [2]string{"rdf", rdf.RDFNamespace})
	if err := r.declare(prefixes); err != nil {
		return nil, err
	}
	mappings, err := mapping.Load(r.ctx, r.session)
	if err != nil {
		return nil, err
	}
	if err := r.start(); err != nil {
		return nil, err
	}
	return &generic{
		run:      r,
		mappings: mappings,
		codec:    literal.New(nil),
		seen:     map[int64]struct{}{},
	}, nil
}

func (g *generic) subject(id int64) rdf.IRI {
	return rdf.IRI{Value: g.opts.individuals() + strconv.FormatInt(id, 10)}
}

func (g *generic) resolve(elem string) (rdf.IRI, bool) {
	target, ok := g.mappings.Resolve(g.opts.vocab(), elem, g.opts.MappedElemsOnly)
	if !ok {
		g.log.WithField("element", elem).Debug("skipping unmapped element")
	}
	return rdf.IRI{Value: target}, ok
}

// node emits the type and property statements of n once per call.
func (g *generic) node(n graph.Node) error {
	if _, done := g.seen[n.ID]; done {
		return nil
	}
	g.seen[n.ID] = struct{}{}
	subject := g.subject(n.ID)
	for _, label := range n.Labels {
		class, ok := g.resolve(label)
		if !ok {
			continue
		}
		if err := g.emit(rdf.NewTriple(subject, rdf.RDFType, class)); err != nil {
			return err
		}
	}
	for _, key := range n.Keys() {
		predicate, ok := g.resolve(key)
		if !ok {
			continue
		}
		lits, err := g.codec.Encode(n.Properties[key])
		if err != nil {
			return fmt.Errorf("node %d property %q: %w", n.ID, key, err)
		}
		for _, lit := range lits {
			if err := g.emit(rdf.NewTriple(subject, predicate, lit)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generic) relationship(rel graph.Relationship) error {
	predicate, ok := g.resolve(rel.Type)
	if !ok {
		return nil
	}
	return g.emit(rdf.NewTriple(g.subject(rel.StartID), predicate, g.subject(rel.EndID)))
}

func (g *generic) neighbourhood(n graph.Node) error {
	if g.opts.ExcludeContext {
		return nil
	}
	neighbours, err := g.session.Relationships(g.ctx, n.ID, graph.Both)
	if err != nil {
		return err
	}
	for _, nb := range neighbours {
		if err := g.relationship(nb.Relationship); err != nil {
			return err
		}
	}
	return nil
}

// ExportQuery runs query and serializes the nodes, relationships and paths
// it returns in the generic mode.
func (e *Exporter) ExportQuery(ctx context.Context, out io.Writer, query string, opts Options) error {
	return e.run(ctx, out, "cypher", opts, func(r *run) error {
		g, err := openGeneric(r)
		if err != nil {
			return err
		}
		rows, err := r.session.Execute(ctx, graph.Query{Text: query, Params: opts.CypherParams})
		if err != nil {
			return err
		}
		return r.each(rows, func(v any) error {
			return r.element(v, g.node, g.relationship)
		})
	})
}

// DescribeByID serializes the node with the given store id and, unless
// ExcludeContext is set, all of its relationships.
func (e *Exporter) DescribeByID(ctx context.Context, out io.Writer, id int64, opts Options) error {
	return e.run(ctx, out, "describe/id", opts, func(r *run) error {
		g, err := openGeneric(r)
		if err != nil {
			return err
		}
		n, err := r.session.Node(ctx, id)
		if err != nil {
			return err
		}
		if err := g.node(n); err != nil {
			return err
		}
		return g.neighbourhood(n)
	})
}

// FindRequest selects nodes by label and property value. ValType is one of
// INTEGER, FLOAT or BOOLEAN; anything else compares Value as a string.
type FindRequest struct {
	Label    string
	Property string
	Value    string
	ValType  string
}

func (f FindRequest) value() (graph.Value, error) {
	switch strings.ToUpper(f.ValType) {
	case "INTEGER":
		i, err := strconv.ParseInt(strings.TrimSpace(f.Value), 10, 64)
		if err != nil {
			return graph.Value{}, fmt.Errorf("%w: %q is not an INTEGER", ErrInvalidRequest, f.Value)
		}
		return graph.Integer(i), nil
	case "FLOAT":
		x, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
		if err != nil {
			return graph.Value{}, fmt.Errorf("%w: %q is not a FLOAT", ErrInvalidRequest, f.Value)
		}
		return graph.Float(x), nil
	case "BOOLEAN":
		return graph.Boolean(strings.EqualFold(strings.TrimSpace(f.Value), "true")), nil
	default:
		return graph.String(f.Value), nil
	}
}

// Find serializes every node matching req in the generic mode, each with its
// relationships unless ExcludeContext is set. No match is a not-found error.
func (e *Exporter) Find(ctx context.Context, out io.Writer, req FindRequest, opts Options) error {
	return e.run(ctx, out, "describe/find", opts, func(r *run) error {
		value, err := req.value()
		if err != nil {
			return err
		}
		g, err := openGeneric(r)
		if err != nil {
			return err
		}
		nodes, err := r.session.FindNodes(ctx, req.Label, req.Property, value)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return graph.NotFound("no %s node with %s = %s", req.Label, req.Property, value)
		}
		r.log.WithFields(logrus.Fields{"label": req.Label, "matches": len(nodes)}).Debug("find matched")
		for _, n := range nodes {
			if err := g.node(n); err != nil {
				return err
			}
			if err := g.neighbourhood(n); err != nil {
				return err
			}
		}
		return nil
	})
}
