package export

import (
	"context"
	"fmt"
	"io"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/literal"
	"github.com/geoknoesis/lpg-rdf/namespace"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

// identity serializes ingested nodes under their original identifiers.
type identity struct {
	*run
	ns    *namespace.Table
	codec *literal.Codec
	seen  map[string]struct{}
	uris  map[int64]string
}

func ontologyPrefixes(opts Options) [][2]string {
	return [][2]string{
		{"owl", rdf.OWLNamespace},
		{"rdfs", rdf.RDFSNamespace},
		{"rdf", rdf.RDFNamespace},
		{"neovoc", opts.vocab()},
		{"neoind", opts.individuals()},
	}
}

// openIdentity loads the namespace table, declares its prefixes and starts
// the document.
func openIdentity(r *run) (*identity, error) {
	ns, err := namespace.Load(r.ctx, r.session)
	if err != nil {
		return nil, err
	}
	prefixes := ontologyPrefixes(r.opts)
	for _, p := range ns.SortedPrefixes() {
		uri, _ := ns.Namespace(p)
		prefixes = append(prefixes, [2]string{p, uri})
	}
	if err := r.declare(prefixes); err != nil {
		return nil, err
	}
	if err := r.start(); err != nil {
		return nil, err
	}
	return &identity{
		run:   r,
		ns:    ns,
		codec: literal.New(ns),
		seen:  map[string]struct{}{},
		uris:  map[int64]string{},
	}, nil
}

func (d *identity) iri(name string) (rdf.IRI, error) {
	uri, err := d.ns.BuildURI(d.opts.vocab(), name)
	if err != nil {
		return rdf.IRI{}, err
	}
	return rdf.IRI{Value: uri}, nil
}

// node emits the type and property statements of an ingested node once per
// call. Nodes without a uri are not RDF resources and are skipped.
func (d *identity) node(n graph.Node) error {
	uri, ok := n.URI()
	if !ok {
		d.log.WithField("node", n.ID).Debug("skipping node without uri")
		return nil
	}
	d.uris[n.ID] = uri
	if _, done := d.seen[uri]; done {
		return nil
	}
	d.seen[uri] = struct{}{}
	subject := rdf.ResourceTerm(uri)
	for _, label := range n.Labels {
		if graph.IsReservedLabel(label) {
			continue
		}
		class, err := d.iri(label)
		if err != nil {
			return err
		}
		if err := d.emit(rdf.NewTriple(subject, rdf.RDFType, class)); err != nil {
			return err
		}
	}
	for _, key := range n.Keys() {
		if key == graph.PropertyURI {
			continue
		}
		predicate, err := d.iri(key)
		if err != nil {
			return err
		}
		lits, err := d.codec.Encode(n.Properties[key])
		if err != nil {
			return fmt.Errorf("%s property %q: %w", uri, key, err)
		}
		for _, lit := range lits {
			if err := d.emit(rdf.NewTriple(subject, predicate, lit)); err != nil {
				return err
			}
		}
	}
	return nil
}

// uriOf returns the uri of a relationship endpoint, loading the node when it
// has not been seen in this call.
func (d *identity) uriOf(id int64) (string, bool, error) {
	if uri, ok := d.uris[id]; ok {
		return uri, true, nil
	}
	n, err := d.session.Node(d.ctx, id)
	if err != nil {
		return "", false, err
	}
	uri, ok := n.URI()
	if ok {
		d.uris[id] = uri
	}
	return uri, ok, nil
}

func (d *identity) relationship(rel graph.Relationship) error {
	start, okStart, err := d.uriOf(rel.StartID)
	if err != nil {
		return err
	}
	end, okEnd, err := d.uriOf(rel.EndID)
	if err != nil {
		return err
	}
	if !okStart || !okEnd {
		d.log.WithField("relationship", rel.ID).Debug("skipping relationship between non-resources")
		return nil
	}
	predicate, err := d.iri(rel.Type)
	if err != nil {
		return err
	}
	return d.emit(rdf.NewTriple(rdf.ResourceTerm(start), predicate, rdf.ResourceTerm(end)))
}

// ExportQueryOnRDF runs query and serializes its results in the identity
// mode.
func (e *Exporter) ExportQueryOnRDF(ctx context.Context, out io.Writer, query string, opts Options) error {
	return e.run(ctx, out, "cypheronrdf", opts, func(r *run) error {
		d, err := openIdentity(r)
		if err != nil {
			return err
		}
		rows, err := r.session.Execute(ctx, graph.Query{Text: query, Params: opts.CypherParams})
		if err != nil {
			return err
		}
		return r.each(rows, func(v any) error {
			return r.element(v, d.node, d.relationship)
		})
	})
}

// DescribeByURI serializes the Resource node with the given uri and, unless
// ExcludeContext is set, its relationships to other resources.
func (e *Exporter) DescribeByURI(ctx context.Context, out io.Writer, uri string, opts Options) error {
	return e.run(ctx, out, "describe/uri", opts, func(r *run) error {
		d, err := openIdentity(r)
		if err != nil {
			return err
		}
		nodes, err := r.session.FindNodes(ctx, graph.LabelResource, graph.PropertyURI, graph.String(uri))
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return graph.NotFound("no resource with uri %s", uri)
		}
		for _, n := range nodes {
			if err := d.node(n); err != nil {
				return err
			}
			if opts.ExcludeContext {
				continue
			}
			neighbours, err := r.session.Relationships(ctx, n.ID, graph.Both)
			if err != nil {
				return err
			}
			for _, nb := range neighbours {
				other, ok := nb.Node.URI()
				if !ok || !nb.Node.HasLabel(graph.LabelResource) {
					continue
				}
				d.uris[nb.Node.ID] = other
				if err := d.relationship(nb.Relationship); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
