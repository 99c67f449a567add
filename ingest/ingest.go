// Package ingest loads RDF statements into a property graph in the shape the
// identity export reads back.
//
// Every IRI or blank node subject and object becomes a node labelled Resource
// (plus BNode for blank nodes) carrying its identifier in the uri property.
// rdf:type statements become labels, statements with a resource object
// become relationships, and literal statements become properties. Names
// outside the base vocabulary are compacted with the stored namespace table;
// new namespaces get generated prefixes which are saved with the graph.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/literal"
	"github.com/geoknoesis/lpg-rdf/namespace"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

// DefaultVocabulary is the namespace whose terms are stored as bare names.
const DefaultVocabulary = "neo4j://vocabulary#"

// Options control one import.
type Options struct {
	// VocabularyNamespace is stripped from names instead of being compacted.
	VocabularyNamespace string
}

// Result summarizes an import.
type Result struct {
	Triples       int
	Nodes         int
	Relationships int
	Namespaces    int
}

// Importer writes RDF into a store.
type Importer struct {
	store graph.Store
	log   *logrus.Entry
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(i *Importer) { i.log = log }
}

// New returns an importer over store.
func New(store graph.Store, opts ...Option) *Importer {
	i := &Importer{store: store, log: logrus.WithField("component", "ingest")}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportNTriples reads N-Triples from r and writes them in one store update.
// Nothing is written when the input fails to parse.
func (i *Importer) ImportNTriples(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	if opts.VocabularyNamespace == "" {
		opts.VocabularyNamespace = DefaultVocabulary
	}
	var res Result
	err := i.store.Update(ctx, func(w graph.Writer) error {
		l, err := newLoad(ctx, w, opts)
		if err != nil {
			return err
		}
		dec := rdf.NewNTriplesDecoder(r)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := dec.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			if err := l.statement(t); err != nil {
				return err
			}
			res.Triples++
		}
		if err := l.flush(); err != nil {
			return err
		}
		res.Nodes, res.Relationships, res.Namespaces = l.nodes, l.rels, len(l.added)
		return nil
	})
	if err != nil {
		i.log.WithError(err).WithField("triples", res.Triples).Error("import failed")
		return Result{}, fmt.Errorf("ingest: %w", err)
	}
	i.log.WithFields(logrus.Fields{
		"triples":       res.Triples,
		"nodes":         res.Nodes,
		"relationships": res.Relationships,
		"namespaces":    res.Namespaces,
	}).Info("import complete")
	return res, nil
}

// load is the state of one import.
type load struct {
	ctx   context.Context
	w     graph.Writer
	opts  Options
	ns    *namespace.Table
	codec *literal.Codec
	scope string

	ids   map[string]int64
	props map[int64]map[string]graph.Value
	order []int64
	added [][2]string
	seq   int

	nodes, rels int
}

func newLoad(ctx context.Context, w graph.Writer, opts Options) (*load, error) {
	defs, err := w.NodesByLabel(ctx, namespace.DefinitionLabel)
	if err != nil {
		return nil, err
	}
	ns, err := namespace.FromNodes(defs)
	if err != nil {
		return nil, err
	}
	return &load{
		ctx:   ctx,
		w:     w,
		opts:  opts,
		ns:    ns,
		codec: literal.New(ns),
		scope: strings.ReplaceAll(uuid.NewString(), "-", ""),
		ids:   map[string]int64{},
		props: map[int64]map[string]graph.Value{},
	}, nil
}

func (l *load) statement(t rdf.Triple) error {
	subject, err := l.resource(t.S)
	if err != nil {
		return err
	}
	switch o := t.O.(type) {
	case rdf.IRI:
		if t.P == rdf.RDFType {
			return l.w.AddLabels(l.ctx, subject, l.name(o.Value))
		}
		return l.link(subject, t.P, o)
	case rdf.BlankNode:
		return l.link(subject, t.P, o)
	case rdf.Literal:
		if dt := o.Datatype.Value; dt != "" && !strings.HasPrefix(dt, rdf.XSDNamespace) && dt != rdf.RDFNamespace+"langString" {
			l.name(dt)
		}
		l.set(subject, l.name(t.P.Value), l.codec.Decode(o))
		return nil
	default:
		return fmt.Errorf("unsupported object %v", t.O)
	}
}

func (l *load) link(subject int64, p rdf.IRI, o rdf.Term) error {
	object, err := l.resource(o)
	if err != nil {
		return err
	}
	if _, err := l.w.CreateRelationship(l.ctx, l.name(p.Value), subject, object); err != nil {
		return err
	}
	l.rels++
	return nil
}

// resource returns the node id for an IRI or blank node, creating the node
// on first sight. Blank nodes are scoped to this import.
func (l *load) resource(term rdf.Term) (int64, error) {
	var uri string
	labels := []string{graph.LabelResource}
	switch v := term.(type) {
	case rdf.IRI:
		uri = v.Value
	case rdf.BlankNode:
		uri = "genid" + l.scope + "_" + v.ID
		labels = append(labels, graph.LabelBNode)
	default:
		return 0, fmt.Errorf("%v is not a resource", term)
	}
	if id, ok := l.ids[uri]; ok {
		return id, nil
	}
	existing, err := l.w.FindNodes(l.ctx, graph.LabelResource, graph.PropertyURI, graph.String(uri))
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		l.ids[uri] = existing[0].ID
		return existing[0].ID, nil
	}
	n, err := l.w.CreateNode(l.ctx, labels, map[string]graph.Value{graph.PropertyURI: graph.String(uri)})
	if err != nil {
		return 0, err
	}
	l.nodes++
	l.ids[uri] = n.ID
	return n.ID, nil
}

// set records a property value; repeated keys accumulate in statement order.
func (l *load) set(id int64, key string, v graph.Value) {
	props, ok := l.props[id]
	if !ok {
		props = map[string]graph.Value{}
		l.props[id] = props
		l.order = append(l.order, id)
	}
	if prev, ok := props[key]; ok {
		props[key] = graph.List(prev, v)
		return
	}
	props[key] = v
}

// name maps an IRI to the name it is stored under.
func (l *load) name(iri string) string {
	if local, ok := strings.CutPrefix(iri, l.opts.VocabularyNamespace); ok {
		return local
	}
	if short, ok := l.ns.Shorten(iri); ok {
		return short
	}
	ns, local := namespace.Split(iri)
	if ns == "" {
		return iri
	}
	prefix := l.nextPrefix()
	if err := l.ns.Add(prefix, ns); err != nil {
		return iri
	}
	l.added = append(l.added, [2]string{prefix, ns})
	return prefix + namespace.Separator + local
}

func (l *load) nextPrefix() string {
	for {
		p := fmt.Sprintf("ns%d", l.seq)
		l.seq++
		if _, taken := l.ns.Namespace(p); !taken {
			return p
		}
	}
}

// flush writes accumulated properties and saves new namespace bindings.
func (l *load) flush() error {
	for _, id := range l.order {
		props := l.props[id]
		for _, key := range sortedKeys(props) {
			if err := l.w.SetProperty(l.ctx, id, key, props[key]); err != nil {
				return err
			}
		}
	}
	if len(l.added) == 0 {
		return nil
	}
	defs, err := l.w.NodesByLabel(l.ctx, namespace.DefinitionLabel)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		props := make(map[string]graph.Value, len(l.added))
		for _, b := range l.added {
			props[b[1]] = graph.String(b[0])
		}
		_, err := l.w.CreateNode(l.ctx, []string{namespace.DefinitionLabel}, props)
		return err
	}
	for _, b := range l.added {
		if err := l.w.SetProperty(l.ctx, defs[0].ID, b[1], graph.String(b[0])); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]graph.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
