package export

import (
	"context"
	"io"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/mapping"
	"github.com/geoknoesis/lpg-rdf/namespace"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

// configuration labels and types describe the export itself, not the data.
var (
	configurationLabels = map[string]bool{
		namespace.DefinitionLabel: true,
		mapping.DefinitionLabel:   true,
		mapping.NamespaceLabel:    true,
	}
	configurationTypes = map[string]bool{
		mapping.InRelationship: true,
	}
)

func isSchemaClass(label string) bool {
	return label != "" && !graph.IsReservedLabel(label) && !configurationLabels[label]
}

// ontology publishes schema statements, dropping duplicates produced by the
// combinatorial relationship descriptors.
type ontology struct {
	*run
	published map[rdf.Triple]struct{}
	name      func(string) (rdf.IRI, error)
	label     func(rdf.IRI, string) string
	relLabels bool
}

func (o *ontology) publish(t rdf.Triple) error {
	if _, ok := o.published[t]; ok {
		return nil
	}
	o.published[t] = struct{}{}
	return o.emit(t)
}

func (o *ontology) export() error {
	schema, err := o.session.Schema(o.ctx)
	if err != nil {
		return err
	}
	for _, l := range schema.Labels {
		if !isSchemaClass(l.Name) {
			continue
		}
		class, err := o.name(l.Name)
		if err != nil {
			return err
		}
		if err := o.publish(rdf.NewTriple(class, rdf.RDFType, rdf.OWLClass)); err != nil {
			return err
		}
		if err := o.publish(rdf.NewTriple(class, rdf.RDFSLabel, rdf.NewLiteral(o.label(class, l.Name)))); err != nil {
			return err
		}
	}
	for _, d := range schema.Relationships {
		if configurationTypes[d.Type] {
			continue
		}
		prop, err := o.name(d.Type)
		if err != nil {
			return err
		}
		if err := o.publish(rdf.NewTriple(prop, rdf.RDFType, rdf.OWLObjectProperty)); err != nil {
			return err
		}
		if o.relLabels {
			if err := o.publish(rdf.NewTriple(prop, rdf.RDFSLabel, rdf.NewLiteral(o.label(prop, d.Type)))); err != nil {
				return err
			}
		}
		if err := o.bound(prop, rdf.RDFSDomain, d.StartLabel); err != nil {
			return err
		}
		if err := o.bound(prop, rdf.RDFSRange, d.EndLabel); err != nil {
			return err
		}
	}
	return nil
}

func (o *ontology) bound(prop, predicate rdf.IRI, label string) error {
	if !isSchemaClass(label) {
		return nil
	}
	class, err := o.name(label)
	if err != nil {
		return err
	}
	return o.publish(rdf.NewTriple(prop, predicate, class))
}

// ExportOntology publishes the store schema in the generic vocabulary: one
// owl:Class per label and one owl:ObjectProperty per relationship type with
// its observed domains and ranges.
func (e *Exporter) ExportOntology(ctx context.Context, out io.Writer, opts Options) error {
	return e.run(ctx, out, "onto", opts, func(r *run) error {
		if err := r.declare(ontologyPrefixes(opts)); err != nil {
			return err
		}
		if err := r.start(); err != nil {
			return err
		}
		o := &ontology{
			run:       r,
			published: map[rdf.Triple]struct{}{},
			name: func(name string) (rdf.IRI, error) {
				return rdf.IRI{Value: opts.vocab() + name}, nil
			},
			label: func(_ rdf.IRI, name string) string { return name },
		}
		return o.export()
	})
}

// ExportRDFOntology publishes the schema of an ingested graph. Class and
// property names are resolved through the namespace table and labelled with
// their local names.
func (e *Exporter) ExportRDFOntology(ctx context.Context, out io.Writer, opts Options) error {
	return e.run(ctx, out, "ontonrdf", opts, func(r *run) error {
		d, err := openIdentity(r)
		if err != nil {
			return err
		}
		o := &ontology{
			run:       r,
			published: map[rdf.Triple]struct{}{},
			name:      d.iri,
			label:     func(iri rdf.IRI, _ string) string { return rdf.LocalName(iri.Value) },
			relLabels: true,
		}
		return o.export()
	})
}
