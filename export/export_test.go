package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/graph/memgraph"
	"github.com/geoknoesis/lpg-rdf/mapping"
	"github.com/geoknoesis/lpg-rdf/namespace"
	"github.com/geoknoesis/lpg-rdf/rdf"
)

func quietLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func ntriples() Options {
	opts := DefaultOptions()
	opts.Format = "N-Triples"
	return opts
}

func parse(t *testing.T, out string) []rdf.Triple {
	t.Helper()
	dec := rdf.NewNTriplesDecoder(strings.NewReader(out))
	var triples []rdf.Triple
	for {
		tr, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return triples
		}
		require.NoError(t, err)
		triples = append(triples, tr)
	}
}

func iri(s string) rdf.IRI { return rdf.IRI{Value: s} }

func vocab(name string) rdf.IRI { return iri(VocabularyNamespace + name) }

func individual(id int64) rdf.IRI {
	return iri(IndividualsNamespace + strconv.FormatInt(id, 10))
}

// returnAll registers a query answering with one row per value.
func returnAll(store *memgraph.Store, text string, values ...any) {
	store.Register(text, func(context.Context, graph.Session, map[string]any) (graph.Rows, error) {
		rows := make([]graph.Row, len(values))
		for i, v := range values {
			rows[i] = graph.Row{{Name: "x", Value: v}}
		}
		return graph.SliceRows(rows), nil
	})
}

func mustUpdate(t *testing.T, store *memgraph.Store, fn func(ctx context.Context, w graph.Writer) error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, func(w graph.Writer) error { return fn(ctx, w) }))
}

func TestIdentityModeScenario(t *testing.T) {
	store := memgraph.New()
	var person graph.Node
	mustUpdate(t, store, func(ctx context.Context, w graph.Writer) error {
		var err error
		person, err = w.CreateNode(ctx, []string{"Person", graph.LabelResource}, map[string]graph.Value{
			"uri":  graph.String("http://ex.org/p1"),
			"name": graph.String("Ann"),
			"age":  graph.Integer(30),
		})
		return err
	})
	returnAll(store, "MATCH (n) RETURN n", person)

	var out bytes.Buffer
	err := New(store, WithLogger(quietLogger())).ExportQueryOnRDF(context.Background(), &out, "MATCH (n) RETURN n", ntriples())
	require.NoError(t, err)

	p1 := iri("http://ex.org/p1")
	assert.ElementsMatch(t, []rdf.Triple{
		rdf.NewTriple(p1, rdf.RDFType, vocab("Person")),
		rdf.NewTriple(p1, vocab("name"), rdf.NewLiteral("Ann")),
		rdf.NewTriple(p1, vocab("age"), rdf.NewTypedLiteral("30", rdf.XSDInteger)),
	}, parse(t, out.String()))
}

func TestIdentityModeResolvesPrefixesAndBlankNodes(t *testing.T) {
	store := memgraph.New()
	var a, b graph.Node
	var rel graph.Relationship
	mustUpdate(t, store, func(ctx context.Context, w graph.Writer) error {
		if _, err := w.CreateNode(ctx, []string{namespace.DefinitionLabel}, map[string]graph.Value{
			"http://schema.org/": graph.String("sch"),
			rdf.XSDNamespace:     graph.String("xsd"),
		}); err != nil {
			return err
		}
		var err error
		a, err = w.CreateNode(ctx, []string{"sch:Person", graph.LabelResource, graph.LabelURI}, map[string]graph.Value{
			"uri":          graph.String("http://ex.org/a"),
			"sch:nickname": graph.List(graph.String("Annie@en"), graph.String("A1§§xsd:token")),
		})
		if err != nil {
			return err
		}
		b, err = w.CreateNode(ctx, []string{graph.LabelResource, graph.LabelBNode}, map[string]graph.Value{
			"uri": graph.String("genid42"),
		})
		if err != nil {
			return err
		}
		rel, err = w.CreateRelationship(ctx, "sch:knows", a.ID, b.ID)
		return err
	})
	returnAll(store, "q", graph.Path{Nodes: []graph.Node{a, b}, Relationships: []graph.Relationship{rel}})

	var out bytes.Buffer
	require.NoError(t, New(store, WithLogger(quietLogger())).ExportQueryOnRDF(context.Background(), &out, "q", ntriples()))

	ea := iri("http://ex.org/a")
	assert.ElementsMatch(t, []rdf.Triple{
		rdf.NewTriple(ea, rdf.RDFType, iri("http://schema.org/Person")),
		rdf.NewTriple(ea, iri("http://schema.org/nickname"), rdf.NewLangLiteral("Annie", "en")),
		rdf.NewTriple(ea, iri("http://schema.org/nickname"), rdf.NewTypedLiteral("A1", iri(rdf.XSDNamespace+"token"))),
		rdf.NewTriple(ea, iri("http://schema.org/knows"), rdf.BlankNode{ID: "genid42"}),
	}, parse(t, out.String()))
}

func TestIdentityModeMissingPrefix(t *testing.T) {
	store := memgraph.New()
	var n graph.Node
	mustUpdate(t, store, func(ctx context.Context, w graph.Writer) error {
		var err error
		n, err = w.CreateNode(ctx, []string{"ex2:Thing", graph.LabelResource}, map[string]graph.Value{
			"uri": graph.String("http://ex.org/t"),
		})
		return err
	})
	returnAll(store, "q", n)

	var out bytes.Buffer
	opts := DefaultOptions()
	err := New(store, WithLogger(quietLogger())).ExportQueryOnRDF(context.Background(), &out, "q", opts)
	require.ErrorIs(t, err, namespace.ErrMissingPrefix)
	assert.Equal(t, ErrCodeConfiguration, Code(err))
	assert.Contains(t, out.String(), `# namespace: no namespace defined for prefix "ex2"`)
	assert.Contains(t, out.String(), "@prefix owl:")
}

func TestDedupWithinOneCall(t *testing.T) {
	store := memgraph.New()
	var ann, bob graph.Node
	var knows graph.Relationship
	mustUpdate(t, store, func(ctx context.Context, w graph.Writer) error {
		var err error
		if ann, err = w.CreateNode(ctx, []string{"Person"}, map[string]graph.Value{"name": graph.String("Ann")}); err != nil {
			return err
		}
		if bob, err = w.CreateNode(ctx, []string{"Person"}, nil); err != nil {
			return err
		}
		knows, err = w.CreateRelationship(ctx, "KNOWS", ann.ID, bob.ID)
		return err
	})
	path := graph.Path{Nodes: []graph.Node{ann, bob}, Relationships: []graph.Relationship{knows}}
	returnAll(store, "q", ann, path, ann, knows)

	var out bytes.Buffer
	require.NoError(t, New(store, WithLogger(quietLogger())).ExportQuery(context.Background(), &out, "q", ntriples()))

	counts := map[rdf.Triple]int{}
	for _, tr := range parse(t, out.String()) {
		counts[tr]++
	}
	assert.Equal(t, 1, counts[rdf.NewTriple(individual(ann.ID), rdf.RDFType, vocab("Person"))])
	assert.Equal(t, 1, counts[rdf.NewTriple(individual(ann.ID), vocab("name"), rdf.NewLiteral("Ann"))])
	assert.Equal(t, 1, counts[rdf.NewTriple(individual(bob.ID), rdf.RDFType, vocab("Person"))])
	assert.GreaterOrEqual(t, counts[rdf.NewTriple(individual(ann.ID), vocab("KNOWS"), individual(bob.ID))], 1)
}

func seedMapped(t *testing.T) (*memgraph.Store, graph.Node) {
	t.Helper()
	store := memgraph.New()
	var person graph.Node
	mustUpdate(t, store, func(ctx context.Context, w graph.Writer) error {
		ns, err := w.CreateNode(ctx, []string{mapping.NamespaceLabel}, map[string]graph.Value{
			mapping.NamespaceProperty: graph.String("http://ex.org/"),
			mapping.PrefixProperty:    graph.String("ex"),
		})
		if err != nil {
			return err
		}
		def, err := w.CreateNode(ctx, []string{mapping.DefinitionLabel}, map[string]graph.Value{
			mapping.KeyProperty:   graph.String("name"),
			mapping.LocalProperty: graph.String("fullName"),
		})
		if err != nil {
			return err
		}
		if _, err := w.CreateRelationship(ctx, mapping.InRelationship, def.ID, ns.ID); err != nil {
			return err
		}
		person, err = w.CreateNode(ctx, []string{"Person"}, map[string]graph.Value{
			"name": graph.String("Ann"),
			"age":  graph.Integer(30),
		})
		if err != nil {
			return err
		}
		friend, err := w.CreateNode(ctx, []string{"Person"}, nil)
		if err != nil {
			return err
		}
		_, err = w.CreateRelationship(ctx, "KNOWS", person.ID, friend.ID)
		return err
	})
	return store, person
}

func TestMappedElementsOnly(t *testing.T) {
	store, person := seedMapped(t)
	returnAll(store, "q", person)

	opts := ntriples()
	opts.MappedElemsOnly = true
	var out bytes.Buffer
	require.NoError(t, New(store, WithLogger(quietLogger())).ExportQuery(context.Background(), &out, "q", opts))
	assert.Equal(t, []rdf.Triple{
		rdf.NewTriple(individual(person.ID), iri("http://ex.org/fullName"), rdf.NewLiteral("Ann")),
	}, parse(t, out.String()))
}

func TestMappingOverridesWithoutFilter(t *testing.T) {
	store, person := seedMapped(t)
	returnAll(store, "q", person)

	opts := DefaultOptions()
	var out bytes.Buffer
	require.NoError(t, New(store, WithLogger(quietLogger())).ExportQuery(context.Background(), &out, "q", opts))
	doc := out.String()
	assert.Contains(t, doc, "@prefix ex: <http://ex.org/> .")
	assert.Contains(t, doc, "@prefix neoind: <neo4j://individuals#> .")
	assert.Contains(t, doc, "ex:fullName \"Ann\"")
	assert.Contains(t, doc, "neovoc:age \"30\"^^<http://www.w3.org/2001/XMLSchema#integer>")
	assert.Contains(t, doc, " a neovoc:Person .")
}

func TestDescribeByID(t *testing.T) {
	store, person := seedMapped(t)
	exp := New(store, WithLogger(quietLogger()))

	var out bytes.Buffer
	require.NoError(t, exp.DescribeByID(context.Background(), &out, person.ID, ntriples()))
	triples := parse(t, out.String())
	assert.Contains(t, triples, rdf.NewTriple(individual(person.ID), vocab("KNOWS"), individual(person.ID+1)))
	assert.Len(t, triples, 4)

	opts := ntriples()
	opts.ExcludeContext = true
	out.Reset()
	require.NoError(t, exp.DescribeByID(context.Background(), &out, person.ID, opts))
	assert.Len(t, parse(t, out.String()), 3)
}

func TestDescribeByIDNotFound(t *testing.T) {
	store, _ := seedMapped(t)
	var out bytes.Buffer
	err := New(store, WithLogger(quietLogger())).DescribeByID(context.Background(), &out, 999, DefaultOptions())
	require.ErrorIs(t, err, graph.ErrNotFound)
	assert.Equal(t, ErrCodeNotFound, Code(err))
	assert.Contains(t, out.String(), "# graph: not found: node 999")
}

func TestFind(t *testing.T) {
	store, person := seedMapped(t)
	exp := New(store, WithLogger(quietLogger()))
	opts := ntriples()
	opts.ExcludeContext = true

	var out bytes.Buffer
	require.NoError(t, exp.Find(context.Background(), &out, FindRequest{
		Label: "Person", Property: "age", Value: "30", ValType: "INTEGER",
	}, opts))
	assert.Contains(t, parse(t, out.String()), rdf.NewTriple(individual(person.ID), vocab("age"), rdf.NewTypedLiteral("30", rdf.XSDInteger)))

	out.Reset()
	err := exp.Find(context.Background(), &out, FindRequest{Label: "Person", Property: "age", Value: "30"}, opts)
	assert.ErrorIs(t, err, graph.ErrNotFound)

	out.Reset()
	err = exp.Find(context.Background(), &out, FindRequest{Label: "Person", Property: "age", Value: "thirty", ValType: "INTEGER"}, opts)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, ErrCodeInvalidRequest, Code(err))
}

func TestFindValueTypes(t *testing.T) {
	v, err := FindRequest{Value: "2.5", ValType: "FLOAT"}.value()
	require.NoError(t, err)
	assert.True(t, graph.Float(2.5).Equal(v))

	v, err = FindRequest{Value: "TRUE", ValType: "boolean"}.value()
	require.NoError(t, err)
	assert.True(t, graph.Boolean(true).Equal(v))

	v, err = FindRequest{Value: "yes", ValType: "BOOLEAN"}.value()
	require.NoError(t, err)
	assert.True(t, graph.Boolean(false).Equal(v))
}

func TestDescribeByURI(t *testing.T) {
	store := memgraph.New()
	mustUpdate(t, store, func(ctx context.Context, w graph.Writer) error {
		a, err := w.CreateNode(ctx, []string{"Person", graph.LabelResource}, map[string]graph.Value{
			"uri": graph.String("http://ex.org/a"), "name": graph.String("A"),
		})
		if err != nil {
			return err
		}
		b, err := w.CreateNode(ctx, []string{graph.LabelResource}, map[string]graph.Value{"uri": graph.String("http://ex.org/b")})
		if err != nil {
			return err
		}
		plain, err := w.CreateNode(ctx, []string{"Note"}, nil)
		if err != nil {
			return err
		}
		if _, err := w.CreateRelationship(ctx, "knows", b.ID, a.ID); err != nil {
			return err
		}
		_, err = w.CreateRelationship(ctx, "noted", a.ID, plain.ID)
		return err
	})
	exp := New(store, WithLogger(quietLogger()))

	var out bytes.Buffer
	require.NoError(t, exp.DescribeByURI(context.Background(), &out, "http://ex.org/a", ntriples()))
	assert.ElementsMatch(t, []rdf.Triple{
		rdf.NewTriple(iri("http://ex.org/a"), rdf.RDFType, vocab("Person")),
		rdf.NewTriple(iri("http://ex.org/a"), vocab("name"), rdf.NewLiteral("A")),
		rdf.NewTriple(iri("http://ex.org/b"), vocab("knows"), iri("http://ex.org/a")),
	}, parse(t, out.String()))

	out.Reset()
	err := exp.DescribeByURI(context.Background(), &out, "http://ex.org/missing", ntriples())
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestConcurrentExportsAreIndependent(t *testing.T) {
	store, person := seedMapped(t)
	returnAll(store, "q", person)
	exp := New(store, WithLogger(quietLogger()))

	var want bytes.Buffer
	require.NoError(t, exp.ExportQuery(context.Background(), &want, "q", DefaultOptions()))

	results := make([]bytes.Buffer, 8)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range results {
		buf := &results[i]
		g.Go(func() error {
			return exp.ExportQuery(ctx, buf, "q", DefaultOptions())
		})
	}
	require.NoError(t, g.Wait())
	for i := range results {
		assert.Equal(t, want.String(), results[i].String())
	}
}

func TestJSONLDExport(t *testing.T) {
	store, person := seedMapped(t)
	returnAll(store, "q", person)
	opts := DefaultOptions()
	opts.Accept = "application/ld+json"

	var out bytes.Buffer
	require.NoError(t, New(store, WithLogger(quietLogger())).ExportQuery(context.Background(), &out, "q", opts))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Contains(t, doc, "@context")
	assert.Contains(t, out.String(), "ex:fullName")
}

func TestUnknownQueryIsReportedInDocument(t *testing.T) {
	store := memgraph.New()
	var out bytes.Buffer
	err := New(store, WithLogger(quietLogger())).ExportQuery(context.Background(), &out, "nope", ntriples())
	require.Error(t, err)
	assert.Equal(t, ErrCodeSerialization, Code(err))
	assert.Contains(t, out.String(), "# memgraph: no handler registered")
}

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{
		"cypher":          "MATCH (n) RETURN n",
		"mappedElemsOnly": "true",
		"excludeContext":  true,
		"format":          "RDF/XML",
		"cypherParams":    map[string]any{"id": 3},
	})
	require.NoError(t, err)
	assert.True(t, opts.MappedElemsOnly)
	assert.True(t, opts.ExcludeContext)
	assert.Equal(t, VocabularyNamespace, opts.VocabularyNamespace)
	assert.Equal(t, 3, opts.CypherParams["id"])
	format, source := opts.Negotiate()
	assert.Equal(t, rdf.FormatRDFXML, format)
	assert.Equal(t, rdf.FromParam, source)

	_, err = DecodeOptions(map[string]any{"excludeContext": map[string]any{"on": 1}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestExportOntology(t *testing.T) {
	store, _ := seedMapped(t)
	var out bytes.Buffer
	require.NoError(t, New(store, WithLogger(quietLogger())).ExportOntology(context.Background(), &out, ntriples()))

	assert.ElementsMatch(t, []rdf.Triple{
		rdf.NewTriple(vocab("Person"), rdf.RDFType, rdf.OWLClass),
		rdf.NewTriple(vocab("Person"), rdf.RDFSLabel, rdf.NewLiteral("Person")),
		rdf.NewTriple(vocab("KNOWS"), rdf.RDFType, rdf.OWLObjectProperty),
		rdf.NewTriple(vocab("KNOWS"), rdf.RDFSDomain, vocab("Person")),
		rdf.NewTriple(vocab("KNOWS"), rdf.RDFSRange, vocab("Person")),
	}, parse(t, out.String()))
}

func TestExportRDFOntology(t *testing.T) {
	store := memgraph.New()
	mustUpdate(t, store, func(ctx context.Context, w graph.Writer) error {
		if _, err := w.CreateNode(ctx, []string{namespace.DefinitionLabel}, map[string]graph.Value{
			"http://schema.org/": graph.String("sch"),
		}); err != nil {
			return err
		}
		var ids []int64
		for _, uri := range []string{"http://ex.org/a", "http://ex.org/b"} {
			n, err := w.CreateNode(ctx, []string{"sch:Person", graph.LabelResource}, map[string]graph.Value{
				"uri": graph.String(uri),
			})
			if err != nil {
				return err
			}
			ids = append(ids, n.ID)
		}
		for i := 0; i < 2; i++ {
			if _, err := w.CreateRelationship(ctx, "sch:knows", ids[0], ids[1]); err != nil {
				return err
			}
		}
		return nil
	})

	var out bytes.Buffer
	require.NoError(t, New(store, WithLogger(quietLogger())).ExportRDFOntology(context.Background(), &out, ntriples()))

	person, knows := iri("http://schema.org/Person"), iri("http://schema.org/knows")
	assert.ElementsMatch(t, []rdf.Triple{
		rdf.NewTriple(person, rdf.RDFType, rdf.OWLClass),
		rdf.NewTriple(person, rdf.RDFSLabel, rdf.NewLiteral("Person")),
		rdf.NewTriple(knows, rdf.RDFType, rdf.OWLObjectProperty),
		rdf.NewTriple(knows, rdf.RDFSLabel, rdf.NewLiteral("knows")),
		rdf.NewTriple(knows, rdf.RDFSDomain, person),
		rdf.NewTriple(knows, rdf.RDFSRange, person),
	}, parse(t, out.String()))
}
