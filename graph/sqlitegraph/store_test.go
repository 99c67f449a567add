package sqlitegraph

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/lpg-rdf/graph"
)

type fixture struct {
	store          *Store
	ann, bob, acme int64
	knows          int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := Open(ctx, filepath.Join(t.TempDir(), "graph.db"), WithLogger(logrus.NewEntry(log)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := fixture{store: store}
	err = store.Update(ctx, func(w graph.Writer) error {
		ann, err := w.CreateNode(ctx, []string{"Person"}, map[string]graph.Value{
			"name": graph.String("Ann"),
			"age":  graph.Integer(30),
			"tags": graph.List(graph.String("a"), graph.String("b")),
		})
		if err != nil {
			return err
		}
		bob, err := w.CreateNode(ctx, []string{"Person", "Employee"}, map[string]graph.Value{"name": graph.String("Bob")})
		if err != nil {
			return err
		}
		acme, err := w.CreateNode(ctx, []string{"Company"}, nil)
		if err != nil {
			return err
		}
		knows, err := w.CreateRelationship(ctx, "KNOWS", ann.ID, bob.ID)
		if err != nil {
			return err
		}
		if _, err := w.CreateRelationship(ctx, "WORKS_AT", bob.ID, acme.ID); err != nil {
			return err
		}
		f.ann, f.bob, f.acme, f.knows = ann.ID, bob.ID, acme.ID, knows.ID
		return nil
	})
	require.NoError(t, err)
	return f
}

func (f fixture) session(t *testing.T) graph.Session {
	t.Helper()
	s, err := f.store.Session(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNodeRoundTrip(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)
	ctx := context.Background()

	ann, err := s.Node(ctx, f.ann)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, ann.Labels)
	assert.True(t, graph.Integer(30).Equal(ann.Properties["age"]))
	assert.True(t, graph.List(graph.String("a"), graph.String("b")).Equal(ann.Properties["tags"]))

	bob, err := s.Node(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person", "Employee"}, bob.Labels)

	_, err = s.Node(ctx, 999)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestFindNodes(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)
	ctx := context.Background()

	found, err := s.FindNodes(ctx, "Person", "age", graph.Integer(30))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.ann, found[0].ID)

	found, err = s.FindNodes(ctx, "Person", "age", graph.String("30"))
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.FindNodes(ctx, "", "name", graph.String("Bob"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.bob, found[0].ID)

	found, err = s.FindNodes(ctx, "Company", "name", graph.String("Bob"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRelationshipsByDirection(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)
	ctx := context.Background()

	all, err := s.Relationships(ctx, f.bob, graph.Both)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, f.ann, all[0].Node.ID)
	assert.Equal(t, f.acme, all[1].Node.ID)

	out, err := s.Relationships(ctx, f.bob, graph.Outgoing)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "WORKS_AT", out[0].Relationship.Type)

	in, err := s.Relationships(ctx, f.bob, graph.Incoming, "KNOWS", "LIKES")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, f.ann, in[0].Relationship.StartID)

	none, err := s.Relationships(ctx, f.bob, graph.Both, "LIKES")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.Relationships(ctx, 999, graph.Both)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestMatchUnion(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)
	ctx := context.Background()

	it, err := s.Match(ctx, graph.NewMatch().Labelled("Company").Labelled("Employee").LinkedTo("KNOWS", f.bob))
	require.NoError(t, err)
	nodes, err := graph.CollectNodes(it)
	require.NoError(t, err)
	var ids []int64
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{f.ann, f.bob, f.acme}, ids)

	it, err = s.Match(ctx, graph.NewMatch())
	require.NoError(t, err)
	nodes, err = graph.CollectNodes(it)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestSchemaIsCombinatorial(t *testing.T) {
	f := newFixture(t)
	schema, err := f.session(t).Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []graph.LabelDescriptor{{Name: "Company"}, {Name: "Employee"}, {Name: "Person"}}, schema.Labels)
	assert.Equal(t, []graph.RelationshipDescriptor{
		{Type: "KNOWS", StartLabel: "Person", EndLabel: "Employee"},
		{Type: "KNOWS", StartLabel: "Person", EndLabel: "Person"},
		{Type: "WORKS_AT", StartLabel: "Employee", EndLabel: "Company"},
		{Type: "WORKS_AT", StartLabel: "Person", EndLabel: "Company"},
	}, schema.Relationships)
}

func TestExecuteTypedColumns(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)
	ctx := context.Background()

	rows, err := s.Execute(ctx, graph.Query{
		Text: `SELECT r.start_id AS "a@node", r.id AS "r@rel",
			json_array(r.start_id, r.id, r.end_id) AS "p@path", r.type AS kind
			FROM rels r WHERE r.type = :type`,
		Params: map[string]any{"type": graph.String("KNOWS")},
	})
	require.NoError(t, err)
	defer rows.Close()

	row, err := rows.Next()
	require.NoError(t, err)
	a, ok := row.Get("a")
	require.True(t, ok)
	assert.Equal(t, f.ann, a.(graph.Node).ID)
	r, _ := row.Get("r")
	assert.Equal(t, graph.Relationship{ID: f.knows, Type: "KNOWS", StartID: f.ann, EndID: f.bob}, r)
	p, _ := row.Get("p")
	path := p.(graph.Path)
	require.Len(t, path.Nodes, 2)
	assert.Equal(t, f.bob, path.Nodes[1].ID)
	assert.Len(t, path.Relationships, 1)
	kind, _ := row.Get("kind")
	assert.True(t, graph.String("KNOWS").Equal(kind.(graph.Value)))

	_, err = rows.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestFailedUpdateRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := f.store.Update(ctx, func(w graph.Writer) error {
		if err := w.AddLabels(ctx, f.acme, "Startup"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acme, err := f.session(t).Node(ctx, f.acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"Company"}, acme.Labels)
}

func TestWriterUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Update(ctx, func(w graph.Writer) error {
		if err := w.AddLabels(ctx, f.acme, "Startup", "Company"); err != nil {
			return err
		}
		if err := w.SetProperty(ctx, f.ann, "age", graph.Integer(31)); err != nil {
			return err
		}
		if _, err := w.CreateRelationship(ctx, "KNOWS", f.ann, 999); !errors.Is(err, graph.ErrNotFound) {
			return errors.New("expected not found")
		}
		people, err := w.NodesByLabel(ctx, "Person")
		if err != nil {
			return err
		}
		if len(people) != 2 {
			return errors.New("expected two people")
		}
		return nil
	}))

	s := f.session(t)
	acme, err := s.Node(ctx, f.acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"Company", "Startup"}, acme.Labels)
	ann, err := s.Node(ctx, f.ann)
	require.NoError(t, err)
	assert.True(t, graph.Integer(31).Equal(ann.Properties["age"]))
}

func TestSessionClose(t *testing.T) {
	f := newFixture(t)
	s, err := f.store.Session(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Node(context.Background(), f.ann)
	assert.Error(t, err)
}

func TestSessionReadsStableSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	people := func(s graph.Session) int {
		it, err := s.Match(ctx, graph.NewMatch().Labelled("Person"))
		require.NoError(t, err)
		nodes, err := graph.CollectNodes(it)
		require.NoError(t, err)
		return len(nodes)
	}

	s := f.session(t)
	require.Equal(t, 2, people(s))
	require.NoError(t, f.store.Update(ctx, func(w graph.Writer) error {
		_, err := w.CreateNode(ctx, []string{"Person"}, map[string]graph.Value{"name": graph.String("Cy")})
		return err
	}))
	assert.Equal(t, 2, people(s))
	assert.Equal(t, 3, people(f.session(t)))
}
