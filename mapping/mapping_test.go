package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/graph/memgraph"
)

func seed(t *testing.T) graph.Session {
	t.Helper()
	ctx := context.Background()
	store := memgraph.New()
	require.NoError(t, store.Update(ctx, func(w graph.Writer) error {
		schema, err := w.CreateNode(ctx, []string{NamespaceLabel}, map[string]graph.Value{
			NamespaceProperty: graph.String("http://schema.org/"),
			PrefixProperty:    graph.String("sch"),
		})
		if err != nil {
			return err
		}
		unprefixed, err := w.CreateNode(ctx, []string{NamespaceLabel}, map[string]graph.Value{
			NamespaceProperty: graph.String("http://ex.org/"),
		})
		if err != nil {
			return err
		}
		defs := []struct {
			key, local string
			ns         int64
		}{
			{"Person", "Person", schema.ID},
			{"name", "fullName", unprefixed.ID},
		}
		for _, d := range defs {
			def, err := w.CreateNode(ctx, []string{DefinitionLabel}, map[string]graph.Value{
				KeyProperty:   graph.String(d.key),
				LocalProperty: graph.String(d.local),
			})
			if err != nil {
				return err
			}
			if _, err := w.CreateRelationship(ctx, InRelationship, def.ID, d.ns); err != nil {
				return err
			}
		}
		_, err = w.CreateNode(ctx, []string{DefinitionLabel}, map[string]graph.Value{
			KeyProperty: graph.String("orphan"),
		})
		return err
	}))
	s, err := store.Session(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad(t *testing.T) {
	s := seed(t)
	tbl, err := Load(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	target, ok := tbl.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "http://ex.org/fullName", target)

	target, ok = tbl.Lookup("Person")
	require.True(t, ok)
	assert.Equal(t, "http://schema.org/Person", target)

	_, ok = tbl.Lookup("orphan")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	tbl := New(map[string]string{"name": "http://ex.org/fullName"})
	base := "neo4j://vocabulary#"

	got, ok := tbl.Resolve(base, "name", true)
	assert.True(t, ok)
	assert.Equal(t, "http://ex.org/fullName", got)

	got, ok = tbl.Resolve(base, "age", false)
	assert.True(t, ok)
	assert.Equal(t, base+"age", got)

	_, ok = tbl.Resolve(base, "age", true)
	assert.False(t, ok)

	var empty *Table
	_, ok = empty.Lookup("name")
	assert.False(t, ok)
	assert.Zero(t, empty.Len())
}

func TestNamespaces(t *testing.T) {
	s := seed(t)
	nss, err := Namespaces(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []Namespace{{Prefix: "sch", Namespace: "http://schema.org/"}}, nss)
}
