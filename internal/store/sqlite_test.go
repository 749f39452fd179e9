package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkg/loom/internal/rdf"
)

func testTriples() []rdf.Triple {
	entity := rdf.MustIRI("http://target.example.org/entity_1")
	return []rdf.Triple{
		{Subject: entity, Predicate: rdf.RDFType, Object: rdf.MustIRI("http://target.example.org/Person")},
		{Subject: entity, Predicate: rdf.RDFSLabel, Object: rdf.NewLangLiteral("Alice", "en")},
		{Subject: entity, Predicate: rdf.MustIRI("http://target.example.org/age"), Object: rdf.NewTypedLiteral("30", rdf.XSDInteger)},
		{Subject: entity, Predicate: rdf.PROVWasGeneratedBy, Object: rdf.NewBNode("b0")},
		{Subject: rdf.NewBNode("b0"), Predicate: rdf.RDFType, Object: rdf.PROVActivity},
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "loom.db"))
	require.NoError(t, err)
	ctx := context.Background()
	defer s.Close(ctx)

	triples := testTriples()
	require.NoError(t, s.Replace(ctx, triples))

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(triples))
	// Order and term fidelity survive the round trip.
	for i := range triples {
		assert.Equal(t, triples[i], loaded[i])
	}
}

func TestSQLiteStore_ReplaceOverwrites(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "loom.db"))
	require.NoError(t, err)
	ctx := context.Background()
	defer s.Close(ctx)

	require.NoError(t, s.Replace(ctx, testTriples()))
	require.NoError(t, s.Replace(ctx, testTriples()[:2]))

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestSQLiteStore_EmptySnapshot(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "loom.db"))
	require.NoError(t, err)
	ctx := context.Background()
	defer s.Close(ctx)

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Replace(ctx, testTriples()))
	loaded, err := m.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, testTriples(), loaded)
}

func TestTermEncoding(t *testing.T) {
	for _, term := range []rdf.Term{
		rdf.MustIRI("http://example.org/x"),
		rdf.NewLiteral("plain"),
		rdf.NewLangLiteral("hallo", "de"),
		rdf.NewTypedLiteral("1.5", rdf.XSDDecimal),
		rdf.NewBNode("b1"),
	} {
		value, kind, datatype, lang := encodeTerm(term)
		back, err := decodeTerm(value, kind, datatype, lang)
		require.NoError(t, err)
		assert.Equal(t, term, back)
	}
}
