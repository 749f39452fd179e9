package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_SetSemantics(t *testing.T) {
	g := NewGraph()
	s := MustIRI("http://example.org/s")
	p := MustIRI("http://example.org/p")

	added, err := g.Add(Triple{Subject: s, Predicate: p, Object: NewLiteral("v")})
	require.NoError(t, err)
	assert.True(t, added)

	// Same triple again is a no-op.
	added, err = g.Add(Triple{Subject: s, Predicate: p, Object: NewLiteral("v")})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, g.Len())
}

func TestGraph_RejectsLiteralSubject(t *testing.T) {
	g := NewGraph()
	_, err := g.Add(Triple{
		Subject:   NewLiteral("nope"),
		Predicate: MustIRI("http://example.org/p"),
		Object:    NewLiteral("v"),
	})
	assert.ErrorIs(t, err, ErrBadSubject)
}

func TestGraph_ObjectsAndSubjects(t *testing.T) {
	g := NewGraph()
	s := MustIRI("http://example.org/s")
	p := MustIRI("http://example.org/p")
	g.MustAdd(Triple{Subject: s, Predicate: p, Object: NewLiteral("a")})
	g.MustAdd(Triple{Subject: s, Predicate: p, Object: NewLiteral("b")})
	g.MustAdd(Triple{Subject: s, Predicate: MustIRI("http://example.org/q"), Object: NewLiteral("c")})

	objs := g.Objects(s, p)
	require.Len(t, objs, 2)
	assert.Equal(t, NewLiteral("a"), objs[0]) // insertion order
	assert.Equal(t, NewLiteral("b"), objs[1])

	subs := g.Subjects(p, NewLiteral("a"))
	require.Len(t, subs, 1)
	assert.Equal(t, s, subs[0])
}

func TestGraph_RemovePreservesOrder(t *testing.T) {
	g := NewGraph()
	s := MustIRI("http://example.org/s")
	p := MustIRI("http://example.org/p")
	for _, v := range []string{"a", "b", "c"} {
		g.MustAdd(Triple{Subject: s, Predicate: p, Object: NewLiteral(v)})
	}

	removed := g.Remove(Triple{Subject: s, Predicate: p, Object: NewLiteral("b")})
	assert.True(t, removed)
	assert.Equal(t, 2, g.Len())

	objs := g.Objects(s, p)
	require.Len(t, objs, 2)
	assert.Equal(t, NewLiteral("a"), objs[0])
	assert.Equal(t, NewLiteral("c"), objs[1])

	// Removing again reports absence.
	assert.False(t, g.Remove(Triple{Subject: s, Predicate: p, Object: NewLiteral("b")}))
}

func TestGraph_ClassSet(t *testing.T) {
	g := NewGraph()
	person := MustIRI("http://example.org/Person")
	g.MustAdd(Triple{Subject: MustIRI("http://example.org/alice"), Predicate: RDFType, Object: person})
	g.MustAdd(Triple{Subject: MustIRI("http://example.org/bob"), Predicate: RDFType, Object: person})
	// Literal-typed objects are not classes.
	g.MustAdd(Triple{Subject: MustIRI("http://example.org/x"), Predicate: RDFType, Object: NewLiteral("junk")})

	classes := g.ClassSet()
	require.Len(t, classes, 1)
	assert.Equal(t, person, classes[0])
}

func TestNewIRI_Validation(t *testing.T) {
	_, err := NewIRI("")
	assert.ErrorIs(t, err, ErrBadIRI)

	_, err = NewIRI("http://example.org/has space")
	assert.ErrorIs(t, err, ErrBadIRI)

	_, err = NewIRI("http://example.org/ok#frag")
	assert.NoError(t, err)
}

func TestIRI_LocalName(t *testing.T) {
	assert.Equal(t, "label", MustIRI("http://www.w3.org/2000/01/rdf-schema#label").LocalName())
	assert.Equal(t, "orderDate", MustIRI("http://example.org/vocab/orderDate").LocalName())
}
