// Package store provides persistence backends for harmonized triples.
// Backends snapshot the full graph; the engine's in-memory graph stays the
// working copy.
package store

import (
	"context"
	"fmt"

	"github.com/openkg/loom/internal/rdf"
)

// TripleStore persists and restores a harmonized graph snapshot.
type TripleStore interface {
	// Replace overwrites the stored snapshot with the given triples,
	// preserving their order.
	Replace(ctx context.Context, triples []rdf.Triple) error
	// LoadAll returns the stored triples in the order they were saved.
	LoadAll(ctx context.Context) ([]rdf.Triple, error)
	Close(ctx context.Context) error
}

// Term row encoding shared by the SQL and Cypher backends.
const (
	kindIRI     = "iri"
	kindLiteral = "literal"
	kindBNode   = "bnode"
)

func encodeTerm(t rdf.Term) (value, kind, datatype, lang string) {
	switch v := t.(type) {
	case rdf.IRI:
		return v.Value, kindIRI, "", ""
	case rdf.Literal:
		return v.Value, kindLiteral, v.Datatype.Value, v.Lang
	case rdf.BNode:
		return v.ID, kindBNode, "", ""
	default:
		return t.String(), kindLiteral, "", ""
	}
}

func decodeTerm(value, kind, datatype, lang string) (rdf.Term, error) {
	switch kind {
	case kindIRI:
		return rdf.NewIRI(value)
	case kindBNode:
		return rdf.NewBNode(value), nil
	case kindLiteral:
		switch {
		case lang != "":
			return rdf.NewLangLiteral(value, lang), nil
		case datatype != "":
			dt, err := rdf.NewIRI(datatype)
			if err != nil {
				return nil, fmt.Errorf("stored datatype: %w", err)
			}
			return rdf.NewTypedLiteral(value, dt), nil
		default:
			return rdf.NewLiteral(value), nil
		}
	default:
		return nil, fmt.Errorf("unknown term kind %q", kind)
	}
}
