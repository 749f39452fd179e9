// Package rdf implements the RDF 1.1 data model used across the platform:
// terms, triples, an in-memory graph, and Turtle / N-Triples codecs.
package rdf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadIRI is returned when a string cannot be used as an IRI.
var ErrBadIRI = errors.New("malformed IRI")

type TermKind int

const (
	KindIRI TermKind = iota
	KindLiteral
	KindBNode
)

// Term is an RDF term: IRI, literal, or blank node.
// String returns the N-Triples serialization of the term.
type Term interface {
	Kind() TermKind
	String() string
	Equal(other Term) bool
}

// IRI is an absolute IRI reference.
type IRI struct {
	Value string
}

// NewIRI validates s as an IRI. Validation is deliberately shallow
// (rdflib-style): empty strings, whitespace and characters that cannot
// appear in an IRI reference are rejected, everything else is accepted.
func NewIRI(s string) (IRI, error) {
	if s == "" {
		return IRI{}, fmt.Errorf("%w: empty string", ErrBadIRI)
	}
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|\\^`", r) {
			return IRI{}, fmt.Errorf("%w: %q", ErrBadIRI, s)
		}
	}
	return IRI{Value: s}, nil
}

// MustIRI is NewIRI for IRIs known to be valid at compile time.
func MustIRI(s string) IRI {
	iri, err := NewIRI(s)
	if err != nil {
		panic(err)
	}
	return iri
}

func (i IRI) Kind() TermKind { return KindIRI }

func (i IRI) String() string { return "<" + i.Value + ">" }

func (i IRI) Equal(other Term) bool {
	o, ok := other.(IRI)
	return ok && o.Value == i.Value
}

// LocalName returns the fragment after the last '#' or '/', or the whole
// IRI when it has neither.
func (i IRI) LocalName() string {
	if idx := strings.LastIndexAny(i.Value, "#/"); idx >= 0 && idx < len(i.Value)-1 {
		return i.Value[idx+1:]
	}
	return i.Value
}

// Literal is an RDF literal. A zero Datatype means a plain literal;
// Lang is only meaningful when Datatype is zero or rdf:langString.
type Literal struct {
	Value    string
	Datatype IRI
	Lang     string
}

// NewLiteral returns a plain (untyped) literal.
func NewLiteral(value string) Literal {
	return Literal{Value: value}
}

// NewTypedLiteral returns a literal with an explicit datatype.
func NewTypedLiteral(value string, datatype IRI) Literal {
	return Literal{Value: value, Datatype: datatype}
}

// NewLangLiteral returns a language-tagged literal.
func NewLangLiteral(value, lang string) Literal {
	return Literal{Value: value, Lang: lang}
}

func (l Literal) Kind() TermKind { return KindLiteral }

func (l Literal) String() string {
	s := `"` + escapeLiteral(l.Value) + `"`
	if l.Lang != "" {
		return s + "@" + l.Lang
	}
	if l.Datatype.Value != "" {
		return s + "^^" + l.Datatype.String()
	}
	return s
}

func (l Literal) Equal(other Term) bool {
	o, ok := other.(Literal)
	return ok && o == l
}

// BNode is a blank node with a document-scoped label.
type BNode struct {
	ID string
}

func NewBNode(id string) BNode { return BNode{ID: id} }

func (b BNode) Kind() TermKind { return KindBNode }

func (b BNode) String() string { return "_:" + b.ID }

func (b BNode) Equal(other Term) bool {
	o, ok := other.(BNode)
	return ok && o.ID == b.ID
}

// Triple is an atomic (subject, predicate, object) fact.
// Subject must be an IRI or BNode; the graph enforces this on Add.
type Triple struct {
	Subject   Term
	Predicate IRI
	Object    Term
}

func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

func (t Triple) key() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String()
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
