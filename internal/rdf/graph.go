package rdf

import (
	"errors"
	"fmt"
)

// ErrBadSubject is returned when a triple's subject is a literal.
var ErrBadSubject = errors.New("triple subject must be an IRI or blank node")

// Graph is a mutable, insertion-ordered set of triples. Adding a duplicate
// triple is a no-op. Iteration order is the order triples were first added,
// which downstream code relies on for deterministic conflict resolution.
//
// Graph is not safe for concurrent use; callers serialize access.
type Graph struct {
	triples   []Triple
	seen      map[string]struct{}
	bySubject map[string][]int // subject key -> positions in triples
	removed   int
}

func NewGraph() *Graph {
	return &Graph{
		seen:      make(map[string]struct{}),
		bySubject: make(map[string][]int),
	}
}

// Add inserts a triple, returning true if the graph did not already
// contain it.
func (g *Graph) Add(t Triple) (bool, error) {
	if t.Subject == nil || t.Object == nil {
		return false, fmt.Errorf("triple has nil term")
	}
	if t.Subject.Kind() == KindLiteral {
		return false, ErrBadSubject
	}
	key := t.key()
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = struct{}{}
	g.bySubject[t.Subject.String()] = append(g.bySubject[t.Subject.String()], len(g.triples))
	g.triples = append(g.triples, t)
	return true, nil
}

// MustAdd is Add for triples built from already-validated terms.
func (g *Graph) MustAdd(t Triple) {
	if _, err := g.Add(t); err != nil {
		panic(err)
	}
}

// Remove deletes a triple if present, returning true when it was removed.
func (g *Graph) Remove(t Triple) bool {
	key := t.key()
	if _, ok := g.seen[key]; !ok {
		return false
	}
	delete(g.seen, key)
	for i, pos := range g.bySubject[t.Subject.String()] {
		if g.triples[pos].Subject != nil && g.triples[pos].key() == key {
			g.triples[pos] = Triple{} // tombstone, compacted lazily
			positions := g.bySubject[t.Subject.String()]
			g.bySubject[t.Subject.String()] = append(positions[:i], positions[i+1:]...)
			break
		}
	}
	g.removed++
	if g.removed > len(g.triples)/2 {
		g.compact()
	}
	return true
}

func (g *Graph) compact() {
	live := make([]Triple, 0, len(g.triples)-g.removed)
	for _, t := range g.triples {
		if t.Subject != nil {
			live = append(live, t)
		}
	}
	g.triples = live
	g.removed = 0
	g.bySubject = make(map[string][]int, len(live))
	for i, t := range live {
		g.bySubject[t.Subject.String()] = append(g.bySubject[t.Subject.String()], i)
	}
}

// Len returns the number of triples in the graph.
func (g *Graph) Len() int { return len(g.triples) - g.removed }

// Triples returns all triples matching the pattern, in insertion order.
// Nil terms are wildcards. The predicate wildcard is IRI{} (zero value).
func (g *Graph) Triples(s Term, p IRI, o Term) []Triple {
	var out []Triple
	g.each(s, func(t Triple) {
		if (p.Value == "" || t.Predicate.Equal(p)) && (o == nil || t.Object.Equal(o)) {
			out = append(out, t)
		}
	})
	return out
}

// each visits live triples, using the subject index when s is bound.
func (g *Graph) each(s Term, fn func(Triple)) {
	if s != nil {
		for _, pos := range g.bySubject[s.String()] {
			if t := g.triples[pos]; t.Subject != nil {
				fn(t)
			}
		}
		return
	}
	for _, t := range g.triples {
		if t.Subject != nil {
			fn(t)
		}
	}
}

// Objects returns the distinct objects of (s, p, *) in insertion order.
func (g *Graph) Objects(s Term, p IRI) []Term {
	var out []Term
	seen := make(map[string]struct{})
	g.each(s, func(t Triple) {
		if !t.Predicate.Equal(p) {
			return
		}
		if _, ok := seen[t.Object.String()]; ok {
			return
		}
		seen[t.Object.String()] = struct{}{}
		out = append(out, t.Object)
	})
	return out
}

// Subjects returns the distinct subjects of (*, p, o) in insertion order.
func (g *Graph) Subjects(p IRI, o Term) []Term {
	var out []Term
	seen := make(map[string]struct{})
	g.each(nil, func(t Triple) {
		if !t.Predicate.Equal(p) || !t.Object.Equal(o) {
			return
		}
		if _, ok := seen[t.Subject.String()]; ok {
			return
		}
		seen[t.Subject.String()] = struct{}{}
		out = append(out, t.Subject)
	})
	return out
}

// SubjectSet returns every distinct subject in insertion order.
func (g *Graph) SubjectSet() []Term {
	var out []Term
	seen := make(map[string]struct{})
	g.each(nil, func(t Triple) {
		if _, ok := seen[t.Subject.String()]; ok {
			return
		}
		seen[t.Subject.String()] = struct{}{}
		out = append(out, t.Subject)
	})
	return out
}

// ClassSet returns the distinct IRI objects of rdf:type triples, i.e. the
// classes instantiated in this graph.
func (g *Graph) ClassSet() []IRI {
	var out []IRI
	seen := make(map[string]struct{})
	g.each(nil, func(t Triple) {
		if !t.Predicate.Equal(RDFType) {
			return
		}
		class, ok := t.Object.(IRI)
		if !ok {
			return
		}
		if _, dup := seen[class.Value]; dup {
			return
		}
		seen[class.Value] = struct{}{}
		out = append(out, class)
	})
	return out
}

// All returns the live triples in insertion order. The slice is a copy.
func (g *Graph) All() []Triple {
	out := make([]Triple, 0, g.Len())
	g.each(nil, func(t Triple) { out = append(out, t) })
	return out
}

// Has reports whether the graph contains the exact triple.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.seen[t.key()]
	return ok
}
