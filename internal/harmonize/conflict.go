package harmonize

import (
	"sort"

	"github.com/openkg/loom/internal/rdf"
)

// Resolution strategies accepted by ResolveConflicts.
const (
	// StrategyMostRecent keeps the first value in graph insertion order.
	// No per-triple timestamp exists, so this is ordering by arrival, not
	// true recency; the name is kept for interface compatibility with the
	// strategy's origin.
	StrategyMostRecent = "most_recent"
	// StrategyMostCommon keeps the highest-frequency value, ties broken
	// by lexicographically smallest value. The winner is reinserted as a
	// plain literal, dropping any datatype or language tag.
	StrategyMostCommon = "most_common"
)

// Conflict is an (entity, property) pair carrying more than one distinct
// value in the harmonized graph. Conflicts are recomputed on demand and
// never stored.
type Conflict struct {
	Entity            string   `json:"entity"`
	Property          string   `json:"property"`
	ConflictingValues []string `json:"conflicting_values"`
	Count             int      `json:"count"`

	subject   rdf.Term
	predicate rdf.IRI
	objects   []rdf.Term
}

// DetectConflicts scans the whole harmonized graph, grouping triples by
// (subject, predicate) and reporting every pair with more than one
// distinct object. Values are listed in insertion order.
func (e *Engine) DetectConflicts() []Conflict {
	type group struct {
		subject   rdf.Term
		predicate rdf.IRI
		objects   []rdf.Term
	}
	groups := make(map[string]*group)
	var order []string

	for _, t := range e.graph.All() {
		key := t.Subject.String() + "\x00" + t.Predicate.String()
		grp, ok := groups[key]
		if !ok {
			grp = &group{subject: t.Subject, predicate: t.Predicate}
			groups[key] = grp
			order = append(order, key)
		}
		grp.objects = append(grp.objects, t.Object)
	}

	var conflicts []Conflict
	for _, key := range order {
		grp := groups[key]
		if len(grp.objects) < 2 {
			continue
		}
		values := make([]string, len(grp.objects))
		for i, obj := range grp.objects {
			values[i] = termValue(obj)
		}
		conflicts = append(conflicts, Conflict{
			Entity:            termValue(grp.subject),
			Property:          grp.predicate.Value,
			ConflictingValues: values,
			Count:             len(grp.objects),
			subject:           grp.subject,
			predicate:         grp.predicate,
			objects:           grp.objects,
		})
	}
	e.metrics.RecordConflicts(len(conflicts))
	e.log.Info().Int("conflicts", len(conflicts)).Msg("conflict detection complete")
	return conflicts
}

// ResolveConflicts collapses every detected conflict to a single value
// using the given strategy and returns the number of (entity, property)
// pairs resolved. An unrecognized strategy is a no-op returning zero; it
// is not an error.
func (e *Engine) ResolveConflicts(strategy string) int {
	conflicts := e.DetectConflicts()
	resolved := 0

	for _, c := range conflicts {
		switch strategy {
		case StrategyMostRecent:
			// objects[0] is the first-arrived value; drop the rest.
			for _, obj := range c.objects[1:] {
				e.graph.Remove(rdf.Triple{Subject: c.subject, Predicate: c.predicate, Object: obj})
			}
			resolved++

		case StrategyMostCommon:
			counts := make(map[string]int)
			for _, obj := range c.objects {
				counts[termValue(obj)]++
			}
			values := make([]string, 0, len(counts))
			for v := range counts {
				values = append(values, v)
			}
			sort.Strings(values)
			winner := values[0]
			for _, v := range values[1:] {
				if counts[v] > counts[winner] {
					winner = v
				}
			}
			for _, obj := range c.objects {
				e.graph.Remove(rdf.Triple{Subject: c.subject, Predicate: c.predicate, Object: obj})
			}
			e.graph.MustAdd(rdf.Triple{Subject: c.subject, Predicate: c.predicate, Object: rdf.NewLiteral(winner)})
			resolved++

		default:
			// Unknown strategy: leave conflicts in place.
		}
	}

	e.metrics.RecordResolution(strategy, resolved)
	e.log.Info().Str("strategy", strategy).Int("resolved", resolved).Msg("conflict resolution complete")
	return resolved
}
