package harmonize

import (
	"sort"
	"strings"

	"github.com/openkg/loom/internal/rdf"
)

// Suggestion proposes a source-to-target class mapping based on label
// similarity.
type Suggestion struct {
	SourceClass string  `json:"source_class"`
	TargetClass string  `json:"target_class"`
	Similarity  float64 `json:"similarity"`
	Confidence  string  `json:"confidence"`
}

const (
	suggestionThreshold     = 0.6
	highConfidenceThreshold = 0.8
)

// SuggestMappings compares owl:Class labels in a source graph against
// classes in the harmonized graph and suggests mappings whose Jaccard
// word similarity exceeds the threshold. Results are sorted by similarity
// descending, then by source class for a stable order.
func (e *Engine) SuggestMappings(src *rdf.Graph) []Suggestion {
	sourceClasses := src.Subjects(rdf.RDFType, rdf.OWLClass)
	targetClasses := e.graph.Subjects(rdf.RDFType, rdf.OWLClass)

	var suggestions []Suggestion
	for _, sc := range sourceClasses {
		sourceLabel := classLabel(src, sc)
		for _, tc := range targetClasses {
			targetLabel := classLabel(e.graph, tc)
			similarity := jaccardSimilarity(sourceLabel, targetLabel)
			if similarity <= suggestionThreshold {
				continue
			}
			confidence := "medium"
			if similarity > highConfidenceThreshold {
				confidence = "high"
			}
			suggestions = append(suggestions, Suggestion{
				SourceClass: termValue(sc),
				TargetClass: termValue(tc),
				Similarity:  similarity,
				Confidence:  confidence,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Similarity != suggestions[j].Similarity {
			return suggestions[i].Similarity > suggestions[j].Similarity
		}
		return suggestions[i].SourceClass < suggestions[j].SourceClass
	})
	return suggestions
}

// classLabel returns the class's rdfs:label, falling back to its IRI.
func classLabel(g *rdf.Graph, class rdf.Term) string {
	if labels := g.Objects(class, rdf.RDFSLabel); len(labels) > 0 {
		return strings.ToLower(termValue(labels[0]))
	}
	return strings.ToLower(termValue(class))
}

// jaccardSimilarity is word-set overlap over union size.
func jaccardSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
