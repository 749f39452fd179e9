package harmonize

import (
	"github.com/openkg/loom/internal/rdf"
)

// QualityIssue is one class of problem found in the harmonized graph.
type QualityIssue struct {
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Severity string `json:"severity"`
}

// QualityReport summarizes harmonized data quality. The score is
// 100 - issues/entities*100, floored at zero; an empty graph scores a
// clean 100.
type QualityReport struct {
	TotalEntities int            `json:"total_entities"`
	TotalTriples  int            `json:"total_triples"`
	Issues        []QualityIssue `json:"issues"`
	QualityScore  float64        `json:"quality_score"`
}

// ValidateQuality checks the harmonized graph for entities missing an
// rdfs:label, entities with no relationships beyond rdf:type, and
// identities that collapsed because their instances carried no key
// properties.
func (e *Engine) ValidateQuality() QualityReport {
	subjects := e.graph.SubjectSet()
	report := QualityReport{
		TotalEntities: len(subjects),
		TotalTriples:  e.graph.Len(),
	}

	missingLabels := 0
	orphaned := 0
	for _, subj := range subjects {
		typed := len(e.graph.Objects(subj, rdf.RDFType)) > 0
		if typed && len(e.graph.Objects(subj, rdf.RDFSLabel)) == 0 {
			missingLabels++
		}
		nonType := 0
		for _, t := range e.graph.Triples(subj, rdf.IRI{}, nil) {
			if !t.Predicate.Equal(rdf.RDFType) {
				nonType++
			}
		}
		if nonType == 0 {
			orphaned++
		}
	}

	if missingLabels > 0 {
		report.Issues = append(report.Issues, QualityIssue{Type: "missing_labels", Count: missingLabels, Severity: "warning"})
	}
	if orphaned > 0 {
		report.Issues = append(report.Issues, QualityIssue{Type: "orphaned_entities", Count: orphaned, Severity: "info"})
	}
	if e.keyless > 0 {
		report.Issues = append(report.Issues, QualityIssue{Type: "collapsed_identity", Count: e.keyless, Severity: "warning"})
	}

	totalIssues := 0
	for _, issue := range report.Issues {
		totalIssues += issue.Count
	}
	if report.TotalEntities > 0 {
		score := 100 - float64(totalIssues)/float64(report.TotalEntities)*100
		if score < 0 {
			score = 0
		}
		report.QualityScore = score
	} else {
		report.QualityScore = 100
	}
	e.metrics.RecordQuality(report.QualityScore)
	return report
}
