package harmonize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkg/loom/internal/rdf"
)

func TestValidateQuality_EmptyGraphScoresPerfect(t *testing.T) {
	e := newTestEngine(t)
	report := e.ValidateQuality()
	assert.Equal(t, 0, report.TotalEntities)
	assert.Equal(t, 100.0, report.QualityScore)
	assert.Empty(t, report.Issues)
}

func TestValidateQuality_FlagsMissingLabelsAndOrphans(t *testing.T) {
	e := newTestEngine(t)
	// Typed entity with no label and no other triples: both issues.
	lonely := rdf.MustIRI(testTargetNS + "entity_1")
	e.Graph().MustAdd(rdf.Triple{Subject: lonely, Predicate: rdf.RDFType, Object: rdf.MustIRI(testTargetNS + "Person")})

	// Labeled, connected entity: clean.
	fine := rdf.MustIRI(testTargetNS + "entity_2")
	e.Graph().MustAdd(rdf.Triple{Subject: fine, Predicate: rdf.RDFType, Object: rdf.MustIRI(testTargetNS + "Person")})
	e.Graph().MustAdd(rdf.Triple{Subject: fine, Predicate: rdf.RDFSLabel, Object: rdf.NewLiteral("Fine")})

	report := e.ValidateQuality()
	assert.Equal(t, 2, report.TotalEntities)

	byType := make(map[string]QualityIssue)
	for _, issue := range report.Issues {
		byType[issue.Type] = issue
	}
	require.Contains(t, byType, "missing_labels")
	assert.Equal(t, 1, byType["missing_labels"].Count)
	require.Contains(t, byType, "orphaned_entities")
	assert.Equal(t, 1, byType["orphaned_entities"].Count)

	// 2 flagged issues over 2 entities: score 0, not negative.
	assert.Equal(t, 0.0, report.QualityScore)
}

func TestValidateQuality_ScoreClampedAtZero(t *testing.T) {
	e := newTestEngine(t)
	// One entity generating two issues pushes the raw score below zero.
	lonely := rdf.MustIRI(testTargetNS + "entity_1")
	e.Graph().MustAdd(rdf.Triple{Subject: lonely, Predicate: rdf.RDFType, Object: rdf.MustIRI(testTargetNS + "Person")})

	report := e.ValidateQuality()
	assert.Equal(t, 0.0, report.QualityScore)
}

func TestValidateQuality_ReportsIdentityCollapse(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(Rule{
		SourceOntology:   "crm",
		SourceClass:      crmNS + "Note",
		TargetClass:      testTargetNS + "Note",
		PropertyMappings: []PropertyMapping{{Source: crmNS + "text", Target: testTargetNS + "text"}},
	})
	g := rdf.NewGraph()
	subj := rdf.MustIRI(crmNS + "n1")
	g.MustAdd(rdf.Triple{Subject: subj, Predicate: rdf.RDFType, Object: rdf.MustIRI(crmNS + "Note")})
	g.MustAdd(rdf.Triple{Subject: subj, Predicate: rdf.MustIRI(crmNS + "text"), Object: rdf.NewLiteral("hello")})
	_, err := e.Harmonize(g, "crm", nil)
	require.NoError(t, err)

	report := e.ValidateQuality()
	var found bool
	for _, issue := range report.Issues {
		if issue.Type == "collapsed_identity" {
			found = true
			assert.Equal(t, 1, issue.Count)
			assert.Equal(t, "warning", issue.Severity)
		}
	}
	assert.True(t, found, "collapsed_identity issue not reported")
}

func TestValidateQuality_ProvenanceNodesAreNotOrphans(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(customerRule())
	_, err := e.Harmonize(customerGraph(t, "c1", "alice@example.org", "Alice"), "crm",
		map[string]string{"source": "crm"})
	require.NoError(t, err)

	report := e.ValidateQuality()
	for _, issue := range report.Issues {
		assert.NotEqual(t, "orphaned_entities", issue.Type,
			"provenance activity nodes carry non-type triples and must not count as orphans")
	}
}
