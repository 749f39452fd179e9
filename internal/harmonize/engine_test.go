package harmonize

import (
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkg/loom/internal/rdf"
)

const (
	testTargetNS = "http://target.example.org/"
	crmNS        = "http://crm.example.org/"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testTargetNS, zerolog.Nop())
}

func customerRule() Rule {
	return Rule{
		SourceOntology: "crm",
		SourceClass:    crmNS + "Customer",
		TargetClass:    testTargetNS + "Person",
		PropertyMappings: []PropertyMapping{
			{Source: crmNS + "email", Target: testTargetNS + "email"},
			{Source: crmNS + "fullName", Target: testTargetNS + "label"},
		},
	}
}

// customerGraph builds a source graph with one crm:Customer instance.
func customerGraph(t *testing.T, instance, email, name string) *rdf.Graph {
	t.Helper()
	g := rdf.NewGraph()
	subj := rdf.MustIRI(crmNS + instance)
	g.MustAdd(rdf.Triple{Subject: subj, Predicate: rdf.RDFType, Object: rdf.MustIRI(crmNS + "Customer")})
	g.MustAdd(rdf.Triple{Subject: subj, Predicate: rdf.MustIRI(crmNS + "email"), Object: rdf.NewLiteral(email)})
	g.MustAdd(rdf.Triple{Subject: subj, Predicate: rdf.MustIRI(crmNS + "fullName"), Object: rdf.NewLiteral(name)})
	return g
}

func sortedTripleStrings(g *rdf.Graph) []string {
	var out []string
	for _, t := range g.All() {
		out = append(out, t.String())
	}
	sort.Strings(out)
	return out
}

func TestHarmonize_BasicPass(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(customerRule())

	report, err := e.Harmonize(customerGraph(t, "c1", "alice@example.org", "Alice"), "crm", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Harmonized)
	assert.Zero(t, report.Failed)
	require.Len(t, report.Outcomes, 1)
	assert.True(t, strings.HasPrefix(report.Outcomes[0].Entity, testTargetNS+"entity_"))

	entity := rdf.MustIRI(report.Outcomes[0].Entity)
	assert.True(t, e.Graph().Has(rdf.Triple{Subject: entity, Predicate: rdf.RDFType, Object: rdf.MustIRI(testTargetNS + "Person")}))
	// Email was normalized by the transform table.
	assert.Equal(t,
		[]rdf.Term{rdf.NewTypedLiteral("alice@example.org", rdf.XSDString)},
		e.Graph().Objects(entity, rdf.MustIRI(testTargetNS+"email")))
}

func TestHarmonize_IdempotentReharmonization(t *testing.T) {
	// Two fresh engines fed identical inputs produce identical triple sets.
	src := customerGraph(t, "c1", "alice@example.org", "Alice")

	e1 := newTestEngine(t)
	e1.Registry().Add(customerRule())
	_, err := e1.Harmonize(src, "crm", nil)
	require.NoError(t, err)

	e2 := newTestEngine(t)
	e2.Registry().Add(customerRule())
	_, err = e2.Harmonize(src, "crm", nil)
	require.NoError(t, err)

	assert.Equal(t, sortedTripleStrings(e1.Graph()), sortedTripleStrings(e2.Graph()))

	// Re-running the same pass against the same engine adds nothing new.
	before := e1.Graph().Len()
	_, err = e1.Harmonize(src, "crm", nil)
	require.NoError(t, err)
	assert.Equal(t, before, e1.Graph().Len())
}

func TestHarmonize_DeduplicatesByFingerprint(t *testing.T) {
	// Same email in different case/whitespace resolves to one entity.
	e := newTestEngine(t)
	e.Registry().Add(customerRule())

	_, err := e.Harmonize(customerGraph(t, "c1", "alice@example.org", "alice"), "crm", nil)
	require.NoError(t, err)
	report, err := e.Harmonize(customerGraph(t, "c2", "  ALICE@example.org ", " Alice "), "crm", nil)
	require.NoError(t, err)

	stats := e.Statistics()
	assert.Equal(t, 1, stats.EntityCacheSize)
	assert.True(t, strings.HasPrefix(report.Outcomes[0].Entity, testTargetNS+"entity_"))

	// A different email mints a different entity.
	_, err = e.Harmonize(customerGraph(t, "c3", "bob@example.org", "Bob"), "crm", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Statistics().EntityCacheSize)
}

func TestHarmonize_UnknownClassSkipped(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(customerRule())

	g := rdf.NewGraph()
	g.MustAdd(rdf.Triple{
		Subject:   rdf.MustIRI(crmNS + "x1"),
		Predicate: rdf.RDFType,
		Object:    rdf.MustIRI(crmNS + "UnmappedThing"),
	})

	report, err := e.Harmonize(g, "crm", nil)
	require.NoError(t, err)
	assert.Zero(t, report.Harmonized)
	assert.Zero(t, e.Graph().Len())
}

func TestHarmonize_RuleIsOntologyScoped(t *testing.T) {
	// A rule registered for "crm" does not fire for ontology id "erp".
	e := newTestEngine(t)
	e.Registry().Add(customerRule())

	report, err := e.Harmonize(customerGraph(t, "c1", "a@b.c", "A"), "erp", nil)
	require.NoError(t, err)
	assert.Zero(t, report.Harmonized)
	assert.Zero(t, e.Graph().Len())
}

func TestHarmonize_Provenance(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(customerRule())

	report, err := e.Harmonize(customerGraph(t, "c1", "alice@example.org", "Alice"), "crm",
		map[string]string{"source_system": "crm-prod", "batch": "42"})
	require.NoError(t, err)

	entity := rdf.MustIRI(report.Outcomes[0].Entity)
	derived := e.Graph().Objects(entity, rdf.PROVWasDerivedFrom)
	require.Len(t, derived, 1)
	assert.Equal(t, rdf.MustIRI(crmNS+"c1"), derived[0])

	generated := e.Graph().Objects(entity, rdf.PROVWasGeneratedBy)
	require.Len(t, generated, 1)
	activity := generated[0]
	assert.Equal(t, rdf.KindBNode, activity.Kind())
	assert.True(t, e.Graph().Has(rdf.Triple{Subject: activity, Predicate: rdf.RDFType, Object: rdf.PROVActivity}))
	assert.Len(t, e.Graph().Objects(activity, rdf.PROVStartedAtTime), 1)
	assert.Equal(t,
		[]rdf.Term{rdf.NewLiteral("crm-prod")},
		e.Graph().Objects(activity, rdf.MustIRI(testTargetNS+"source_system")))
}

func TestHarmonize_KeylessInstancesCollapse(t *testing.T) {
	// A rule with no key properties collapses all instances of the class
	// onto one entity; the pass reports a warning rather than hiding it.
	e := newTestEngine(t)
	e.Registry().Add(Rule{
		SourceOntology: "crm",
		SourceClass:    crmNS + "Note",
		TargetClass:    testTargetNS + "Note",
		PropertyMappings: []PropertyMapping{
			{Source: crmNS + "text", Target: testTargetNS + "text"},
		},
	})

	g := rdf.NewGraph()
	for _, id := range []string{"n1", "n2", "n3"} {
		subj := rdf.MustIRI(crmNS + id)
		g.MustAdd(rdf.Triple{Subject: subj, Predicate: rdf.RDFType, Object: rdf.MustIRI(crmNS + "Note")})
		g.MustAdd(rdf.Triple{Subject: subj, Predicate: rdf.MustIRI(crmNS + "text"), Object: rdf.NewLiteral("note " + id)})
	}

	report, err := e.Harmonize(g, "crm", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Harmonized)
	assert.Equal(t, 1, e.Statistics().EntityCacheSize)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "collapsed")
	for _, outcome := range report.Outcomes {
		assert.True(t, outcome.KeylessIdentity)
	}
}

func TestHarmonize_StructuralErrorAbortsPass(t *testing.T) {
	// A malformed target property URI fails its instance and aborts the
	// pass; triples from already-processed instances are not rolled back.
	e := newTestEngine(t)
	e.Registry().Add(customerRule())
	e.Registry().Add(Rule{
		SourceOntology: "crm",
		SourceClass:    crmNS + "Broken",
		TargetClass:    testTargetNS + "Broken",
		PropertyMappings: []PropertyMapping{
			{Source: crmNS + "p", Target: "not a valid iri"},
		},
	})

	src := customerGraph(t, "c1", "alice@example.org", "Alice")
	broken := rdf.MustIRI(crmNS + "b1")
	src.MustAdd(rdf.Triple{Subject: broken, Predicate: rdf.RDFType, Object: rdf.MustIRI(crmNS + "Broken")})
	src.MustAdd(rdf.Triple{Subject: broken, Predicate: rdf.MustIRI(crmNS + "p"), Object: rdf.NewLiteral("v")})

	report, err := e.Harmonize(src, "crm", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, rdf.ErrBadIRI)
	assert.Equal(t, 1, report.Harmonized)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Outcomes, 2)
	assert.NotEmpty(t, report.Outcomes[1].Error)
	// The customer instance's triples survived the abort.
	assert.Greater(t, e.Graph().Len(), 0)
}

func TestStatistics(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(customerRule())
	_, err := e.Harmonize(customerGraph(t, "c1", "alice@example.org", "Alice"), "crm", nil)
	require.NoError(t, err)

	stats := e.Statistics()
	assert.Equal(t, 1, stats.MappingRules)
	assert.Equal(t, 1, stats.EntityCacheSize)
	assert.Equal(t, 3, stats.TotalTriples) // type + email + label
	assert.NotEmpty(t, stats.Namespaces)
}

func TestExport_NTriples(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(customerRule())
	_, err := e.Harmonize(customerGraph(t, "c1", "alice@example.org", "Alice"), "crm", nil)
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, e.Export(&buf, rdf.FormatNTriples))

	back, err := rdf.DecodeNTriples(buf.String())
	require.NoError(t, err)
	assert.Equal(t, e.Graph().Len(), back.Len())
}

func TestRestore(t *testing.T) {
	e := newTestEngine(t)
	e.Registry().Add(customerRule())
	_, err := e.Harmonize(customerGraph(t, "c1", "alice@example.org", "Alice"), "crm", nil)
	require.NoError(t, err)
	triples := e.Graph().All()

	fresh := newTestEngine(t)
	require.NoError(t, fresh.Restore(triples))
	assert.Equal(t, sortedTripleStrings(e.Graph()), sortedTripleStrings(fresh.Graph()))
}
