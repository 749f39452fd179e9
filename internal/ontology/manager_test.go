package ontology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkg/loom/internal/rdf"
)

const customerOntology = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix cus: <http://enterprise.org/ontology/customer#> .

cus:Customer a owl:Class ;
    rdfs:label "Customer" .

cus:email a owl:DatatypeProperty ;
    rdfs:label "email address" .

cus:purchased a owl:ObjectProperty .
`

const productOntology = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix prod: <http://enterprise.org/ontology/product#> .

prod:Product a owl:Class .
prod:price a owl:DatatypeProperty .
`

func writeOntology(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	m := NewManager(zerolog.Nop())
	path := writeOntology(t, t.TempDir(), "customer.ttl", customerOntology)

	require.NoError(t, m.LoadFile(path))

	classes := m.Classes()
	require.Len(t, classes, 1)
	assert.Equal(t, "http://enterprise.org/ontology/customer#Customer", classes[0].Value)

	props := m.Properties()
	require.Len(t, props, 2)
	assert.Equal(t, "http://enterprise.org/ontology/customer#email", props[0].Value)
	assert.Equal(t, "http://enterprise.org/ontology/customer#purchased", props[1].Value)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, dir, "customer.ttl", customerOntology)
	writeOntology(t, dir, "product.ttl", productOntology)
	writeOntology(t, dir, "notes.txt", "not an ontology")

	m := NewManager(zerolog.Nop())
	require.NoError(t, m.LoadDir(dir))

	stats := m.Stats()
	assert.Len(t, stats.Files, 2)
	assert.Equal(t, 2, stats.Classes)
	assert.Equal(t, 3, stats.Properties)
	assert.Equal(t, 7, stats.Triples)
}

func TestLoadDirIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, dir, "customer.ttl", customerOntology)

	m := NewManager(zerolog.Nop())
	require.NoError(t, m.LoadDir(dir))
	before := m.Stats().Triples
	require.NoError(t, m.LoadDir(dir))

	assert.Equal(t, before, m.Stats().Triples)
}

func TestLabel(t *testing.T) {
	m := NewManager(zerolog.Nop())
	path := writeOntology(t, t.TempDir(), "customer.ttl", customerOntology)
	require.NoError(t, m.LoadFile(path))

	assert.Equal(t, "email address", m.Label(rdf.MustIRI("http://enterprise.org/ontology/customer#email")))
	// Unlabeled terms fall back to the local name.
	assert.Equal(t, "purchased", m.Label(rdf.MustIRI("http://enterprise.org/ontology/customer#purchased")))
}

func TestLoadFile_BadPath(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.Error(t, m.LoadFile(filepath.Join(t.TempDir(), "missing.ttl")))
}
