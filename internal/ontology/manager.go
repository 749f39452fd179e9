package ontology

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openkg/loom/internal/rdf"
)

// Manager holds the schema graph: the ontology definitions the
// harmonized data conforms to, kept separate from instance data.
type Manager struct {
	graph  *rdf.Graph
	loaded []string
	log    zerolog.Logger
}

func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		graph: rdf.NewGraph(),
		log:   logger.With().Str("component", "ontology").Logger(),
	}
}

// LoadFile parses one ontology file into the schema graph. The format
// is inferred from the extension.
func (m *Manager) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read ontology %s: %w", path, err)
	}
	defer f.Close()

	g, err := rdf.Decode(f, rdf.FormatForPath(path))
	if err != nil {
		return fmt.Errorf("parse ontology %s: %w", path, err)
	}

	added := 0
	for _, t := range g.All() {
		ok, err := m.graph.Add(t)
		if err != nil {
			return fmt.Errorf("merge ontology %s: %w", path, err)
		}
		if ok {
			added++
		}
	}
	m.loaded = append(m.loaded, path)
	m.log.Info().Str("file", path).Int("triples", added).Msg("ontology loaded")
	return nil
}

// LoadDir loads every .ttl and .nt file in a directory, in name order
// so repeated loads build the same graph.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read ontology directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".ttl", ".nt":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := m.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// Graph exposes the schema graph for mapping suggestions.
func (m *Manager) Graph() *rdf.Graph { return m.graph }

// Classes returns the declared owl:Class IRIs, sorted.
func (m *Manager) Classes() []rdf.IRI {
	return m.declared(rdf.OWLClass)
}

// Properties returns the declared owl:ObjectProperty and
// owl:DatatypeProperty IRIs, sorted.
func (m *Manager) Properties() []rdf.IRI {
	props := m.declared(rdf.OWLObjectProperty)
	props = append(props, m.declared(rdf.OWLDatatypeProperty)...)
	sort.Slice(props, func(i, j int) bool { return props[i].Value < props[j].Value })
	return props
}

func (m *Manager) declared(class rdf.IRI) []rdf.IRI {
	var out []rdf.IRI
	for _, s := range m.graph.Subjects(rdf.RDFType, class) {
		if iri, ok := s.(rdf.IRI); ok {
			out = append(out, iri)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Label returns the rdfs:label of a term, or its local name when the
// ontology does not label it.
func (m *Manager) Label(iri rdf.IRI) string {
	for _, o := range m.graph.Objects(iri, rdf.RDFSLabel) {
		if lit, ok := o.(rdf.Literal); ok {
			return lit.Value
		}
	}
	return iri.LocalName()
}

// Stats summarizes the loaded schema.
type Stats struct {
	Files      []string `json:"files"`
	Triples    int      `json:"triples"`
	Classes    int      `json:"classes"`
	Properties int      `json:"properties"`
}

func (m *Manager) Stats() Stats {
	return Stats{
		Files:      append([]string(nil), m.loaded...),
		Triples:    m.graph.Len(),
		Classes:    len(m.Classes()),
		Properties: len(m.Properties()),
	}
}
