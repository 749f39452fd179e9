package harmonize

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openkg/loom/internal/metric"
	"github.com/openkg/loom/internal/rdf"
)

// Engine harmonizes source graphs into a cumulative target graph. One
// engine owns one identity space (fingerprint cache) and one harmonized
// graph; it is not safe for concurrent use and callers serialize access.
type Engine struct {
	targetNS rdf.Namespace
	registry *Registry
	cache    map[string]rdf.IRI // fingerprint -> target entity
	graph    *rdf.Graph
	keyless  int // resolutions that fell back to a class-only fingerprint
	log      zerolog.Logger
	metrics  *metric.Metrics
}

func NewEngine(targetNamespace string, logger zerolog.Logger) *Engine {
	return &Engine{
		targetNS: rdf.Namespace(targetNamespace),
		registry: NewRegistry(),
		cache:    make(map[string]rdf.IRI),
		graph:    rdf.NewGraph(),
		log:      logger.With().Str("component", "harmonize").Logger(),
	}
}

// SetMetrics attaches Prometheus instruments. A nil value disables
// recording.
func (e *Engine) SetMetrics(m *metric.Metrics) { e.metrics = m }

// Registry exposes the engine's mapping-rule registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Graph returns the cumulative harmonized graph. The engine retains
// ownership; callers must not mutate it concurrently with engine calls.
func (e *Engine) Graph() *rdf.Graph { return e.graph }

// TargetNamespace returns the namespace harmonized entities are minted in.
func (e *Engine) TargetNamespace() rdf.Namespace { return e.targetNS }

// Restore replaces the harmonized graph with previously persisted triples.
// The fingerprint cache is not restorable from triples alone; identities
// already present keep their IRIs, and new fingerprints mint fresh ones.
func (e *Engine) Restore(triples []rdf.Triple) error {
	g := rdf.NewGraph()
	for _, t := range triples {
		if _, err := g.Add(t); err != nil {
			return fmt.Errorf("restore triple %s: %w", t, err)
		}
	}
	e.graph = g
	return nil
}

// InstanceOutcome records what happened to one source instance during a
// harmonization pass.
type InstanceOutcome struct {
	SourceInstance  string `json:"source_instance"`
	Entity          string `json:"entity,omitempty"`
	TriplesAdded    int    `json:"triples_added"`
	KeylessIdentity bool   `json:"keyless_identity,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Report summarizes a harmonization pass. Outcomes list every instance
// attempted, in order, so a mid-pass failure still tells the caller which
// instances landed.
type Report struct {
	SourceOntology string            `json:"source_ontology"`
	Harmonized     int               `json:"harmonized"`
	Failed         int               `json:"failed"`
	Outcomes       []InstanceOutcome `json:"outcomes"`
	Warnings       []string          `json:"warnings,omitempty"`
	Duration       time.Duration     `json:"duration_ns"`
}

// Harmonize applies registered mapping rules to a source graph,
// accumulating results into the target graph. Classes without a rule for
// sourceOntologyID are skipped silently. A structural error (malformed
// URI in a rule) fails the current instance and aborts the remainder of
// the pass; triples already added stay in place.
func (e *Engine) Harmonize(src *rdf.Graph, sourceOntologyID string, provenance map[string]string) (*Report, error) {
	start := time.Now()
	report := &Report{SourceOntology: sourceOntologyID}

	e.log.Info().Str("source_ontology", sourceOntologyID).Msg("harmonizing graph")

	keylessBefore := e.keyless
	for _, class := range src.ClassSet() {
		rule, ok := e.registry.Lookup(sourceOntologyID, class.Value)
		if !ok {
			e.log.Debug().Str("class", class.Value).Msg("no mapping rule, skipping class")
			continue
		}
		for _, instance := range src.Subjects(rdf.RDFType, class) {
			outcome, err := e.harmonizeInstance(src, instance, rule, provenance)
			report.Outcomes = append(report.Outcomes, outcome)
			if err != nil {
				report.Failed++
				report.Duration = time.Since(start)
				e.recordPass(report)
				return report, fmt.Errorf("harmonize %s: %w", instance, err)
			}
			report.Harmonized++
		}
	}

	if collapsed := e.keyless - keylessBefore; collapsed > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%d instance(s) had no key properties and collapsed onto class-level identities", collapsed))
	}
	report.Duration = time.Since(start)
	e.recordPass(report)
	e.log.Info().
		Int("harmonized", report.Harmonized).
		Dur("duration", report.Duration).
		Msg("harmonization pass complete")
	return report, nil
}

func (e *Engine) recordPass(report *Report) {
	added := 0
	for _, o := range report.Outcomes {
		added += o.TriplesAdded
	}
	e.metrics.RecordPass(report.SourceOntology, report.Harmonized, report.Failed, added, report.Duration)
	e.metrics.RecordGraphSize(e.graph.Len())
}

func (e *Engine) harmonizeInstance(src *rdf.Graph, instance rdf.Term, rule Rule, provenance map[string]string) (InstanceOutcome, error) {
	outcome := InstanceOutcome{SourceInstance: termValue(instance)}

	entity, keyless, err := e.resolve(src, instance, rule)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err
	}
	outcome.Entity = entity.Value
	outcome.KeylessIdentity = keyless
	if keyless {
		e.keyless++
	}

	targetClass, err := rdf.NewIRI(rule.TargetClass)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, fmt.Errorf("target class: %w", err)
	}
	if added, _ := e.graph.Add(rdf.Triple{Subject: entity, Predicate: rdf.RDFType, Object: targetClass}); added {
		outcome.TriplesAdded++
	}

	for _, pm := range rule.PropertyMappings {
		sourceProp, err := rdf.NewIRI(pm.Source)
		if err != nil {
			outcome.Error = err.Error()
			return outcome, fmt.Errorf("source property: %w", err)
		}
		targetProp, err := rdf.NewIRI(pm.Target)
		if err != nil {
			outcome.Error = err.Error()
			return outcome, fmt.Errorf("target property: %w", err)
		}
		for _, obj := range src.Objects(instance, sourceProp) {
			value, terr := transformValue(obj, targetProp)
			if terr != nil {
				e.metrics.RecordTransformFailure(targetProp.Value)
				e.log.Warn().
					Str("property", targetProp.Value).
					Err(terr).
					Msg("value transformation failed, keeping original")
			}
			if added, _ := e.graph.Add(rdf.Triple{Subject: entity, Predicate: targetProp, Object: value}); added {
				outcome.TriplesAdded++
			}
		}
	}

	if provenance != nil {
		outcome.TriplesAdded += e.addProvenance(entity, instance, provenance)
	}
	return outcome, nil
}

// addProvenance links the target entity to its source instance and a
// generation activity, PROV-O style. Caller metadata becomes triples on
// the activity under the target namespace. Returns triples added.
func (e *Engine) addProvenance(entity rdf.IRI, sourceInstance rdf.Term, info map[string]string) int {
	activity := rdf.NewBNode("activity-" + uuid.NewString())
	added := 0
	add := func(t rdf.Triple) {
		if ok, _ := e.graph.Add(t); ok {
			added++
		}
	}

	add(rdf.Triple{Subject: entity, Predicate: rdf.PROVWasDerivedFrom, Object: sourceInstance})
	add(rdf.Triple{Subject: entity, Predicate: rdf.PROVWasGeneratedBy, Object: activity})
	add(rdf.Triple{Subject: activity, Predicate: rdf.RDFType, Object: rdf.PROVActivity})
	add(rdf.Triple{
		Subject:   activity,
		Predicate: rdf.PROVStartedAtTime,
		Object:    rdf.NewTypedLiteral(time.Now().UTC().Format("2006-01-02T15:04:05"), rdf.XSDDateTime),
	})

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(rdf.Triple{Subject: activity, Predicate: e.targetNS.IRI(k), Object: rdf.NewLiteral(info[k])})
	}
	return added
}

// Statistics describes the engine's accumulated state.
type Statistics struct {
	TotalEntities   int      `json:"total_entities"`
	TotalTriples    int      `json:"total_triples"`
	TotalClasses    int      `json:"total_classes"`
	MappingRules    int      `json:"mapping_rules"`
	EntityCacheSize int      `json:"entity_cache_size"`
	Namespaces      []string `json:"namespaces"`
}

func (e *Engine) Statistics() Statistics {
	namespaces := make([]string, 0, len(rdf.StandardPrefixes)+1)
	for label, ns := range rdf.StandardPrefixes {
		namespaces = append(namespaces, label+": "+string(ns))
	}
	namespaces = append(namespaces, "target: "+string(e.targetNS))
	sort.Strings(namespaces)

	return Statistics{
		TotalEntities:   len(e.graph.SubjectSet()),
		TotalTriples:    e.graph.Len(),
		TotalClasses:    len(e.graph.ClassSet()),
		MappingRules:    e.registry.Len(),
		EntityCacheSize: len(e.cache),
		Namespaces:      namespaces,
	}
}

// Export serializes the harmonized graph to w.
func (e *Engine) Export(w io.Writer, format rdf.Format) error {
	if format == rdf.FormatTurtle {
		return rdf.EncodeTurtle(w, e.graph, map[string]rdf.Namespace{"target": e.targetNS})
	}
	return rdf.Encode(w, e.graph, format)
}

// ExportFile serializes the harmonized graph to a file.
func (e *Engine) ExportFile(path string, format rdf.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()
	if err := e.Export(f, format); err != nil {
		return err
	}
	e.log.Info().Str("path", path).Str("format", string(format)).Msg("exported harmonized data")
	return nil
}
