// Package harmonize implements the data harmonization engine: schema
// mapping, entity resolution, value transformation, conflict handling and
// quality scoring over RDF graphs.
package harmonize

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

// PropertyMapping maps one source property URI to one target property URI.
type PropertyMapping struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Rule maps instances of one source class to a target class. Property
// mappings are ordered; fingerprinting iterates them in this order.
type Rule struct {
	SourceOntology   string            `json:"source_ontology" yaml:"source_ontology"`
	SourceClass      string            `json:"source_class" yaml:"source_class"`
	TargetClass      string            `json:"target_class" yaml:"target_class"`
	PropertyMappings []PropertyMapping `json:"property_mappings" yaml:"property_mappings"`
}

// RuleID returns the registry key for a source ontology + class pair.
func RuleID(sourceOntology, sourceClass string) string {
	return sourceOntology + "_" + sourceClass
}

// Registry holds mapping rules keyed by source ontology + source class,
// in registration order. Re-registering a pair overwrites the earlier rule
// in place.
type Registry struct {
	rules map[string]Rule
	order []string
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Add registers a rule with explicit property-mapping order.
func (r *Registry) Add(rule Rule) {
	id := RuleID(rule.SourceOntology, rule.SourceClass)
	if _, exists := r.rules[id]; !exists {
		r.order = append(r.order, id)
	}
	r.rules[id] = rule
}

// AddMapping registers a rule from the external map-shaped input. Property
// mappings are ordered by sorted source-property URI so the entity
// fingerprint is independent of map iteration order.
func (r *Registry) AddMapping(sourceOntology, sourceClass, targetClass string, propertyMappings map[string]string) {
	sources := make([]string, 0, len(propertyMappings))
	for src := range propertyMappings {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	ordered := make([]PropertyMapping, 0, len(sources))
	for _, src := range sources {
		ordered = append(ordered, PropertyMapping{Source: src, Target: propertyMappings[src]})
	}
	r.Add(Rule{
		SourceOntology:   sourceOntology,
		SourceClass:      sourceClass,
		TargetClass:      targetClass,
		PropertyMappings: ordered,
	})
}

// Lookup returns the rule for a source ontology + class pair, exact match
// only.
func (r *Registry) Lookup(sourceOntology, sourceClass string) (Rule, bool) {
	rule, ok := r.rules[RuleID(sourceOntology, sourceClass)]
	return rule, ok
}

// Rules returns all rules in registration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule file and registers every rule it contains.
// File shape:
//
//	rules:
//	  - source_ontology: crm
//	    source_class: http://crm.example.org/Customer
//	    target_class: http://target.example.org/Person
//	    property_mappings:
//	      - source: http://crm.example.org/email
//	        target: http://target.example.org/email
func (r *Registry) LoadRules(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rule file: %w", err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	for _, rule := range f.Rules {
		if rule.SourceOntology == "" || rule.SourceClass == "" || rule.TargetClass == "" {
			return 0, fmt.Errorf("rule file %s: rule missing source_ontology, source_class or target_class", path)
		}
		r.Add(rule)
	}
	return len(f.Rules), nil
}
