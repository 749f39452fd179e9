package harmonize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/openkg/loom/internal/rdf"
)

// keyPropertyMarkers are the substrings that make a source property an
// identifying ("key") property for fingerprinting.
var keyPropertyMarkers = []string{"email", "id", "identifier", "name"}

func isKeyProperty(propertyURI string) bool {
	lower := strings.ToLower(propertyURI)
	for _, marker := range keyPropertyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// termValue returns the lexical form of a term, matching how values are
// compared and fingerprinted: the raw value for literals and IRIs, the
// label for blank nodes.
func termValue(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.Literal:
		return v.Value
	case rdf.IRI:
		return v.Value
	case rdf.BNode:
		return v.ID
	default:
		return t.String()
	}
}

// fingerprint builds the deduplication key for a source instance: the
// target class followed by the lower-cased, trimmed values of every key
// property, joined by '|' in rule property order. keyed is false when no
// key property contributed a value, in which case all instances of the
// class share one fingerprint and collapse onto a single target entity.
func fingerprint(src *rdf.Graph, instance rdf.Term, rule Rule) (fp string, keyed bool, err error) {
	parts := []string{rule.TargetClass}
	for _, pm := range rule.PropertyMappings {
		if !isKeyProperty(pm.Source) {
			continue
		}
		prop, err := rdf.NewIRI(pm.Source)
		if err != nil {
			return "", false, err
		}
		for _, obj := range src.Objects(instance, prop) {
			parts = append(parts, strings.ToLower(strings.TrimSpace(termValue(obj))))
			keyed = true
		}
	}
	return strings.Join(parts, "|"), keyed, nil
}

// resolve maps a source instance to its target entity, minting a new
// identity when the fingerprint is unseen. Identities are stable for the
// lifetime of the engine's cache.
func (e *Engine) resolve(src *rdf.Graph, instance rdf.Term, rule Rule) (entity rdf.IRI, keyless bool, err error) {
	fp, keyed, err := fingerprint(src, instance, rule)
	if err != nil {
		return rdf.IRI{}, false, err
	}
	if cached, ok := e.cache[fp]; ok {
		e.log.Debug().Str("instance", instance.String()).Msg("entity match found")
		return cached, !keyed, nil
	}
	sum := sha256.Sum256([]byte(fp))
	id := hex.EncodeToString(sum[:])[:16]
	entity = e.targetNS.IRI("entity_" + id)
	e.cache[fp] = entity
	return entity, !keyed, nil
}
