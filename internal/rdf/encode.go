package rdf

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// Format names an RDF serialization.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "nt", "n-triples":
		return FormatNTriples, nil
	default:
		return "", fmt.Errorf("unsupported RDF format %q", name)
	}
}

// FormatForPath guesses a format from a file extension, defaulting to Turtle.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".nt") {
		return FormatNTriples
	}
	return FormatTurtle
}

// Encode serializes g to w in the given format.
func Encode(w io.Writer, g *Graph, format Format) error {
	switch format {
	case FormatNTriples:
		return EncodeNTriples(w, g)
	case FormatTurtle:
		return EncodeTurtle(w, g, nil)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// EncodeNTriples writes g as N-Triples, one statement per line, in
// insertion order.
func EncodeNTriples(w io.Writer, g *Graph) error {
	for _, t := range g.All() {
		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return err
		}
	}
	return nil
}

// EncodeTurtle writes g as Turtle grouped by subject. The standard
// prefixes are always declared; extra maps additional prefix labels to
// namespaces.
func EncodeTurtle(w io.Writer, g *Graph, extra map[string]Namespace) error {
	prefixes := make(map[string]Namespace, len(StandardPrefixes)+len(extra))
	for label, ns := range StandardPrefixes {
		prefixes[label] = ns
	}
	for label, ns := range extra {
		prefixes[label] = ns
	}

	labels := make([]string, 0, len(prefixes))
	for label := range prefixes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if _, err := fmt.Fprintf(w, "@prefix %s: <%s> .\n", label, prefixes[label]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	qname := func(t Term) string {
		iri, ok := t.(IRI)
		if !ok {
			return t.String()
		}
		for _, label := range labels {
			ns := string(prefixes[label])
			if rest, found := strings.CutPrefix(iri.Value, ns); found && rest != "" && !strings.ContainsAny(rest, "/#:") {
				return label + ":" + rest
			}
		}
		return iri.String()
	}

	for _, subj := range g.SubjectSet() {
		triples := g.Triples(subj, IRI{}, nil)
		for i, t := range triples {
			pred := qname(t.Predicate)
			if t.Predicate.Equal(RDFType) {
				pred = "a"
			}
			sep := " ;"
			if i == len(triples)-1 {
				sep = " ."
			}
			var line string
			if i == 0 {
				line = fmt.Sprintf("%s %s %s%s", qname(subj), pred, qname(t.Object), sep)
			} else {
				line = fmt.Sprintf("    %s %s%s", pred, qname(t.Object), sep)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
