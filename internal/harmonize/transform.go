package harmonize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openkg/loom/internal/rdf"
)

// transformRule pairs a target-property predicate with a normalization.
// The table below is evaluated in order and at most the first matching
// rule applies to a value.
type transformRule struct {
	name  string
	match func(prop string) bool
	apply func(lit rdf.Literal) (rdf.Term, error)
}

func containsAny(prop string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(prop, kw) {
			return true
		}
	}
	return false
}

// transformTable is the fixed evaluation order for value normalization:
// date, then currency/amount, then email, phone, url. Keyword matching is
// case-insensitive substring matching on the target property URI.
var transformTable = []transformRule{
	{
		name:  "date",
		match: func(prop string) bool { return strings.Contains(prop, "date") },
		apply: transformDate,
	},
	{
		name:  "numeric",
		match: func(prop string) bool { return containsAny(prop, "currency", "price", "amount", "value") },
		apply: transformNumeric,
	},
	{
		name:  "email",
		match: func(prop string) bool { return strings.Contains(prop, "email") },
		apply: func(lit rdf.Literal) (rdf.Term, error) {
			return rdf.NewTypedLiteral(strings.ToLower(strings.TrimSpace(lit.Value)), rdf.XSDString), nil
		},
	},
	{
		name:  "phone",
		match: func(prop string) bool { return strings.Contains(prop, "phone") },
		apply: func(lit rdf.Literal) (rdf.Term, error) {
			return rdf.NewTypedLiteral(strings.TrimSpace(lit.Value), rdf.XSDString), nil
		},
	},
	{
		name:  "url",
		match: func(prop string) bool { return containsAny(prop, "url", "uri") },
		apply: func(lit rdf.Literal) (rdf.Term, error) {
			u := strings.TrimSpace(lit.Value)
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				u = "https://" + u
			}
			return rdf.NewTypedLiteral(u, rdf.XSDAnyURI), nil
		},
	},
}

// dateLayouts are tried in order by transformDate.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

func transformDate(lit rdf.Literal) (rdf.Term, error) {
	s := strings.TrimSpace(lit.Value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return rdf.NewTypedLiteral(parsed.Format("2006-01-02T15:04:05"), rdf.XSDDateTime), nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", lit.Value)
}

func transformNumeric(lit rdf.Literal) (rdf.Term, error) {
	cleaned := strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(lit.Value)
	cleaned = strings.TrimSpace(cleaned)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable numeric value %q", lit.Value)
	}
	return rdf.NewTypedLiteral(strconv.FormatFloat(f, 'f', -1, 64), rdf.XSDDecimal), nil
}

// transformValue normalizes a literal according to conventions in the
// target property's URI. Non-literal objects and unmatched properties pass
// through unchanged. A parse failure returns the original term and the
// error; the caller logs and continues.
func transformValue(obj rdf.Term, targetProp rdf.IRI) (rdf.Term, error) {
	lit, ok := obj.(rdf.Literal)
	if !ok {
		return obj, nil
	}
	prop := strings.ToLower(targetProp.Value)
	for _, rule := range transformTable {
		if !rule.match(prop) {
			continue
		}
		out, err := rule.apply(lit)
		if err != nil {
			return obj, err
		}
		return out, nil
	}
	return obj, nil
}
