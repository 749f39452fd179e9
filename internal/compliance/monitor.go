package compliance

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/openkg/loom/internal/rdf"
)

// Default vocabulary for compliance data. Deployments that harmonize
// into a different namespace pass their own to NewMonitor.
const (
	DefaultComplianceNS = "http://enterprise.org/ontology/compliance#"
	DefaultSubjectNS    = "http://enterprise.org/data/customer/"
)

// Status is the result of a GDPR check for one data subject.
type Status struct {
	Compliant bool      `json:"compliant"`
	Issues    []string  `json:"issues"`
	Warnings  []string  `json:"warnings"`
	CheckedAt time.Time `json:"checked_at"`
}

// ConsentValidity describes a single consent record.
type ConsentValidity struct {
	Valid      bool     `json:"valid"`
	Status     string   `json:"status"`
	GivenDate  string   `json:"given_date,omitempty"`
	Method     string   `json:"method,omitempty"`
	ExpiryDate string   `json:"expiry_date,omitempty"`
	Issues     []string `json:"issues"`
}

// ExpiringConsent is an active consent approaching its expiry date.
type ExpiringConsent struct {
	ConsentID  string `json:"consent_id"`
	ExpiryDate string `json:"expiry_date"`
	Purpose    string `json:"purpose,omitempty"`
	DaysLeft   int    `json:"days_left"`
}

// Monitor runs fixed-pattern GDPR checks against a graph. The checks
// use index lookups rather than a query engine; SPARQL stays with the
// external triple store.
type Monitor struct {
	graph *rdf.Graph
	comp  rdf.Namespace
	data  rdf.Namespace
	log   zerolog.Logger
	now   func() time.Time
}

func NewMonitor(g *rdf.Graph, logger zerolog.Logger) *Monitor {
	return &Monitor{
		graph: g,
		comp:  rdf.Namespace(DefaultComplianceNS),
		data:  rdf.Namespace(DefaultSubjectNS),
		log:   logger.With().Str("component", "compliance").Logger(),
		now:   time.Now,
	}
}

// SetNamespaces overrides the compliance vocabulary and subject base.
func (m *Monitor) SetNamespaces(compliance, subjects string) {
	m.comp = rdf.Namespace(compliance)
	m.data = rdf.Namespace(subjects)
}

// CheckGDPR evaluates consent, legal basis and audit coverage for one
// data subject. Missing consent or legal basis is an issue; missing
// audit logs only a warning.
func (m *Monitor) CheckGDPR(subjectID string) Status {
	subject := m.data.IRI(subjectID)
	issues := []string{}
	warnings := []string{}

	consents := m.graph.Objects(subject, m.comp.IRI("hasConsent"))
	if len(consents) == 0 {
		issues = append(issues, "no consent records found (GDPR Article 6)")
	} else {
		active := 0
		for _, consent := range consents {
			for _, status := range m.graph.Objects(consent, m.comp.IRI("consentStatus")) {
				if literalValue(status) == "ACTIVE" {
					active++
				}
			}
		}
		if active == 0 {
			issues = append(issues, "no active consent found")
		}
	}

	withoutBasis := 0
	audited := 0
	for _, activity := range m.graph.Subjects(m.comp.IRI("concernsDataSubject"), subject) {
		if !m.graph.Has(rdf.Triple{Subject: activity, Predicate: rdf.RDFType, Object: m.comp.IRI("ProcessingActivity")}) {
			continue
		}
		if len(m.graph.Objects(activity, m.comp.IRI("hasLegalBasis"))) == 0 {
			withoutBasis++
		}
		audited += len(m.graph.Objects(activity, m.comp.IRI("hasAuditLog")))
	}
	if withoutBasis > 0 {
		issues = append(issues, fmt.Sprintf("%d processing activities without legal basis", withoutBasis))
	}
	if audited == 0 {
		warnings = append(warnings, "no audit logs found (GDPR Article 5, accountability)")
	}

	status := Status{
		Compliant: len(issues) == 0,
		Issues:    issues,
		Warnings:  warnings,
		CheckedAt: m.now(),
	}
	m.log.Debug().
		Str("subject", subjectID).
		Bool("compliant", status.Compliant).
		Int("issues", len(issues)).
		Msg("gdpr check")
	return status
}

// CheckConsent validates one consent record by its consentId.
func (m *Monitor) CheckConsent(consentID string) (ConsentValidity, error) {
	consents := m.graph.Subjects(m.comp.IRI("consentId"), rdf.NewLiteral(consentID))
	if len(consents) == 0 {
		return ConsentValidity{}, fmt.Errorf("consent %q not found", consentID)
	}
	consent := consents[0]

	v := ConsentValidity{
		Status:     m.firstValue(consent, "consentStatus"),
		GivenDate:  m.firstValue(consent, "consentGivenDate"),
		Method:     m.firstValue(consent, "consentMethod"),
		ExpiryDate: m.firstValue(consent, "consentExpiryDate"),
		Issues:     []string{},
	}
	v.Valid = v.Status == "ACTIVE"

	if v.ExpiryDate != "" {
		if expiry, err := parseDateTime(v.ExpiryDate); err == nil && expiry.Before(m.now()) {
			v.Valid = false
			v.Issues = append(v.Issues, "consent has expired")
		}
	}
	if v.Method != "EXPLICIT" && v.Method != "OPT_IN" {
		v.Issues = append(v.Issues, "consent method may not meet GDPR explicit consent requirement")
	}
	return v, nil
}

// ExpiringConsents lists active consents whose expiry falls inside the
// window, soonest first.
func (m *Monitor) ExpiringConsents(within time.Duration) []ExpiringConsent {
	cutoff := m.now().Add(within)
	var out []ExpiringConsent

	for _, consent := range m.graph.Subjects(rdf.RDFType, m.comp.IRI("Consent")) {
		if m.firstValue(consent, "consentStatus") != "ACTIVE" {
			continue
		}
		expiryRaw := m.firstValue(consent, "consentExpiryDate")
		if expiryRaw == "" {
			continue
		}
		expiry, err := parseDateTime(expiryRaw)
		if err != nil {
			m.log.Warn().Str("value", expiryRaw).Msg("unparseable consent expiry date")
			continue
		}
		if expiry.Before(m.now()) || expiry.After(cutoff) {
			continue
		}

		ec := ExpiringConsent{
			ConsentID:  m.firstValue(consent, "consentId"),
			ExpiryDate: expiryRaw,
			DaysLeft:   int(expiry.Sub(m.now()).Hours() / 24),
		}
		for _, purposeNode := range m.graph.Objects(consent, m.comp.IRI("consentFor")) {
			ec.Purpose = m.firstValue(purposeNode, "purposeName")
			break
		}
		out = append(out, ec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysLeft != out[j].DaysLeft {
			return out[i].DaysLeft < out[j].DaysLeft
		}
		return out[i].ConsentID < out[j].ConsentID
	})
	return out
}

// Report aggregates consent and processing-activity counts.
type Report struct {
	GeneratedAt          time.Time      `json:"generated_at"`
	ConsentsByStatus     map[string]int `json:"consents_by_status"`
	TotalConsents        int            `json:"total_consents"`
	ProcessingActivities int            `json:"processing_activities"`
}

func (m *Monitor) GenerateReport() Report {
	byStatus := make(map[string]int)
	total := 0
	for _, consent := range m.graph.Subjects(rdf.RDFType, m.comp.IRI("Consent")) {
		byStatus[m.firstValue(consent, "consentStatus")]++
		total++
	}
	activities := len(m.graph.Subjects(rdf.RDFType, m.comp.IRI("ProcessingActivity")))

	return Report{
		GeneratedAt:          m.now(),
		ConsentsByStatus:     byStatus,
		TotalConsents:        total,
		ProcessingActivities: activities,
	}
}

func (m *Monitor) firstValue(s rdf.Term, local string) string {
	for _, o := range m.graph.Objects(s, m.comp.IRI(local)) {
		return literalValue(o)
	}
	return ""
}

func literalValue(t rdf.Term) string {
	if lit, ok := t.(rdf.Literal); ok {
		return lit.Value
	}
	return ""
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", s)
}
