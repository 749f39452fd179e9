package rdf

// Namespace is an IRI prefix that mints terms for its local names.
type Namespace string

func (ns Namespace) IRI(local string) IRI {
	return IRI{Value: string(ns) + local}
}

// Well-known namespaces.
const (
	NSRDF  Namespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS Namespace = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL  Namespace = "http://www.w3.org/2002/07/owl#"
	NSXSD  Namespace = "http://www.w3.org/2001/XMLSchema#"
	NSSKOS Namespace = "http://www.w3.org/2004/02/skos/core#"
	NSPROV Namespace = "http://www.w3.org/ns/prov#"
)

var (
	RDFType   = NSRDF.IRI("type")
	RDFSLabel = NSRDFS.IRI("label")

	OWLClass            = NSOWL.IRI("Class")
	OWLObjectProperty   = NSOWL.IRI("ObjectProperty")
	OWLDatatypeProperty = NSOWL.IRI("DatatypeProperty")

	XSDString   = NSXSD.IRI("string")
	XSDBoolean  = NSXSD.IRI("boolean")
	XSDInteger  = NSXSD.IRI("integer")
	XSDDecimal  = NSXSD.IRI("decimal")
	XSDDate     = NSXSD.IRI("date")
	XSDDateTime = NSXSD.IRI("dateTime")
	XSDAnyURI   = NSXSD.IRI("anyURI")

	PROVActivity       = NSPROV.IRI("Activity")
	PROVWasDerivedFrom = NSPROV.IRI("wasDerivedFrom")
	PROVWasGeneratedBy = NSPROV.IRI("wasGeneratedBy")
	PROVStartedAtTime  = NSPROV.IRI("startedAtTime")
)

// StandardPrefixes maps conventional prefix labels to their namespaces,
// used when serializing Turtle.
var StandardPrefixes = map[string]Namespace{
	"rdf":  NSRDF,
	"rdfs": NSRDFS,
	"owl":  NSOWL,
	"xsd":  NSXSD,
	"skos": NSSKOS,
	"prov": NSPROV,
}
