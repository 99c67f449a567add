package rdf

// Namespace IRIs of the vocabularies used by the exporters.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// rdfXMLNS is kept as a separate name for the RDF/XML root element.
const rdfXMLNS = RDFNamespace

var (
	RDFType = IRI{Value: RDFNamespace + "type"}

	RDFSLabel   = IRI{Value: RDFSNamespace + "label"}
	RDFSDomain  = IRI{Value: RDFSNamespace + "domain"}
	RDFSRange   = IRI{Value: RDFSNamespace + "range"}
	RDFSComment = IRI{Value: RDFSNamespace + "comment"}

	OWLClass          = IRI{Value: OWLNamespace + "Class"}
	OWLObjectProperty = IRI{Value: OWLNamespace + "ObjectProperty"}

	XSDString   = IRI{Value: XSDNamespace + "string"}
	XSDInteger  = IRI{Value: XSDNamespace + "integer"}
	XSDLong     = IRI{Value: XSDNamespace + "long"}
	XSDInt      = IRI{Value: XSDNamespace + "int"}
	XSDDouble   = IRI{Value: XSDNamespace + "double"}
	XSDFloat    = IRI{Value: XSDNamespace + "float"}
	XSDDecimal  = IRI{Value: XSDNamespace + "decimal"}
	XSDBoolean  = IRI{Value: XSDNamespace + "boolean"}
	XSDDate     = IRI{Value: XSDNamespace + "date"}
	XSDDateTime = IRI{Value: XSDNamespace + "dateTime"}
)
