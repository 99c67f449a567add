package rdf

import (
	"mime"
	"sort"
	"strconv"
	"strings"
)

// Format identifies RDF serialization formats.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatTriG     Format = "trig"
	FormatNTriples Format = "ntriples"
	FormatRDFXML   Format = "rdfxml"
	FormatJSONLD   Format = "jsonld"
)

// DefaultFormat is used when neither a format parameter nor an Accept header
// selects a supported serialization.
const DefaultFormat = FormatTurtle

// Formats lists the supported formats in negotiation order.
var Formats = []Format{FormatRDFXML, FormatJSONLD, FormatTurtle, FormatNTriples, FormatTriG}

// Name returns the display name of the format.
func (f Format) Name() string {
	switch f {
	case FormatTurtle:
		return "Turtle"
	case FormatTriG:
		return "TriG"
	case FormatNTriples:
		return "N-Triples"
	case FormatRDFXML:
		return "RDF/XML"
	case FormatJSONLD:
		return "JSON-LD"
	default:
		return string(f)
	}
}

// MediaType returns the default media type of the format.
func (f Format) MediaType() string {
	types := f.mediaTypes()
	if len(types) == 0 {
		return "application/octet-stream"
	}
	return types[0]
}

func (f Format) mediaTypes() []string {
	switch f {
	case FormatTurtle:
		return []string{"text/turtle", "application/x-turtle", "text/n3"}
	case FormatTriG:
		return []string{"application/trig", "application/x-trig"}
	case FormatNTriples:
		return []string{"application/n-triples", "text/plain"}
	case FormatRDFXML:
		return []string{"application/rdf+xml", "application/xml", "text/xml"}
	case FormatJSONLD:
		return []string{"application/ld+json"}
	default:
		return nil
	}
}

// ParseFormat normalizes a format string. Both short names ("ttl", "nt") and
// display names ("Turtle", "N-Triples", "RDF/XML") are accepted.
func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "turtle", "ttl":
		return FormatTurtle, true
	case "trig":
		return FormatTriG, true
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, true
	case "rdfxml", "rdf/xml", "rdf", "xml":
		return FormatRDFXML, true
	case "jsonld", "json-ld", "json":
		return FormatJSONLD, true
	default:
		return "", false
	}
}

// FormatFromMediaType maps a single media type (parameters allowed) to a format.
func FormatFromMediaType(contentType string) (Format, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	for _, f := range Formats {
		for _, candidate := range f.mediaTypes() {
			if candidate == mediaType {
				return f, true
			}
		}
	}
	return "", false
}

// NegotiationSource records which input selected a format.
type NegotiationSource string

const (
	FromParam   NegotiationSource = "param"
	FromAccept  NegotiationSource = "accept"
	FromDefault NegotiationSource = "default"
)

// Negotiate selects the output format. An explicit format parameter takes
// precedence over the Accept header; when the parameter is present but
// unrecognized, the Accept header is not consulted. Anything unrecognized or
// absent yields DefaultFormat.
func Negotiate(formatParam, accept string) (Format, NegotiationSource) {
	if formatParam != "" {
		if f, ok := ParseFormat(formatParam); ok {
			return f, FromParam
		}
		return DefaultFormat, FromDefault
	}
	for _, candidate := range acceptedMediaTypes(accept) {
		if f, ok := FormatFromMediaType(candidate); ok {
			return f, FromAccept
		}
	}
	return DefaultFormat, FromDefault
}

// acceptedMediaTypes splits an Accept header and orders entries by q value,
// keeping header order for ties.
func acceptedMediaTypes(accept string) []string {
	type entry struct {
		mediaType string
		q         float64
	}
	var entries []entry
	for _, part := range strings.Split(accept, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mediaType, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		entries = append(entries, entry{mediaType: mediaType, q: q})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].q > entries[j].q })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.mediaType
	}
	return out
}
