package graph

import (
	"sort"
)

// Labels used as bookkeeping markers on nodes created by RDF ingestion.
const (
	LabelResource = "Resource"
	LabelURI      = "URI"
	LabelBNode    = "BNode"
)

// PropertyURI is the property holding the original RDF identifier of an
// ingested node.
const PropertyURI = "uri"

// IsReservedLabel reports whether label is an ingestion bookkeeping marker.
func IsReservedLabel(label string) bool {
	switch label {
	case LabelResource, LabelURI, LabelBNode:
		return true
	}
	return false
}

// Node is a labeled property graph node.
type Node struct {
	ID         int64
	Labels     []string
	Properties map[string]Value
}

// HasLabel reports whether the node carries label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Property returns the value stored under key.
func (n Node) Property(key string) (Value, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

// Keys returns the property keys in sorted order.
func (n Node) Keys() []string {
	keys := make([]string, 0, len(n.Properties))
	for key := range n.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// URI returns the string uri property, if present.
func (n Node) URI() (string, bool) {
	v, ok := n.Properties[PropertyURI]
	if !ok || v.Kind() != KindString {
		return "", false
	}
	return v.Str(), true
}

// Relationship is a typed, directed edge between two nodes.
type Relationship struct {
	ID      int64
	Type    string
	StartID int64
	EndID   int64
}

// Other returns the id of the endpoint opposite to nodeID.
func (r Relationship) Other(nodeID int64) int64 {
	if r.StartID == nodeID {
		return r.EndID
	}
	return r.StartID
}

// Path is an alternating sequence of nodes and relationships. Nodes has one
// more element than Relationships.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// Neighbour pairs a relationship with the node on its far side.
type Neighbour struct {
	Relationship Relationship
	Node         Node
}

// Direction selects relationships by orientation relative to a node.
type Direction uint8

const (
	Both Direction = iota
	Outgoing
	Incoming
)

// ParseDirection maps the direction tokens ">" and "<" to Outgoing and
// Incoming. Anything else means Both.
func ParseDirection(token string) Direction {
	switch token {
	case ">":
		return Outgoing
	case "<":
		return Incoming
	default:
		return Both
	}
}

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return ">"
	case Incoming:
		return "<"
	default:
		return ""
	}
}

// Matches reports whether rel is selected by d relative to nodeID.
func (d Direction) Matches(rel Relationship, nodeID int64) bool {
	switch d {
	case Outgoing:
		return rel.StartID == nodeID
	case Incoming:
		return rel.EndID == nodeID
	default:
		return rel.StartID == nodeID || rel.EndID == nodeID
	}
}
