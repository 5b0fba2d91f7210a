package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Categories
// =============================================================================

// Category is the semantic bucket a node falls into after classification.
type Category string

// Node categories.
const (
	CategoryOperator Category = "operator"
	CategoryUID      Category = "uid"
	CategoryPerson   Category = "person"
	CategoryRef      Category = "ref"
	CategoryOther    Category = "other"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategoryOperator,
	CategoryUID,
	CategoryPerson,
	CategoryRef,
	CategoryOther,
}

// IsOwner reports whether nodes of this category own other entities through
// structural relationships (uids and operators).
func (c Category) IsOwner() bool {
	return c == CategoryOperator || c == CategoryUID
}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// =============================================================================
// Relationship Classes
// =============================================================================

// Class is the filtering class of a relationship, derived from its type.
type Class string

// Relationship classes.
const (
	ClassMatch    Class = "match"
	ClassBelongs  Class = "belongs"
	ClassOperated Class = "operated"
	ClassOther    Class = "other"
)

// ClassOf returns the class for a relationship type.
func ClassOf(typ string) Class {
	if strings.EqualFold(typ, "matches") || strings.EqualFold(typ, "match") {
		return ClassMatch
	}
	lower := strings.ToLower(typ)
	switch {
	case strings.Contains(lower, "belongs"):
		return ClassBelongs
	case strings.Contains(lower, "operat"):
		return ClassOperated
	default:
		return ClassOther
	}
}

// IsStructural reports whether the class links an owner to the entities it owns.
func (c Class) IsStructural() bool {
	return c == ClassBelongs || c == ClassOperated
}

// =============================================================================
// Node
// =============================================================================

// Node is a normalized graph entity. Identity is ID.
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// DisplayLabel returns the "id" property if present, otherwise the node ID.
func (n Node) DisplayLabel() string {
	switch v := n.Properties["id"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return n.ID
}

// =============================================================================
// Relationship
// =============================================================================

// Relationship is a normalized edge between two nodes. It is directed for
// rendering and treated as undirected for degree computation.
//
// Property values are float64, string or nil.
type Relationship struct {
	ID         string         `json:"id"`
	StartID    string         `json:"start"`
	EndID      string         `json:"end"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Class returns the relationship class derived from its type.
func (r Relationship) Class() Class { return ClassOf(r.Type) }

// Touches reports whether id is one of the relationship's endpoints.
func (r Relationship) Touches(id string) bool {
	return r.StartID == id || r.EndID == id
}

// Other returns the endpoint opposite to id.
func (r Relationship) Other(id string) string {
	if r.StartID == id {
		return r.EndID
	}
	return r.StartID
}

// =============================================================================
// Component
// =============================================================================

// Component is one connected neighborhood as returned by the backend.
type Component struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}
