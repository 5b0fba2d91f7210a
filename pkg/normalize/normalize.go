// Package normalize converts raw backend payloads into canonical graph
// components.
//
// The backend returns neighborhoods in several envelopes and with several
// field spellings. [Decode] classifies the payload into a [Shape] first and
// only then extracts nodes and relationships, so each envelope is handled by
// exactly one branch:
//
//	[ {nodes, relationships}, ... ]        → ShapeList
//	{ "components": [...] | {...} }        → ShapeComponents
//	{ "component":  [...] | {...} }        → ShapeComponent
//	{ "nodes" | "relationships" | ... }    → ShapeGraph
//	anything else                          → ShapeUnknown (no components)
//
// Unrecognized or invalid payloads never produce an error; they produce an
// empty component list.
package normalize

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/refgraph/refgraph/pkg/graph"
)

// Shape identifies the envelope of a payload.
type Shape int

// Payload shapes.
const (
	ShapeUnknown Shape = iota
	ShapeList
	ShapeComponents
	ShapeComponent
	ShapeGraph
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeComponents:
		return "components"
	case ShapeComponent:
		return "component"
	case ShapeGraph:
		return "graph"
	default:
		return "unknown"
	}
}

// Result is the outcome of decoding a payload.
type Result struct {
	Shape      Shape
	Components []graph.Component
}

// Field aliases, in lookup order.
var (
	nodeIDPaths    = []string{"node_id", "id", "props.id", "properties.id"}
	nodeListPaths  = []string{"nodes", "incoming"}
	relListPaths   = []string{"relationships", "edges"}
	relIDPaths     = []string{"id", "rel_id"}
	relStartPaths  = []string{"startId", "start_node_id", "start", "from", "source"}
	relEndPaths    = []string{"endId", "end_node_id", "end", "to", "target"}
	relTypePaths   = []string{"type", "label"}
	graphShapeKeys = []string{"nodes", "relationships", "edges", "incoming"}
)

// reservedRelKeys are envelope fields never treated as inline properties.
var reservedRelKeys = map[string]bool{
	"id": true, "rel_id": true, "type": true, "label": true, "labels": true,
	"startId": true, "start_node_id": true, "start": true, "from": true, "source": true,
	"endId": true, "end_node_id": true, "end": true, "to": true, "target": true,
	"props": true, "properties": true,
}

// Detect classifies the payload envelope without decoding it.
func Detect(data []byte) Shape {
	if !gjson.ValidBytes(data) {
		return ShapeUnknown
	}
	return detect(gjson.ParseBytes(data))
}

func detect(root gjson.Result) Shape {
	switch {
	case root.IsArray():
		return ShapeList
	case !root.IsObject():
		return ShapeUnknown
	case isContainer(root.Get("components")):
		return ShapeComponents
	case isContainer(root.Get("component")):
		return ShapeComponent
	}
	for _, k := range graphShapeKeys {
		if root.Get(k).Exists() {
			return ShapeGraph
		}
	}
	return ShapeUnknown
}

// isContainer reports whether v can hold components. A null or scalar
// envelope key falls through to the bare graph shape.
func isContainer(v gjson.Result) bool {
	return v.IsArray() || v.IsObject()
}

// Decode classifies and decodes a payload into components.
func Decode(data []byte) Result {
	if !gjson.ValidBytes(data) {
		return Result{Shape: ShapeUnknown}
	}
	root := gjson.ParseBytes(data)
	shape := detect(root)

	var raw []gjson.Result
	switch shape {
	case ShapeList:
		raw = root.Array()
	case ShapeComponents:
		raw = unwrap(root.Get("components"))
	case ShapeComponent:
		raw = unwrap(root.Get("component"))
	case ShapeGraph:
		raw = []gjson.Result{root}
	}

	comps := make([]graph.Component, 0, len(raw))
	for i, c := range raw {
		comps = append(comps, decodeComponent(i, c))
	}
	return Result{Shape: shape, Components: comps}
}

// Graph decodes a payload and merges its components into a single graph.
func Graph(data []byte) *graph.Graph {
	return graph.NewGraph(Decode(data).Components)
}

func unwrap(v gjson.Result) []gjson.Result {
	switch {
	case v.IsArray():
		return v.Array()
	case v.IsObject():
		return []gjson.Result{v}
	}
	return nil
}

func decodeComponent(idx int, c gjson.Result) graph.Component {
	var comp graph.Component
	if !c.IsObject() {
		return comp
	}
	for _, n := range firstArray(c, nodeListPaths) {
		if node, ok := decodeNode(n); ok {
			comp.Nodes = append(comp.Nodes, node)
		}
	}
	for i, r := range firstArray(c, relListPaths) {
		if rel, ok := decodeRelationship(idx, i, r); ok {
			comp.Relationships = append(comp.Relationships, rel)
		}
	}
	return comp
}

func decodeNode(v gjson.Result) (graph.Node, bool) {
	if !v.IsObject() {
		return graph.Node{}, false
	}
	id := firstString(v, nodeIDPaths)
	if id == "" {
		return graph.Node{}, false
	}

	n := graph.Node{ID: id}
	switch labels := v.Get("labels"); {
	case labels.IsArray():
		for _, l := range labels.Array() {
			if l.Type == gjson.String {
				n.Labels = append(n.Labels, l.String())
			}
		}
	case labels.Type == gjson.String:
		n.Labels = []string{labels.String()}
	}

	for _, p := range []string{"props", "properties"} {
		if props := v.Get(p); props.IsObject() {
			if m, ok := props.Value().(map[string]any); ok {
				n.Properties = m
			}
			break
		}
	}
	return n, true
}

func decodeRelationship(comp, idx int, v gjson.Result) (graph.Relationship, bool) {
	if !v.IsObject() {
		return graph.Relationship{}, false
	}
	r := graph.Relationship{
		ID:      firstString(v, relIDPaths),
		StartID: firstString(v, relStartPaths),
		EndID:   firstString(v, relEndPaths),
		Type:    firstString(v, relTypePaths),
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("e-%d-%d-%s-%s", comp, idx, r.StartID, r.EndID)
	}

	switch {
	case v.Get("props").IsObject():
		r.Properties = scalars(v.Get("props"), nil)
	case v.Get("properties").IsObject():
		r.Properties = scalars(v.Get("properties"), nil)
	default:
		r.Properties = scalars(v, reservedRelKeys)
	}
	return r, true
}

// firstString returns the first path that holds a non-empty string or number.
func firstString(v gjson.Result, paths []string) string {
	for _, p := range paths {
		r := v.Get(p)
		if r.Type != gjson.String && r.Type != gjson.Number {
			continue
		}
		if s := r.String(); s != "" {
			return s
		}
	}
	return ""
}

func firstArray(v gjson.Result, paths []string) []gjson.Result {
	for _, p := range paths {
		if r := v.Get(p); r.IsArray() {
			return r.Array()
		}
	}
	return nil
}

// scalars keeps number, string and null members of an object.
func scalars(v gjson.Result, skip map[string]bool) map[string]any {
	out := make(map[string]any)
	v.ForEach(func(k, val gjson.Result) bool {
		key := k.String()
		if skip[key] {
			return true
		}
		switch val.Type {
		case gjson.Number:
			out[key] = val.Float()
		case gjson.String:
			out[key] = val.String()
		case gjson.Null:
			out[key] = nil
		}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
