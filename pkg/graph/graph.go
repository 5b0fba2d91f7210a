package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// =============================================================================
// Graph - Merged Neighborhood
// =============================================================================

// Graph is the flattened union of all components in a payload.
//
// Node and relationship IDs are unique (first occurrence wins) and every
// relationship's endpoints reference a node in Nodes. Dropped counts
// relationships that were discarded for referencing an unknown node, and
// Duplicates those repeated by overlapping components.
type Graph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Dropped       int            `json:"dropped,omitempty"`
	Duplicates    int            `json:"duplicates,omitempty"`

	index map[string]int
}

// NewGraph builds a Graph from components. Duplicate node IDs are ignored
// after the first occurrence and dangling relationships are dropped.
//
// A relationship repeating an earlier ID with the same endpoints and type is
// the same edge seen through another component and is skipped. One that
// reuses an ID for a different edge is renamed to e-{component}-{index}-{start}-{end}.
func NewGraph(components []Component) *Graph {
	g := &Graph{index: make(map[string]int)}
	for _, c := range components {
		for _, n := range c.Nodes {
			if _, ok := g.index[n.ID]; ok {
				continue
			}
			g.index[n.ID] = len(g.Nodes)
			g.Nodes = append(g.Nodes, n)
		}
	}
	seen := make(map[string]int)
	for ci, c := range components {
		for i, r := range c.Relationships {
			if !g.Has(r.StartID) || !g.Has(r.EndID) {
				g.Dropped++
				continue
			}
			if j, ok := seen[r.ID]; ok {
				if prev := g.Relationships[j]; prev.StartID == r.StartID && prev.EndID == r.EndID && prev.Type == r.Type {
					g.Duplicates++
					continue
				}
				r.ID = scopedID(seen, ci, i, r)
			}
			seen[r.ID] = len(g.Relationships)
			g.Relationships = append(g.Relationships, r)
		}
	}
	return g
}

func scopedID(seen map[string]int, comp, idx int, r Relationship) string {
	id := fmt.Sprintf("e-%d-%d-%s-%s", comp, idx, r.StartID, r.EndID)
	for n := 1; ; n++ {
		if _, taken := seen[id]; !taken {
			return id
		}
		id = fmt.Sprintf("e-%d-%d-%s-%s-%d", comp, idx, r.StartID, r.EndID, n)
	}
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// RelationshipCount returns the number of relationships.
func (g *Graph) RelationshipCount() int { return len(g.Relationships) }

// =============================================================================
// Render Model - Pipeline Output
// =============================================================================

// RenderModel is the complete, renderer-ready output of the pipeline.
// It is regenerated wholesale whenever the input or configuration changes.
type RenderModel struct {
	Nodes     []RenderNode `json:"nodes"`
	Edges     []RenderEdge `json:"edges"`
	Counts    Counts       `json:"counts"`
	MaxDegree int          `json:"maxDegree"`
	Layout    string       `json:"layout,omitempty"`
}

// RenderNode is a positioned, styled node.
type RenderNode struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Title    string   `json:"title"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Color    Color    `json:"color"`
	Size     float64  `json:"size"`
	Category Category `json:"category"`
	Labels   []string `json:"labels,omitempty"`
	Degree   int      `json:"degree"`
}

// Color holds the fill and border colors of a node as #rrggbb strings.
type Color struct {
	Background string `json:"background"`
	Border     string `json:"border"`
}

// RenderEdge is a visible relationship.
type RenderEdge struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Title string `json:"title"`
	Class Class  `json:"class"`
}

// Counts summarizes the render model.
type Counts struct {
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
	Connected int `json:"connected"` // visible nodes touched by at least one visible edge
}

// Node returns the render node with the given ID.
func (m RenderModel) Node(id string) (RenderNode, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return RenderNode{}, false
}

// MarshalModel serializes a render model to indented JSON.
func MarshalModel(m RenderModel) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalModel deserializes JSON bytes to a render model.
func UnmarshalModel(data []byte) (RenderModel, error) {
	var m RenderModel
	if err := json.Unmarshal(data, &m); err != nil {
		return RenderModel{}, err
	}
	return m, nil
}

// WriteModel writes a render model as indented JSON followed by a newline.
func WriteModel(w io.Writer, m RenderModel) error {
	data, err := MarshalModel(m)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
