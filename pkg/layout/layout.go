// Package layout assigns a 2-D position to every surviving node.
//
// Two policies are provided:
//
//   - [Banded]: one vertical column per category, nodes stacked and centered
//     on the x axis. Used for entity-anchored queries.
//   - [Cluster]: operators on a coarse grid, each with its structurally
//     linked neighbors on a ring around it, and leftovers on an overflow grid
//     below. Used for operator-anchored queries.
//
// Both policies give every input node exactly one point and never place two
// nodes on the same point for valid options. Cluster layout draws jitter from
// an injectable [Source]; [NewSource] returns a seeded generator so the same
// seed reproduces the same layout.
package layout

import (
	"math"
	"math/rand/v2"

	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/graph"
)

// Point is a position in layout space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kind selects a layout policy.
type Kind string

// Layout kinds.
const (
	KindBanded  Kind = "banded"
	KindCluster Kind = "cluster"
)

// ParseKind converts a string to a Kind. The empty string yields banded.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindBanded:
		return KindBanded, nil
	case KindCluster:
		return KindCluster, nil
	}
	return "", errors.New(errors.ErrCodeInvalidLayout, "invalid layout: %q (must be one of: banded, cluster)", s)
}

// Source produces jitter values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic PCG generator for seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

type noJitter struct{}

func (noJitter) Float64() float64 { return 0 }

// NoJitter is a Source that always returns zero.
var NoJitter Source = noJitter{}

// =============================================================================
// Banded
// =============================================================================

// DefaultBandSpacing is the vertical distance between nodes in a band.
const DefaultBandSpacing = 80.0

// DefaultBandX is the x position of each category band.
var DefaultBandX = map[graph.Category]float64{
	graph.CategoryOperator: -360,
	graph.CategoryUID:      -200,
	graph.CategoryPerson:   0,
	graph.CategoryRef:      200,
	graph.CategoryOther:    360,
}

// BandOptions configures [Banded].
type BandOptions struct {
	X       map[graph.Category]float64 `json:"x,omitempty"`
	Spacing float64                    `json:"spacing,omitempty"`
}

func (o BandOptions) withDefaults() BandOptions {
	if o.Spacing == 0 {
		o.Spacing = DefaultBandSpacing
	}
	x := make(map[graph.Category]float64, len(DefaultBandX))
	for c, v := range DefaultBandX {
		x[c] = v
	}
	for c, v := range o.X {
		x[c] = v
	}
	o.X = x
	return o
}

// Validate rejects option sets that could place two nodes on one point.
func (o BandOptions) Validate() error {
	o = o.withDefaults()
	if o.Spacing <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "band spacing must be positive")
	}
	seen := make(map[float64]graph.Category, len(o.X))
	for _, c := range graph.Categories {
		x := o.X[c]
		if prev, ok := seen[x]; ok {
			return errors.New(errors.ErrCodeInvalidLayout, "bands %s and %s share x=%g", prev, c, x)
		}
		seen[x] = c
	}
	return nil
}

// Banded places nodes in per-category columns. Within a band, nodes keep
// their input order and are centered vertically on zero.
func Banded(nodes []graph.Node, cats map[string]graph.Category, opts BandOptions) map[string]Point {
	opts = opts.withDefaults()

	bands := make(map[graph.Category][]string)
	for _, n := range nodes {
		c := cats[n.ID]
		if c == "" {
			c = graph.CategoryOther
		}
		bands[c] = append(bands[c], n.ID)
	}

	out := make(map[string]Point, len(nodes))
	for c, ids := range bands {
		x := opts.X[c]
		offset := float64(len(ids)-1) * opts.Spacing / 2
		for i, id := range ids {
			out[id] = Point{X: x, Y: float64(i)*opts.Spacing - offset}
		}
	}
	return out
}

// =============================================================================
// Cluster
// =============================================================================

// ClusterOptions configures [Cluster].
type ClusterOptions struct {
	Columns         int     `json:"columns,omitempty"`          // hubs per grid row
	Pitch           float64 `json:"pitch,omitempty"`            // distance between hubs
	Radius          float64 `json:"radius,omitempty"`           // neighbor ring radius
	Jitter          float64 `json:"jitter,omitempty"`           // max jitter per axis
	OverflowColumns int     `json:"overflow_columns,omitempty"` // leftovers per row
	OverflowX       float64 `json:"overflow_x,omitempty"`
	OverflowY       float64 `json:"overflow_y,omitempty"`
	OverflowOffset  float64 `json:"overflow_offset,omitempty"` // gap below the last hub row
}

// DefaultClusterOptions returns the standard cluster geometry.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		Columns:         7,
		Pitch:           700,
		Radius:          250,
		Jitter:          40,
		OverflowColumns: 5,
		OverflowX:       200,
		OverflowY:       150,
		OverflowOffset:  600,
	}
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	d := DefaultClusterOptions()
	if o.Columns == 0 {
		o.Columns = d.Columns
	}
	if o.Pitch == 0 {
		o.Pitch = d.Pitch
	}
	if o.Radius == 0 {
		o.Radius = d.Radius
	}
	if o.Jitter == 0 {
		o.Jitter = d.Jitter
	}
	if o.OverflowColumns == 0 {
		o.OverflowColumns = d.OverflowColumns
	}
	if o.OverflowX == 0 {
		o.OverflowX = d.OverflowX
	}
	if o.OverflowY == 0 {
		o.OverflowY = d.OverflowY
	}
	if o.OverflowOffset == 0 {
		o.OverflowOffset = d.OverflowOffset
	}
	return o
}

// Validate rejects geometry where rings could overlap each other or the
// overflow grid.
func (o ClusterOptions) Validate() error {
	o = o.withDefaults()
	reach := o.Radius + o.Jitter
	switch {
	case o.Columns < 1 || o.OverflowColumns < 1:
		return errors.New(errors.ErrCodeInvalidLayout, "cluster columns must be positive")
	case o.Radius <= 0 || o.Jitter < 0:
		return errors.New(errors.ErrCodeInvalidLayout, "cluster radius must be positive and jitter non-negative")
	case o.Pitch <= 2*reach:
		return errors.New(errors.ErrCodeInvalidLayout, "cluster pitch %g must exceed twice radius plus jitter (%g)", o.Pitch, 2*reach)
	case o.OverflowOffset <= reach:
		return errors.New(errors.ErrCodeInvalidLayout, "overflow offset %g must exceed radius plus jitter (%g)", o.OverflowOffset, reach)
	case o.OverflowX <= 0 || o.OverflowY <= 0:
		return errors.New(errors.ErrCodeInvalidLayout, "overflow spacing must be positive")
	}
	return nil
}

// Cluster places operators on a grid and their structural neighbors on a ring
// around them. A node already placed keeps its first position. Nodes reached
// by no operator go to an overflow grid below the last hub row.
func Cluster(nodes []graph.Node, cats map[string]graph.Category, rels []graph.Relationship, opts ClusterOptions, src Source) map[string]Point {
	opts = opts.withDefaults()
	if src == nil {
		src = NoJitter
	}

	var hubs []string
	for _, n := range nodes {
		if cats[n.ID] == graph.CategoryOperator {
			hubs = append(hubs, n.ID)
		}
	}

	out := make(map[string]Point, len(nodes))
	for i, id := range hubs {
		out[id] = hubPoint(i, opts)
	}

	for i, hub := range hubs {
		center := hubPoint(i, opts)
		neighbors := structuralNeighbors(hub, rels)
		for j, id := range neighbors {
			if _, ok := out[id]; ok {
				continue
			}
			angle := float64(j) / float64(len(neighbors)) * 2 * math.Pi
			out[id] = Point{
				X: center.X + opts.Radius*math.Cos(angle) + src.Float64()*opts.Jitter,
				Y: center.Y + opts.Radius*math.Sin(angle) + src.Float64()*opts.Jitter,
			}
		}
	}

	top := 0.0
	if len(hubs) > 0 {
		rows := (len(hubs) + opts.Columns - 1) / opts.Columns
		top = float64(rows-1)*opts.Pitch + opts.OverflowOffset
	}
	idx := 0
	for _, n := range nodes {
		if _, ok := out[n.ID]; ok {
			continue
		}
		out[n.ID] = Point{
			X: float64(idx%opts.OverflowColumns) * opts.OverflowX,
			Y: top + float64(idx/opts.OverflowColumns)*opts.OverflowY,
		}
		idx++
	}
	return out
}

func hubPoint(i int, opts ClusterOptions) Point {
	return Point{
		X: float64(i%opts.Columns) * opts.Pitch,
		Y: float64(i/opts.Columns) * opts.Pitch,
	}
}

// structuralNeighbors returns the distinct nodes linked to hub by a
// structural relationship, in relationship order.
func structuralNeighbors(hub string, rels []graph.Relationship) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rels {
		if !r.Class().IsStructural() || !r.Touches(hub) {
			continue
		}
		id := r.Other(hub)
		if id == hub || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
