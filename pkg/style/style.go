// Package style maps node metrics to colors, sizes and tooltips.
//
// A node's metric is normalized against the graph's maximum degree into
// t ∈ [0, 1]. The fill color is a per-channel linear blend from the low to
// the high anchor, the border is the fill darkened by a constant factor, and
// the size is a linear interpolation between a minimum and maximum diameter.
// Equal metrics always produce equal styles, and a larger metric never
// produces a smaller node.
package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/filter"
	"github.com/refgraph/refgraph/pkg/graph"
)

// Default ramp values.
const (
	DefaultLow          = "#7ed321"
	DefaultHigh         = "#ff4444"
	DefaultBorderFactor = 0.78
	DefaultMinSize      = 16.0
	DefaultMaxSize      = 56.0
)

// Options configures the visual ramp.
type Options struct {
	Low          string  `json:"low,omitempty" toml:"low"`
	High         string  `json:"high,omitempty" toml:"high"`
	BorderFactor float64 `json:"border_factor,omitempty" toml:"border_factor"`
	MinSize      float64 `json:"min_size,omitempty" toml:"min_size"`
	MaxSize      float64 `json:"max_size,omitempty" toml:"max_size"`
}

// SetDefaults fills unset fields with the default ramp.
func (o *Options) SetDefaults() {
	if o.Low == "" {
		o.Low = DefaultLow
	}
	if o.High == "" {
		o.High = DefaultHigh
	}
	if o.BorderFactor == 0 {
		o.BorderFactor = DefaultBorderFactor
	}
	if o.MinSize == 0 {
		o.MinSize = DefaultMinSize
	}
	if o.MaxSize == 0 {
		o.MaxSize = DefaultMaxSize
	}
}

// Ramp is a compiled set of [Options].
type Ramp struct {
	low, high colorful.Color
	opts      Options
}

// NewRamp parses the anchor colors and validates sizes.
func NewRamp(opts Options) (*Ramp, error) {
	opts.SetDefaults()
	low, err := colorful.Hex(opts.Low)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid low color %q", opts.Low)
	}
	high, err := colorful.Hex(opts.High)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid high color %q", opts.High)
	}
	if opts.MinSize <= 0 || opts.MaxSize < opts.MinSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid size range [%g, %g]", opts.MinSize, opts.MaxSize)
	}
	if opts.BorderFactor < 0 || opts.BorderFactor > 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "border factor must be within [0, 1]")
	}
	return &Ramp{low: low, high: high, opts: opts}, nil
}

// Ratio normalizes metric against maxDegree into [0, 1].
func Ratio(metric, maxDegree int) float64 {
	if maxDegree <= 0 {
		return 0
	}
	return max(0, min(1, float64(metric)/float64(maxDegree)))
}

// Color returns the fill and border for a metric.
func (r *Ramp) Color(metric, maxDegree int) graph.Color {
	c := r.low.BlendRgb(r.high, Ratio(metric, maxDegree))
	f := r.opts.BorderFactor
	border := colorful.Color{R: c.R * f, G: c.G * f, B: c.B * f}
	return graph.Color{Background: c.Hex(), Border: border.Hex()}
}

// Size returns the node diameter for a metric, rounded to a whole pixel.
func (r *Ramp) Size(metric, maxDegree int) float64 {
	t := Ratio(metric, maxDegree)
	return math.Round(r.opts.MinSize + t*(r.opts.MaxSize-r.opts.MinSize))
}

// =============================================================================
// Tooltips
// =============================================================================

// NodeTitle builds the hover text for a node.
func NodeTitle(n graph.Node, cat graph.Category, metric int, s degree.Summary) string {
	types := strings.Join(n.Labels, ", ")
	if types == "" {
		types = "Unknown"
	}
	return fmt.Sprintf("ID: %s | Category: %s | Type: %s | Degree: %d\n%s", n.ID, cat, types, metric, s)
}

// EdgeTitle builds the hover text for a relationship. Match relationships
// list their numeric scores in keys order.
func EdgeTitle(r graph.Relationship, keys []string) string {
	if r.Class() != graph.ClassMatch {
		return r.Type
	}
	var parts []string
	for _, k := range keys {
		if v, ok := filter.Score(r.Properties, k); ok {
			parts = append(parts, k+": "+strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	if len(parts) == 0 {
		return r.Type
	}
	return r.Type + "\n" + strings.Join(parts, " | ")
}
