// Package pipeline turns a raw backend payload into a render model.
//
// # Stages
//
//  1. Normalize: decode the payload into components and merge them
//  2. Classify: assign every node a category
//  3. Evaluate: keep the relationships that pass the score filter
//  4. Degree: compute direct, match and transitive degrees
//  5. Prune: optionally drop sparse owner nodes
//  6. Layout: position the surviving nodes
//  7. Style: map metrics to colors, sizes and tooltips
//
// [Run] executes all stages synchronously and is a pure function of its
// payload and [Options]. A malformed payload yields an empty model, never an
// error; only invalid options are reported.
//
// # Usage
//
//	opts := pipeline.Options{Layout: layout.KindCluster, Prune: true}
//	model, err := pipeline.Run(payload, opts)
//
// [Runner] adds memoization on top of [Run], keyed by the payload hash and
// the option set:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	model, hit, err := runner.Run(ctx, payload, opts)
package pipeline

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"

	"github.com/refgraph/refgraph/pkg/cache"
	"github.com/refgraph/refgraph/pkg/classify"
	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/filter"
	"github.com/refgraph/refgraph/pkg/layout"
	"github.com/refgraph/refgraph/pkg/style"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API and TUI
// =============================================================================

const (
	// DefaultLayout is used when no layout is requested.
	DefaultLayout = layout.KindBanded

	// DefaultMetric drives node color and size.
	DefaultMetric = degree.DefaultPolicy

	// DefaultSeed seeds cluster jitter.
	DefaultSeed = uint64(42)
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks every format in formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options is the complete, immutable configuration of one pipeline run.
// Methods take Options by value; the caller's copy is never modified.
type Options struct {
	// Filter selects score keys and thresholds. A zero Filter selects every
	// key in ScoreKeys with a zero threshold.
	Filter filter.Config `json:"filter"`

	// ScoreKeys is the universe of score properties tallied per node.
	ScoreKeys []string `json:"score_keys,omitempty"`

	Prune  bool          `json:"prune,omitempty"`
	Layout layout.Kind   `json:"layout,omitempty"`
	Metric degree.Policy `json:"metric,omitempty"`
	Seed   uint64        `json:"seed,omitempty"`

	Bands   layout.BandOptions    `json:"bands,omitzero"`
	Cluster layout.ClusterOptions `json:"cluster,omitzero"`
	Style   style.Options         `json:"style,omitzero"`

	// Runtime options (not serialized)
	Rules  classify.Rules `json:"-"` // nil uses classify.DefaultRules
	Jitter layout.Source  `json:"-"` // nil uses a PCG source seeded with Seed
	Logger *log.Logger    `json:"-"`
}

// WithDefaults returns a copy of o with every unset field filled in.
func (o Options) WithDefaults() Options {
	if len(o.ScoreKeys) == 0 {
		o.ScoreKeys = filter.DefaultScoreKeys
	}
	if o.Filter.IsZero() {
		o.Filter = filter.DefaultConfig(o.ScoreKeys)
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if o.Metric == "" {
		o.Metric = DefaultMetric
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Rules == nil {
		o.Rules = classify.DefaultRules
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	o = o.WithDefaults()
	if _, err := layout.ParseKind(string(o.Layout)); err != nil {
		return err
	}
	if _, err := degree.ParsePolicy(string(o.Metric)); err != nil {
		return err
	}
	if err := o.Filter.Validate(); err != nil {
		return err
	}
	switch o.Layout {
	case layout.KindBanded:
		if err := o.Bands.Validate(); err != nil {
			return err
		}
	case layout.KindCluster:
		if err := o.Cluster.Validate(); err != nil {
			return err
		}
	}
	if _, err := style.NewRamp(o.Style); err != nil {
		return err
	}
	return nil
}

// KeyOpts returns the cache key options describing o.
func (o Options) KeyOpts() cache.ModelKeyOpts {
	o = o.WithDefaults()
	geometry, _ := json.Marshal(struct {
		Bands   layout.BandOptions    `json:"bands"`
		Cluster layout.ClusterOptions `json:"cluster"`
		Style   style.Options         `json:"style"`
		Rules   classify.Rules        `json:"rules"`
	}{o.Bands, o.Cluster, o.Style, o.Rules})

	return cache.ModelKeyOpts{
		Filter:    o.Filter.Key(),
		ScoreKeys: o.ScoreKeys,
		Prune:     o.Prune,
		Layout:    string(o.Layout),
		Metric:    string(o.Metric),
		Seed:      o.Seed,
		Geometry:  string(geometry),
	}
}
