// Package filter decides which relationships are visible under the user's
// score filter.
//
// Only match-class relationships are filtered. A match relationship is
// eligible when at least one selected score key carries a numeric value at
// or above that key's threshold (OR across keys). Structural and other
// relationships always pass.
//
// [Config] is an immutable value: every mutator returns a new Config and
// leaves the receiver untouched, so a Config can be shared across goroutines
// and used as part of a cache key.
package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/graph"
)

// DefaultScoreKeys are the biometric match score properties.
var DefaultScoreKeys = []string{
	"face_score",
	"left_index_score",
	"left_little_score",
	"left_middle_score",
	"left_ring_score",
	"right_index_score",
	"right_little_score",
	"right_middle_score",
	"right_ring_score",
	"left_thumb_score",
	"right_thumb_score",
	"left_iris_score",
	"right_iris_score",
}

// Config holds the selected score keys and their thresholds.
// The zero value selects nothing, so every match relationship is hidden.
type Config struct {
	keys       []string // universe restored by Reset
	selected   mapset.Set[string]
	thresholds map[string]float64
}

// DefaultConfig selects every key with a zero threshold.
func DefaultConfig(keys []string) Config {
	c := Config{
		keys:       slices.Clone(keys),
		selected:   mapset.NewThreadUnsafeSet[string](),
		thresholds: make(map[string]float64, len(keys)),
	}
	for _, k := range keys {
		c.selected.Add(k)
		c.thresholds[k] = 0
	}
	return c
}

func (c Config) clone() Config {
	out := Config{keys: c.keys, thresholds: make(map[string]float64, len(c.thresholds))}
	if c.selected != nil {
		out.selected = c.selected.Clone()
	} else {
		out.selected = mapset.NewThreadUnsafeSet[string]()
	}
	for k, v := range c.thresholds {
		out.thresholds[k] = v
	}
	return out
}

// IsZero reports whether c is the zero Config.
func (c Config) IsZero() bool {
	return c.selected == nil && c.thresholds == nil
}

// IsSelected reports whether key is selected.
func (c Config) IsSelected(key string) bool {
	return c.selected != nil && c.selected.Contains(key)
}

// Selected returns the selected keys in sorted order.
func (c Config) Selected() []string {
	if c.selected == nil {
		return nil
	}
	keys := c.selected.ToSlice()
	slices.Sort(keys)
	return keys
}

// Threshold returns the threshold for key, 0 when unset.
func (c Config) Threshold(key string) float64 {
	return c.thresholds[key]
}

// Thresholds returns a copy of all explicitly set thresholds.
func (c Config) Thresholds() map[string]float64 {
	out := make(map[string]float64, len(c.thresholds))
	for k, v := range c.thresholds {
		out[k] = v
	}
	return out
}

// Toggle flips the selection of key.
func (c Config) Toggle(key string) Config {
	out := c.clone()
	if out.selected.Contains(key) {
		out.selected.Remove(key)
	} else {
		out.selected.Add(key)
	}
	return out
}

// Select replaces the selection with keys. Thresholds are kept.
func (c Config) Select(keys ...string) Config {
	out := c.clone()
	out.selected = mapset.NewThreadUnsafeSet(keys...)
	return out
}

// SetThreshold sets the threshold for key.
func (c Config) SetThreshold(key string, v float64) Config {
	out := c.clone()
	out.thresholds[key] = v
	return out
}

// Reset returns the default configuration for the keys c was created with.
func (c Config) Reset() Config {
	return DefaultConfig(c.keys)
}

// Validate rejects non-finite thresholds.
func (c Config) Validate() error {
	for k, v := range c.thresholds {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidThreshold, "threshold for %s must be finite", k)
		}
	}
	return nil
}

// Key returns a deterministic string describing the configuration.
func (c Config) Key() string {
	var b strings.Builder
	for i, k := range c.Selected() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
	}
	b.WriteByte('|')
	keys := make([]string, 0, len(c.thresholds))
	for k := range c.thresholds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%g", k, c.thresholds[k])
	}
	return b.String()
}

type configJSON struct {
	Selected   []string           `json:"selected"`
	Thresholds map[string]float64 `json:"thresholds,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Config) MarshalJSON() ([]byte, error) {
	sel := c.Selected()
	if sel == nil {
		sel = []string{}
	}
	return json.Marshal(configJSON{Selected: sel, Thresholds: c.thresholds})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.selected = mapset.NewThreadUnsafeSet(raw.Selected...)
	c.thresholds = raw.Thresholds
	if c.thresholds == nil {
		c.thresholds = make(map[string]float64)
	}
	universe := c.selected.Clone()
	for k := range c.thresholds {
		universe.Add(k)
	}
	c.keys = universe.ToSlice()
	slices.Sort(c.keys)
	return nil
}

// =============================================================================
// Evaluation
// =============================================================================

// Score returns the numeric value of a score property. Numeric strings are
// coerced; absent, null, empty and non-finite values report ok=false.
func Score(props map[string]any, key string) (float64, bool) {
	var f float64
	switch v := props[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Eligible reports whether r is visible under c.
func (c Config) Eligible(r graph.Relationship) bool {
	if r.Class() != graph.ClassMatch {
		return true
	}
	if c.selected == nil {
		return false
	}
	eligible := false
	c.selected.Each(func(key string) bool {
		if v, ok := Score(r.Properties, key); ok && v >= c.thresholds[key] {
			eligible = true
			return true
		}
		return false
	})
	return eligible
}

// Visible returns the eligible relationships, preserving order.
func (c Config) Visible(rels []graph.Relationship) []graph.Relationship {
	out := make([]graph.Relationship, 0, len(rels))
	for _, r := range rels {
		if c.Eligible(r) {
			out = append(out, r)
		}
	}
	return out
}
