package filter

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/graph"
)

func match(props map[string]any) graph.Relationship {
	return graph.Relationship{ID: "m", StartID: "a", EndID: "b", Type: "MATCHES", Properties: props}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig(DefaultScoreKeys)
	if len(c.Selected()) != len(DefaultScoreKeys) {
		t.Errorf("Selected() = %d keys, want %d", len(c.Selected()), len(DefaultScoreKeys))
	}
	for _, k := range DefaultScoreKeys {
		if !c.IsSelected(k) || c.Threshold(k) != 0 {
			t.Errorf("key %s: selected=%v threshold=%v", k, c.IsSelected(k), c.Threshold(k))
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{"float", 0.82, 0.82, true},
		{"int", 3, 3, true},
		{"numeric string", "0.5", 0.5, true},
		{"padded string", " 0.25 ", 0.25, true},
		{"empty string", "", 0, false},
		{"text", "high", 0, false},
		{"nil", nil, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf string", "Inf", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Score(map[string]any{"k": tt.value}, "k")
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Score(%v) = %v, %v, want %v, %v", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if _, ok := Score(nil, "k"); ok {
		t.Error("Score on nil props should be absent")
	}
}

func TestEligibleORSemantics(t *testing.T) {
	c := DefaultConfig([]string{"A", "B"}).
		SetThreshold("A", 0.9).
		SetThreshold("B", 0.5)

	r := match(map[string]any{"A": 0.1, "B": 0.6})
	if !c.Eligible(r) {
		t.Error("relationship should pass on B alone")
	}

	if c.Select("A").Eligible(r) {
		t.Error("relationship should fail with only A selected")
	}
}

func TestEligibleBoundaries(t *testing.T) {
	c := DefaultConfig([]string{"face_score"}).SetThreshold("face_score", 0.5)

	tests := []struct {
		name  string
		props map[string]any
		want  bool
	}{
		{"equal threshold", map[string]any{"face_score": 0.5}, true},
		{"below threshold", map[string]any{"face_score": 0.49}, false},
		{"string value", map[string]any{"face_score": "0.75"}, true},
		{"non-numeric", map[string]any{"face_score": "n/a"}, false},
		{"null", map[string]any{"face_score": nil}, false},
		{"absent", map[string]any{"other": 1.0}, false},
		{"no props", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Eligible(match(tt.props)); got != tt.want {
				t.Errorf("Eligible(%v) = %v, want %v", tt.props, got, tt.want)
			}
		})
	}
}

func TestEligibleNonMatchAlwaysPasses(t *testing.T) {
	var empty Config
	for _, typ := range []string{"BELONGS_TO", "OPERATED_BY", "KNOWS"} {
		r := graph.Relationship{Type: typ}
		if !empty.Eligible(r) {
			t.Errorf("%s should always be eligible", typ)
		}
	}
	if empty.Eligible(match(map[string]any{"face_score": 1.0})) {
		t.Error("zero Config should hide match relationships")
	}
}

func TestMatchTypeCaseInsensitive(t *testing.T) {
	c := DefaultConfig([]string{"face_score"}).SetThreshold("face_score", 0.9)
	for _, typ := range []string{"match", "Match", "MATCHES"} {
		r := graph.Relationship{Type: typ, Properties: map[string]any{"face_score": 0.1}}
		if c.Eligible(r) {
			t.Errorf("%s should be filtered as match-class", typ)
		}
	}
}

func TestVisiblePreservesOrder(t *testing.T) {
	c := DefaultConfig([]string{"s"}).SetThreshold("s", 0.5)
	rels := []graph.Relationship{
		{ID: "1", Type: "MATCHES", Properties: map[string]any{"s": 0.9}},
		{ID: "2", Type: "MATCHES", Properties: map[string]any{"s": 0.1}},
		{ID: "3", Type: "BELONGS_TO"},
	}
	got := c.Visible(rels)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("Visible() = %+v", got)
	}
}

func TestConfigImmutable(t *testing.T) {
	base := DefaultConfig([]string{"a", "b"})
	toggled := base.Toggle("a")
	raised := base.SetThreshold("b", 0.7)

	if !base.IsSelected("a") {
		t.Error("Toggle mutated the receiver")
	}
	if toggled.IsSelected("a") {
		t.Error("Toggle did not deselect")
	}
	if !toggled.Toggle("a").IsSelected("a") {
		t.Error("second Toggle did not reselect")
	}
	if base.Threshold("b") != 0 || raised.Threshold("b") != 0.7 {
		t.Error("SetThreshold mutated the receiver or failed")
	}
}

func TestConfigKey(t *testing.T) {
	a := DefaultConfig([]string{"x", "y"})
	b := DefaultConfig([]string{"y", "x"})
	if a.Key() != b.Key() {
		t.Errorf("Key() should be order independent: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == a.SetThreshold("x", 0.1).Key() {
		t.Error("Key() should change with thresholds")
	}
	if a.Key() == a.Toggle("x").Key() {
		t.Error("Key() should change with selection")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig(DefaultScoreKeys).Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	err := DefaultConfig([]string{"a"}).SetThreshold("a", math.Inf(1)).Validate()
	if !errors.Is(err, errors.ErrCodeInvalidThreshold) {
		t.Errorf("Validate() = %v, want INVALID_THRESHOLD", err)
	}
}

func TestConfigJSON(t *testing.T) {
	c := DefaultConfig([]string{"a", "b"}).Toggle("b").SetThreshold("a", 0.3)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Config
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Key() != c.Key() {
		t.Errorf("round trip Key() = %q, want %q", got.Key(), c.Key())
	}
}

func TestConfigReset(t *testing.T) {
	keys := []string{"a", "b", "c"}
	c := DefaultConfig(keys).Select("a").SetThreshold("b", 0.8)

	r := c.Reset()
	if r.Key() != DefaultConfig(keys).Key() {
		t.Errorf("Reset().Key() = %q, want %q", r.Key(), DefaultConfig(keys).Key())
	}
	if c.IsSelected("b") {
		t.Error("Reset() must not modify the receiver")
	}
}

func TestConfigIsZero(t *testing.T) {
	if !(Config{}).IsZero() {
		t.Error("zero Config should report IsZero")
	}
	if DefaultConfig(nil).IsZero() {
		t.Error("DefaultConfig should not report IsZero")
	}
	if (Config{}).Select().IsZero() {
		t.Error("an explicit empty selection is not the zero Config")
	}
}
