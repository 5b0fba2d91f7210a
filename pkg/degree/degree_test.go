package degree

import (
	"strings"
	"testing"

	"github.com/refgraph/refgraph/pkg/classify"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/graph"
)

func node(id string, labels ...string) graph.Node {
	return graph.Node{ID: id, Labels: labels}
}

func rel(id, from, to, typ string, props map[string]any) graph.Relationship {
	return graph.Relationship{ID: id, StartID: from, EndID: to, Type: typ, Properties: props}
}

func TestTransitiveDegree(t *testing.T) {
	nodes := []graph.Node{
		node("u1", "UID"),
		node("r1", "Ref"),
		node("r2", "Ref"),
		node("r3", "Ref"),
	}
	visible := []graph.Relationship{
		rel("b1", "r1", "u1", "BELONGS_TO", nil),
		rel("b2", "r2", "u1", "BELONGS_TO", nil),
		rel("m1", "r1", "r3", "MATCHES", map[string]any{"face_score": 0.9}),
	}

	m := Compute(nodes, classify.ClassifyAll(nodes), visible, []string{"face_score"}, PolicyTransitive)

	if got := m.Transitive["u1"]; got != 1 {
		t.Errorf("Transitive[u1] = %d, want 1", got)
	}
	if got := m.Metric("u1"); got != 1 {
		t.Errorf("Metric(u1) = %d, want 1", got)
	}
	if got := m.Match["r1"]; got != 1 {
		t.Errorf("Match[r1] = %d, want 1", got)
	}
	if got := m.Direct["r1"]; got != 2 {
		t.Errorf("Direct[r1] = %d, want 2", got)
	}
	if got := m.Direct["u1"]; got != 2 {
		t.Errorf("Direct[u1] = %d, want 2", got)
	}
}

func TestTransitiveOrientation(t *testing.T) {
	nodes := []graph.Node{node("op", "Operator"), node("r1", "Ref"), node("r2", "Ref")}
	visible := []graph.Relationship{
		rel("o1", "op", "r1", "OPERATED", nil),
		rel("o2", "r2", "op", "OPERATED_BY", nil),
		rel("m1", "r1", "r2", "MATCHES", map[string]any{"face_score": 1.0}),
	}

	m := Compute(nodes, classify.ClassifyAll(nodes), visible, nil, PolicyTransitive)
	if got := m.Transitive["op"]; got != 2 {
		t.Errorf("Transitive[op] = %d, want 2 (both orientations)", got)
	}
}

func TestTransitiveIgnoresOwnerToOwner(t *testing.T) {
	nodes := []graph.Node{node("op", "Operator"), node("u", "UID")}
	visible := []graph.Relationship{rel("x", "u", "op", "OPERATED_BY", nil)}

	m := Compute(nodes, classify.ClassifyAll(nodes), visible, nil, PolicyTransitive)
	if len(m.Transitive) != 0 {
		t.Errorf("owner-to-owner link should not count: %v", m.Transitive)
	}
}

func TestSelfLoopCountsTwice(t *testing.T) {
	nodes := []graph.Node{node("a", "Ref")}
	visible := []graph.Relationship{rel("m", "a", "a", "MATCHES", nil)}

	m := Compute(nodes, classify.ClassifyAll(nodes), visible, nil, PolicyDirect)
	if m.Direct["a"] != 2 || m.Match["a"] != 2 {
		t.Errorf("self loop: Direct=%d Match=%d, want 2 and 2", m.Direct["a"], m.Match["a"])
	}
}

func TestMaxDegreeFloor(t *testing.T) {
	nodes := []graph.Node{node("a"), node("b")}
	m := Compute(nodes, classify.ClassifyAll(nodes), nil, nil, PolicyTransitive)
	if m.MaxDegree != 1 {
		t.Errorf("MaxDegree = %d, want 1", m.MaxDegree)
	}
}

func TestPolicies(t *testing.T) {
	nodes := []graph.Node{node("u", "UID"), node("r", "Ref"), node("p", "Person")}
	visible := []graph.Relationship{
		rel("b", "r", "u", "BELONGS_TO", nil),
		rel("k", "p", "u", "KNOWS", nil),
	}
	cats := classify.ClassifyAll(nodes)

	tr := Compute(nodes, cats, visible, nil, PolicyTransitive)
	if tr.Metric("u") != 0 {
		t.Errorf("transitive Metric(u) = %d, want 0 (ref has no matches)", tr.Metric("u"))
	}
	if tr.Metric("p") != 0 {
		t.Errorf("transitive Metric(p) = %d, want 0 (no match edges)", tr.Metric("p"))
	}

	di := Compute(nodes, cats, visible, nil, PolicyDirect)
	if di.Metric("u") != 2 {
		t.Errorf("direct Metric(u) = %d, want 2", di.Metric("u"))
	}
	if di.MaxDegree != 2 {
		t.Errorf("direct MaxDegree = %d, want 2", di.MaxDegree)
	}
	if di.Policy() != PolicyDirect {
		t.Errorf("Policy() = %q", di.Policy())
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyTransitive, false},
		{"transitive", PolicyTransitive, false},
		{"direct", PolicyDirect, false},
		{"Direct", "", true},
		{"pagerank", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidMetric) {
			t.Errorf("ParsePolicy(%q) code = %v", tt.in, errors.GetCode(err))
		}
	}
}

func TestSummary(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	nodes := []graph.Node{node("x", "Ref"), node("y", "Ref")}

	var visible []graph.Relationship
	all := map[string]any{}
	for _, k := range keys {
		all[k] = 0.5
	}
	visible = append(visible, rel("m1", "x", "y", "MATCHES", all))
	visible = append(visible, rel("m2", "x", "y", "MATCHES", map[string]any{"h": "0.9", "g": "bad"}))

	m := Compute(nodes, classify.ClassifyAll(nodes), visible, keys, PolicyTransitive)
	s := m.Summary("x")

	if s.Total != 9 {
		t.Errorf("Total = %d, want 9", s.Total)
	}
	if len(s.Top) != SummaryLimit || s.More != 2 {
		t.Errorf("Top = %d More = %d, want %d and 2", len(s.Top), s.More, SummaryLimit)
	}
	if s.Top[0].Key != "h" || s.Top[0].N != 2 {
		t.Errorf("Top[0] = %+v, want h: 2", s.Top[0])
	}
	if s.Top[1].Key != "a" {
		t.Errorf("ties should sort by key, Top[1] = %+v", s.Top[1])
	}

	str := s.String()
	if !strings.HasPrefix(str, "h: 2 | a: 1") || !strings.Contains(str, "(+2 more)") || !strings.HasSuffix(str, "| Total: 9") {
		t.Errorf("String() = %q", str)
	}
}

func TestSummaryEmpty(t *testing.T) {
	m := Compute(nil, nil, nil, nil, "")
	if got := m.Summary("missing").String(); got != " | Total: 0" {
		t.Errorf("empty summary = %q", got)
	}
}
