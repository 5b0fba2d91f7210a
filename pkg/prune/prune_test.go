package prune

import (
	"testing"

	"github.com/refgraph/refgraph/pkg/graph"
)

func TestApply(t *testing.T) {
	cats := map[string]graph.Category{
		"op0": graph.CategoryOperator,
		"op1": graph.CategoryOperator,
		"op2": graph.CategoryOperator,
		"u1":  graph.CategoryUID,
		"p1":  graph.CategoryPerson,
		"r1":  graph.CategoryRef,
		"x1":  graph.CategoryOther,
	}
	direct := map[string]int{
		"op0": 0,
		"op1": 1,
		"op2": 2,
		"u1":  1,
		"p1":  1,
		"r1":  1,
		"x1":  1,
	}
	rels := []graph.Relationship{
		{ID: "a", StartID: "op1", EndID: "r1"},
		{ID: "b", StartID: "op2", EndID: "p1"},
		{ID: "c", StartID: "u1", EndID: "x1"},
		{ID: "d", StartID: "op2", EndID: "op2"},
	}

	res := Apply(true, cats, direct, rels)

	tests := []struct {
		id   string
		kept bool
	}{
		{"op0", true},
		{"op1", false},
		{"op2", true},
		{"u1", false},
		{"p1", true},
		{"r1", true},
		{"x1", true},
	}
	for _, tt := range tests {
		if got := res.Kept(tt.id); got != tt.kept {
			t.Errorf("Kept(%s) = %v, want %v", tt.id, got, tt.kept)
		}
	}

	if len(res.Relationships) != 2 || res.Relationships[0].ID != "b" || res.Relationships[1].ID != "d" {
		t.Errorf("Relationships = %+v, want [b d]", res.Relationships)
	}
}

func TestApplyDisabled(t *testing.T) {
	cats := map[string]graph.Category{"op": graph.CategoryOperator}
	rels := []graph.Relationship{{ID: "a", StartID: "op", EndID: "r"}}

	res := Apply(false, cats, map[string]int{"op": 1}, rels)
	if res.Removed.Cardinality() != 0 {
		t.Errorf("disabled pruning removed %v", res.Removed)
	}
	if len(res.Relationships) != 1 {
		t.Errorf("disabled pruning dropped relationships")
	}
}
