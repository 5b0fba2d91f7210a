// Package prune removes weakly-connected owner nodes from the visible graph.
//
// When enabled, every operator or uid node whose direct degree over the
// visible relationships is exactly one is removed, along with every
// relationship touching it. Person, ref and other nodes are never removed.
package prune

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/refgraph/refgraph/pkg/graph"
)

// Result is the outcome of pruning.
type Result struct {
	Removed       mapset.Set[string]
	Relationships []graph.Relationship
}

// Kept reports whether the node survived pruning.
func (r Result) Kept(id string) bool {
	return !r.Removed.Contains(id)
}

// Apply prunes rels. When enabled is false it returns rels unchanged and an
// empty removal set.
func Apply(enabled bool, cats map[string]graph.Category, direct map[string]int, rels []graph.Relationship) Result {
	removed := mapset.NewThreadUnsafeSet[string]()
	if !enabled {
		return Result{Removed: removed, Relationships: rels}
	}

	for id, cat := range cats {
		if cat.IsOwner() && direct[id] == 1 {
			removed.Add(id)
		}
	}

	kept := make([]graph.Relationship, 0, len(rels))
	for _, r := range rels {
		if removed.Contains(r.StartID) || removed.Contains(r.EndID) {
			continue
		}
		kept = append(kept, r)
	}
	return Result{Removed: removed, Relationships: kept}
}
