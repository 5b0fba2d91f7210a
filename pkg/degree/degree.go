// Package degree derives per-node metrics from the visible relationships.
//
// Three degrees are computed in one pass over the visible set:
//
//   - Direct: endpoint occurrences over all visible relationships
//   - Match: endpoint occurrences over visible match relationships only
//   - Transitive: for uid and operator nodes, the number of distinct
//     entities they own through structural relationships that themselves
//     have a nonzero Match degree
//
// Transitive degree is computed in two passes: the first pass counts match
// degree and builds a reverse adjacency from each owner to the entities it
// owns; the second pass counts owned entities with match degree above zero.
//
// [Metrics.Metric] picks the degree that drives color and size according to a
// [Policy].
package degree

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/filter"
	"github.com/refgraph/refgraph/pkg/graph"
)

// SummaryLimit is the number of score keys listed in a node summary.
const SummaryLimit = 6

// Policy selects which degree drives the visual metric.
type Policy string

const (
	// PolicyTransitive uses transitive degree for uid and operator nodes and
	// match degree for every other node.
	PolicyTransitive Policy = "transitive"

	// PolicyDirect uses direct degree for every node.
	PolicyDirect Policy = "direct"
)

// DefaultPolicy is the metric policy used when none is configured.
const DefaultPolicy = PolicyTransitive

// ParsePolicy converts a string to a Policy. The empty string yields
// [DefaultPolicy].
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return DefaultPolicy, nil
	case PolicyTransitive, PolicyDirect:
		return Policy(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidMetric, "invalid metric: %q (must be one of: transitive, direct)", s)
}

// Metrics holds all derived degree information for a graph.
type Metrics struct {
	Direct     map[string]int
	Match      map[string]int
	Transitive map[string]int
	Tally      map[string]map[string]int
	MaxDegree  int

	policy     Policy
	categories map[string]graph.Category
}

// Compute derives metrics for nodes over the visible relationships.
// scoreKeys is the universe of score properties tallied per node.
func Compute(nodes []graph.Node, cats map[string]graph.Category, visible []graph.Relationship, scoreKeys []string, policy Policy) *Metrics {
	if policy == "" {
		policy = DefaultPolicy
	}
	m := &Metrics{
		Direct:     make(map[string]int, len(nodes)),
		Match:      make(map[string]int, len(nodes)),
		Transitive: make(map[string]int),
		Tally:      make(map[string]map[string]int, len(nodes)),
		policy:     policy,
		categories: cats,
	}

	owned := make(map[string]mapset.Set[string])
	for _, r := range visible {
		m.Direct[r.StartID]++
		m.Direct[r.EndID]++

		switch class := r.Class(); {
		case class == graph.ClassMatch:
			m.Match[r.StartID]++
			m.Match[r.EndID]++
			m.tally(r, scoreKeys)
		case class.IsStructural():
			owner, entity, ok := ownership(r, cats)
			if !ok {
				continue
			}
			if owned[owner] == nil {
				owned[owner] = mapset.NewThreadUnsafeSet[string]()
			}
			owned[owner].Add(entity)
		}
	}

	for owner, entities := range owned {
		n := 0
		entities.Each(func(id string) bool {
			if m.Match[id] > 0 {
				n++
			}
			return false
		})
		m.Transitive[owner] = n
	}

	m.MaxDegree = 1
	for _, n := range nodes {
		m.MaxDegree = max(m.MaxDegree, m.Metric(n.ID))
	}
	return m
}

// ownership orients a structural relationship. Exactly one endpoint must be
// an owner category (uid or operator).
func ownership(r graph.Relationship, cats map[string]graph.Category) (owner, entity string, ok bool) {
	start, end := cats[r.StartID].IsOwner(), cats[r.EndID].IsOwner()
	switch {
	case start && !end:
		return r.StartID, r.EndID, true
	case end && !start:
		return r.EndID, r.StartID, true
	}
	return "", "", false
}

func (m *Metrics) tally(r graph.Relationship, keys []string) {
	for _, k := range keys {
		if _, ok := filter.Score(r.Properties, k); !ok {
			continue
		}
		for _, id := range []string{r.StartID, r.EndID} {
			if m.Tally[id] == nil {
				m.Tally[id] = make(map[string]int)
			}
			m.Tally[id][k]++
		}
	}
}

// Policy returns the policy the metrics were computed with.
func (m *Metrics) Policy() Policy { return m.policy }

// Metric returns the degree that drives the node's visual encoding.
func (m *Metrics) Metric(id string) int {
	if m.policy == PolicyDirect {
		return m.Direct[id]
	}
	if m.categories[id].IsOwner() {
		return m.Transitive[id]
	}
	return m.Match[id]
}

// =============================================================================
// Summary
// =============================================================================

// Count is a score key with the number of visible matches carrying it.
type Count struct {
	Key string
	N   int
}

// Summary is the per-node tally of score keys, most frequent first.
type Summary struct {
	Top   []Count
	More  int // keys beyond Top
	Total int // sum over all keys
}

// Summary returns the tally for id, sorted by count descending then key.
func (m *Metrics) Summary(id string) Summary {
	counts := make([]Count, 0, len(m.Tally[id]))
	var s Summary
	for k, n := range m.Tally[id] {
		counts = append(counts, Count{Key: k, N: n})
		s.Total += n
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.N, a.N); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if len(counts) > SummaryLimit {
		s.More = len(counts) - SummaryLimit
		counts = counts[:SummaryLimit]
	}
	s.Top = counts
	return s
}

// String formats the summary as "k: n | k: n (+N more) | Total: t".
func (s Summary) String() string {
	parts := make([]string, len(s.Top))
	for i, c := range s.Top {
		parts[i] = fmt.Sprintf("%s: %d", c.Key, c.N)
	}
	out := strings.Join(parts, " | ")
	if s.More > 0 {
		out += fmt.Sprintf(" (+%d more)", s.More)
	}
	return out + fmt.Sprintf(" | Total: %d", s.Total)
}
