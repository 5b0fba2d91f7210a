// Package classify assigns a category to each node from its labels.
//
// Classification is a first-match scan over an ordered rule table. Each rule
// names a keyword that is searched for, case-insensitively, as a substring of
// any label. The default table gives the priority
// operator > uid > person > ref; nodes matching no rule are
// [graph.CategoryOther].
package classify

import (
	"strings"

	"github.com/refgraph/refgraph/pkg/graph"
)

// Rule maps a label keyword to a category.
type Rule struct {
	Keyword  string
	Category graph.Category
}

// Rules is an ordered rule table. Earlier rules take precedence.
type Rules []Rule

// DefaultRules is the standard classification table.
var DefaultRules = Rules{
	{Keyword: "operator", Category: graph.CategoryOperator},
	{Keyword: "uid", Category: graph.CategoryUID},
	{Keyword: "person", Category: graph.CategoryPerson},
	{Keyword: "ref", Category: graph.CategoryRef},
}

// Classify returns the category of the first rule that matches any label.
func (rs Rules) Classify(labels []string) graph.Category {
	if len(labels) == 0 {
		return graph.CategoryOther
	}
	lower := make([]string, len(labels))
	for i, l := range labels {
		lower[i] = strings.ToLower(l)
	}
	for _, r := range rs {
		kw := strings.ToLower(r.Keyword)
		for _, l := range lower {
			if strings.Contains(l, kw) {
				return r.Category
			}
		}
	}
	return graph.CategoryOther
}

// ClassifyAll classifies every node, keyed by node ID.
func (rs Rules) ClassifyAll(nodes []graph.Node) map[string]graph.Category {
	out := make(map[string]graph.Category, len(nodes))
	for _, n := range nodes {
		out[n.ID] = rs.Classify(n.Labels)
	}
	return out
}

// Classify classifies labels with [DefaultRules].
func Classify(labels []string) graph.Category {
	return DefaultRules.Classify(labels)
}

// ClassifyAll classifies nodes with [DefaultRules].
func ClassifyAll(nodes []graph.Node) map[string]graph.Category {
	return DefaultRules.ClassifyAll(nodes)
}
