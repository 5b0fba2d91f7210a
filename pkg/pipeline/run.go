package pipeline

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/graph"
	"github.com/refgraph/refgraph/pkg/layout"
	"github.com/refgraph/refgraph/pkg/normalize"
	"github.com/refgraph/refgraph/pkg/prune"
	"github.com/refgraph/refgraph/pkg/style"
)

// Stats describes what happened inside one run.
type Stats struct {
	Shape         normalize.Shape
	Nodes         int // merged nodes before pruning
	Relationships int // relationships with both endpoints present
	Dropped       int // relationships with a missing endpoint
	Duplicates    int // relationships repeated across components
	Hidden        int // relationships rejected by the filter
	Pruned        int // nodes removed by pruning
}

// Run executes every stage on payload and returns the render model.
// The only errors are invalid options.
func Run(payload []byte, opts Options) (graph.RenderModel, error) {
	m, _, err := run(payload, opts)
	return m, err
}

func run(payload []byte, opts Options) (graph.RenderModel, Stats, error) {
	if err := opts.Validate(); err != nil {
		return graph.RenderModel{}, Stats{}, err
	}
	opts = opts.WithDefaults()

	decoded := normalize.Decode(payload)
	g := graph.NewGraph(decoded.Components)
	stats := Stats{
		Shape:         decoded.Shape,
		Nodes:         g.NodeCount(),
		Relationships: g.RelationshipCount(),
		Dropped:       g.Dropped,
		Duplicates:    g.Duplicates,
	}
	opts.Logger.Debug("normalized payload",
		"shape", decoded.Shape,
		"nodes", g.NodeCount(),
		"relationships", g.RelationshipCount(),
		"dropped", g.Dropped,
		"duplicates", g.Duplicates)

	cats := opts.Rules.ClassifyAll(g.Nodes)

	visible := opts.Filter.Visible(g.Relationships)
	stats.Hidden = len(g.Relationships) - len(visible)

	metrics := degree.Compute(g.Nodes, cats, visible, opts.ScoreKeys, opts.Metric)

	pruned := prune.Apply(opts.Prune, cats, metrics.Direct, visible)
	stats.Pruned = pruned.Removed.Cardinality()

	nodes := make([]graph.Node, 0, len(g.Nodes)-stats.Pruned)
	for _, n := range g.Nodes {
		if pruned.Kept(n.ID) {
			nodes = append(nodes, n)
		}
	}
	rels := pruned.Relationships

	// Pruning decides on the full visible graph; the model reports degrees
	// of what is left on screen.
	if stats.Pruned > 0 {
		metrics = degree.Compute(nodes, cats, rels, opts.ScoreKeys, opts.Metric)
	}

	var pos map[string]layout.Point
	switch opts.Layout {
	case layout.KindCluster:
		src := opts.Jitter
		if src == nil {
			src = layout.NewSource(opts.Seed)
		}
		pos = layout.Cluster(nodes, cats, rels, opts.Cluster, src)
	default:
		pos = layout.Banded(nodes, cats, opts.Bands)
	}

	// Validate already compiled this ramp once.
	ramp, err := style.NewRamp(opts.Style)
	if err != nil {
		return graph.RenderModel{}, stats, err
	}

	model := graph.RenderModel{
		Nodes:     make([]graph.RenderNode, 0, len(nodes)),
		Edges:     make([]graph.RenderEdge, 0, len(rels)),
		MaxDegree: metrics.MaxDegree,
		Layout:    string(opts.Layout),
	}
	for _, n := range nodes {
		metric := metrics.Metric(n.ID)
		p := pos[n.ID]
		model.Nodes = append(model.Nodes, graph.RenderNode{
			ID:       n.ID,
			Label:    n.DisplayLabel(),
			Title:    style.NodeTitle(n, cats[n.ID], metric, metrics.Summary(n.ID)),
			X:        p.X,
			Y:        p.Y,
			Color:    ramp.Color(metric, metrics.MaxDegree),
			Size:     ramp.Size(metric, metrics.MaxDegree),
			Category: cats[n.ID],
			Labels:   n.Labels,
			Degree:   metric,
		})
	}

	connected := mapset.NewThreadUnsafeSet[string]()
	for _, r := range rels {
		model.Edges = append(model.Edges, graph.RenderEdge{
			ID:    r.ID,
			From:  r.StartID,
			To:    r.EndID,
			Label: r.Type,
			Title: style.EdgeTitle(r, opts.ScoreKeys),
			Class: r.Class(),
		})
		connected.Add(r.StartID)
		connected.Add(r.EndID)
	}

	model.Counts = graph.Counts{
		Nodes:     len(model.Nodes),
		Edges:     len(model.Edges),
		Connected: connected.Cardinality(),
	}
	return model, stats, nil
}
