package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/layout"
	"github.com/refgraph/refgraph/pkg/pipeline"
)

// pipelineFlags are the filter and layout flags shared by render and explore.
type pipelineFlags struct {
	keys       []string
	thresholds map[string]string
	prune      bool
	layout     string
	metric     string
	seed       uint64
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVarP(&f.keys, "keys", "k", nil, "selected score keys (default: all configured keys)")
	fs.StringToStringVarP(&f.thresholds, "threshold", "t", nil, "per-key threshold, e.g. face_score=0.8")
	fs.BoolVar(&f.prune, "prune", false, "remove owners with a single direct link")
	fs.StringVarP(&f.layout, "layout", "l", "", "layout: banded, cluster (default: per query kind)")
	fs.StringVarP(&f.metric, "metric", "m", "", "metric: transitive (default), direct")
	fs.Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "seed for cluster jitter")
}

// apply overrides base with the flags the user set. An unset layout falls
// back to kind's default layout when kind is known.
func (f *pipelineFlags) apply(cmd *cobra.Command, base pipeline.Options, kind backend.Kind) (pipeline.Options, error) {
	o := base.WithDefaults()
	changed := cmd.Flags().Changed
	var err error

	if changed("keys") {
		o.Filter = o.Filter.Select(f.keys...)
	}
	for k, v := range f.thresholds {
		n, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return o, errors.New(errors.ErrCodeInvalidThreshold, "invalid threshold %s=%q", k, v)
		}
		o.Filter = o.Filter.SetThreshold(k, n)
	}
	if changed("prune") {
		o.Prune = f.prune
	}
	switch {
	case changed("layout"):
		if o.Layout, err = layout.ParseKind(f.layout); err != nil {
			return o, err
		}
	case kind != "":
		o.Layout = kind.DefaultLayout()
	}
	if changed("metric") {
		if o.Metric, err = degree.ParsePolicy(f.metric); err != nil {
			return o, err
		}
	}
	if changed("seed") {
		o.Seed = f.seed
	}
	return o, o.Validate()
}

// queryFlags select a backend query.
type queryFlags struct {
	degree  int
	refresh bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.degree, "degree", 1, "minimum degree (offtime)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass the response cache")
}

// query builds a query from positional args: <kind> [id].
func (f *queryFlags) query(args []string) (backend.Query, error) {
	kind, err := backend.ParseKind(args[0])
	if err != nil {
		return backend.Query{}, err
	}
	q := backend.Query{Kind: kind, Degree: f.degree}
	if len(args) > 1 {
		q.ID = args[1]
	}
	return q, q.Validate()
}

// queryArgs validates "<kind> [id]" positional arguments.
var queryArgs = cobra.RangeArgs(1, 2)

func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	out := make([]string, len(backend.Kinds))
	for i, k := range backend.Kinds {
		out[i] = string(k)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
