package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/refgraph/refgraph/pkg/cache"
	"github.com/refgraph/refgraph/pkg/graph"
	"github.com/refgraph/refgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the explorer and the HTTP server share it so memoization behaves
// the same everywhere.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run returns the render model for payload, from the cache when possible.
// hit reports whether the model came from the cache. A cached model is
// identical to the one [Run] would compute.
func (r *Runner) Run(ctx context.Context, payload []byte, opts Options) (graph.RenderModel, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return graph.RenderModel{}, false, err
	}

	// A custom jitter source is not part of the key, so bypass the cache.
	cacheable := opts.Jitter == nil
	key := r.Keyer.ModelKey(cache.Hash(payload), opts.KeyOpts())

	if cacheable {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if m, err := graph.UnmarshalModel(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "model")
				r.Logger.Debug("render model from cache", "nodes", m.Counts.Nodes, "edges", m.Counts.Edges)
				return m, true, nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "model")
	}

	hooks := observability.Pipeline()
	layoutName := string(opts.WithDefaults().Layout)
	hooks.OnRunStart(ctx, layoutName, len(payload))
	start := time.Now()

	m, stats, err := run(payload, opts)
	duration := time.Since(start)
	hooks.OnNormalize(ctx, stats.Shape.String(), stats.Nodes, stats.Relationships)
	hooks.OnRunComplete(ctx, layoutName, observability.RunCounts{
		Nodes:     m.Counts.Nodes,
		Edges:     m.Counts.Edges,
		Dropped:   stats.Dropped,
		Pruned:    stats.Pruned,
		MaxDegree: m.MaxDegree,
	}, duration, err)
	if err != nil {
		return graph.RenderModel{}, false, err
	}

	r.Logger.Info("built render model",
		"shape", stats.Shape,
		"nodes", m.Counts.Nodes,
		"edges", m.Counts.Edges,
		"hidden", stats.Hidden,
		"pruned", stats.Pruned,
		"duration", duration)

	if cacheable {
		if data, err := graph.MarshalModel(m); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLModel); err == nil {
				observability.Cache().OnCacheSet(ctx, "model", len(data))
			}
		}
	}
	return m, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
