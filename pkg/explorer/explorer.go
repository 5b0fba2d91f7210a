// Package explorer holds the state of one interactive investigation: the
// last retrieved payload, the current pipeline options and the render model
// derived from them.
//
// Every fetch gets a generation number and cancels the one before it. A
// fetch that completes after a newer one has started is discarded with
// [ErrSuperseded], so stale results never overwrite fresher state.
// Configuration changes recompute the model synchronously from the stored
// payload without refetching.
package explorer

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/graph"
	"github.com/refgraph/refgraph/pkg/layout"
	"github.com/refgraph/refgraph/pkg/pipeline"
)

// ErrSuperseded is returned by Fetch when a newer fetch started first.
var ErrSuperseded = errors.New(errors.ErrCodeSuperseded, "fetch superseded by a newer request")

// Fetcher retrieves raw payloads. *backend.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, q backend.Query, refresh bool) ([]byte, error)
}

// Config configures an Explorer.
type Config struct {
	// ClearOnError drops the current payload when a fetch fails. Otherwise
	// the previous state stays on screen.
	ClearOnError bool

	// KeepLayout keeps the current layout across fetches. Otherwise each
	// fetch switches to the query's default layout.
	KeepLayout bool

	Logger *log.Logger
}

// State is a snapshot of the explorer.
type State struct {
	Query      backend.Query
	Options    pipeline.Options
	Model      graph.RenderModel
	Generation uint64
	Loading    bool
	FetchedAt  time.Time
	Err        error // last fetch error, nil after a successful fetch
}

// Explorer is safe for concurrent use.
type Explorer struct {
	fetcher Fetcher
	runner  *pipeline.Runner
	cfg     Config

	mu        sync.Mutex
	opts      pipeline.Options
	query     backend.Query
	payload   []byte
	model     graph.RenderModel
	gen       uint64
	cancel    context.CancelFunc
	fetchedAt time.Time
	err       error
}

// New creates an explorer with an empty model.
func New(f Fetcher, r *pipeline.Runner, opts pipeline.Options, cfg Config) (*Explorer, error) {
	if r == nil {
		r = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = r.Logger
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Explorer{fetcher: f, runner: r, cfg: cfg, opts: opts}, nil
}

// Fetch retrieves q and rebuilds the model. Any fetch still in flight is
// cancelled. On failure the error is returned and recorded in the state.
func (e *Explorer) Fetch(ctx context.Context, q backend.Query, refresh bool) (graph.RenderModel, error) {
	if err := q.Validate(); err != nil {
		return graph.RenderModel{}, err
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	if e.cancel != nil {
		e.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	e.cfg.Logger.Debug("fetching", "query", q, "generation", gen)
	payload, err := e.fetcher.Fetch(fetchCtx, q, refresh)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.cfg.Logger.Debug("discarding superseded fetch", "query", q, "generation", gen)
		return graph.RenderModel{}, ErrSuperseded
	}
	e.cancel = nil

	if err != nil {
		e.err = err
		if e.cfg.ClearOnError {
			e.payload = nil
			e.model = graph.RenderModel{}
		}
		return graph.RenderModel{}, err
	}

	e.query = q
	e.payload = payload
	e.fetchedAt = time.Now()
	e.err = nil
	if !e.cfg.KeepLayout {
		e.opts.Layout = q.Kind.DefaultLayout()
	}
	return e.rebuildLocked(ctx)
}

// Abort cancels the fetch in flight, if any. The aborted Fetch returns
// ErrSuperseded.
func (e *Explorer) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.gen++
		e.cancel()
		e.cancel = nil
	}
}

// Snapshot returns the current state.
func (e *Explorer) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Query:      e.query,
		Options:    e.opts,
		Model:      e.model,
		Generation: e.gen,
		Loading:    e.cancel != nil,
		FetchedAt:  e.fetchedAt,
		Err:        e.err,
	}
}

// Model returns the current render model.
func (e *Explorer) Model() graph.RenderModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

// =============================================================================
// Configuration
// =============================================================================

// Update applies fn to the current options and rebuilds the model. Invalid
// options are rejected and the previous options kept.
func (e *Explorer) Update(fn func(pipeline.Options) pipeline.Options) (graph.RenderModel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := fn(e.opts).WithDefaults()
	if err := next.Validate(); err != nil {
		return e.model, err
	}
	prev := e.opts
	e.opts = next
	m, err := e.rebuildLocked(context.Background())
	if err != nil {
		e.opts = prev
	}
	return m, err
}

// ToggleKey flips the selection of a score key.
func (e *Explorer) ToggleKey(key string) (graph.RenderModel, error) {
	return e.Update(func(o pipeline.Options) pipeline.Options {
		o.Filter = o.Filter.Toggle(key)
		return o
	})
}

// SetThreshold sets the threshold of a score key.
func (e *Explorer) SetThreshold(key string, v float64) (graph.RenderModel, error) {
	return e.Update(func(o pipeline.Options) pipeline.Options {
		o.Filter = o.Filter.SetThreshold(key, v)
		return o
	})
}

// SetPrune enables or disables sparse-node pruning.
func (e *Explorer) SetPrune(on bool) (graph.RenderModel, error) {
	return e.Update(func(o pipeline.Options) pipeline.Options {
		o.Prune = on
		return o
	})
}

// SetLayout switches the layout policy.
func (e *Explorer) SetLayout(k layout.Kind) (graph.RenderModel, error) {
	return e.Update(func(o pipeline.Options) pipeline.Options {
		o.Layout = k
		return o
	})
}

// SetMetric switches the metric policy.
func (e *Explorer) SetMetric(p degree.Policy) (graph.RenderModel, error) {
	return e.Update(func(o pipeline.Options) pipeline.Options {
		o.Metric = p
		return o
	})
}

// Reset restores the default filter and disables pruning.
func (e *Explorer) Reset() (graph.RenderModel, error) {
	return e.Update(func(o pipeline.Options) pipeline.Options {
		o.Filter = o.Filter.Reset()
		o.Prune = false
		return o
	})
}

func (e *Explorer) rebuildLocked(ctx context.Context) (graph.RenderModel, error) {
	m, _, err := e.runner.Run(ctx, e.payload, e.opts)
	if err != nil {
		return e.model, err
	}
	e.model = m
	return m, nil
}
