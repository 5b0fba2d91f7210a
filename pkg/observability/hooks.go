// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through package-level hook registries; the binary
// registers concrete implementations at startup. The defaults are no-ops, so
// the pipeline, cache and backend client carry no hard dependency on any
// metrics backend. [Prometheus] is the implementation used by `refgraph serve`.
//
// # Usage
//
// Register hooks at application startup:
//
//	prom := observability.NewPrometheus("refgraph")
//	restore := observability.Register(prom)
//	defer restore()
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnRunStart(ctx, "banded", len(payload))
//	// ... run stages ...
//	observability.Pipeline().OnRunComplete(ctx, "banded", counts, duration, err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// RunCounts summarizes a finished pipeline run.
type RunCounts struct {
	Nodes     int // nodes in the render model
	Edges     int // edges in the render model
	Dropped   int // relationships dropped for a missing endpoint
	Pruned    int // nodes removed by pruning
	MaxDegree int
}

// PipelineHooks receives events from the render pipeline.
type PipelineHooks interface {
	// OnNormalize records the detected input shape.
	OnNormalize(ctx context.Context, shape string, nodes, relationships int)

	// OnRunStart and OnRunComplete bracket a full pipeline run.
	OnRunStart(ctx context.Context, layout string, payloadSize int)
	OnRunComplete(ctx context.Context, layout string, counts RunCounts, duration time.Duration, err error)
}

// CacheHooks receives cache hits, misses and writes. keyType is "http" for
// backend responses and "model" for render models.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from backend client requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a request that got no response.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnNormalize(context.Context, string, int, int) {}
func (NoopPipelineHooks) OnRunStart(context.Context, string, int)        {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, RunCounts, time.Duration, error) {
}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// hookSet is swapped as a whole so readers never see a half-updated set.
type hookSet struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var noop = &hookSet{NoopPipelineHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}

var current atomic.Pointer[hookSet]

func init() { current.Store(noop) }

func update(fn func(*hookSet)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Register installs h for every hook interface it implements and returns
// a function that restores the previous set.
func Register(h any) (restore func()) {
	prev := current.Load()
	update(func(s *hookSet) {
		if p, ok := h.(PipelineHooks); ok {
			s.pipeline = p
		}
		if c, ok := h.(CacheHooks); ok {
			s.cache = c
		}
		if x, ok := h.(HTTPHooks); ok {
			s.http = x
		}
	})
	return func() { current.Store(prev) }
}

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(s *hookSet) { s.pipeline = h })
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

func Pipeline() PipelineHooks { return current.Load().pipeline }
func Cache() CacheHooks       { return current.Load().cache }
func HTTP() HTTPHooks         { return current.Load().http }

// Reset restores the no-op hooks.
func Reset() { current.Store(noop) }
