package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus("test")

	p.OnNormalize(ctx, "list", 3, 2)
	p.OnRunComplete(ctx, "banded", RunCounts{Nodes: 3, Dropped: 1, Pruned: 2}, time.Millisecond, nil)
	p.OnRunComplete(ctx, "cluster", RunCounts{}, time.Millisecond, errors.New("boom"))
	p.OnCacheHit(ctx, "model")
	p.OnCacheMiss(ctx, "model")
	p.OnCacheMiss(ctx, "model")
	p.OnResponse(ctx, "GET", "backend", "/sameop", 200, time.Millisecond)
	p.OnError(ctx, "GET", "backend", "/sameop", errors.New("refused"))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"shape", testutil.ToFloat64(p.inputShapes.WithLabelValues("list")), 1},
		{"ok runs", testutil.ToFloat64(p.runs.WithLabelValues("banded", "ok")), 1},
		{"failed runs", testutil.ToFloat64(p.runs.WithLabelValues("cluster", "error")), 1},
		{"dropped", testutil.ToFloat64(p.droppedEdges), 1},
		{"pruned", testutil.ToFloat64(p.prunedNodes), 2},
		{"hits", testutil.ToFloat64(p.cacheHits.WithLabelValues("model")), 1},
		{"misses", testutil.ToFloat64(p.cacheMisses.WithLabelValues("model")), 2},
		{"backend", testutil.ToFloat64(p.backendRequests.WithLabelValues("/sameop", "200")), 1},
		{"backend errors", testutil.ToFloat64(p.backendErrors.WithLabelValues("/sameop")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPrometheusHandler(t *testing.T) {
	p := NewPrometheus("refgraph")
	p.ObserveRequest("GET", "/healthz", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `refgraph_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", rec.Body.String())
	}
}
