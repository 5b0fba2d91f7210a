package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnNormalize(ctx, "components", 10, 12)
	p.OnRunStart(ctx, "banded", 2048)
	p.OnRunComplete(ctx, "banded", RunCounts{Nodes: 10}, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "model")
	c.OnCacheMiss(ctx, "http")
	c.OnCacheSet(ctx, "model", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "backend.local", "/components/c1")
	h.OnResponse(ctx, "GET", "backend.local", "/components/c1", 200, time.Second)
	h.OnError(ctx, "GET", "backend.local", "/components/c1", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestRegister(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testCacheHooks{}
	SetCacheHooks(custom)

	p := NewPrometheus("test")
	restore := Register(p)
	if Pipeline() != PipelineHooks(p) || Cache() != CacheHooks(p) || HTTP() != HTTPHooks(p) {
		t.Error("Register should install every interface Prometheus implements")
	}

	restore()
	if Cache() != CacheHooks(custom) {
		t.Error("restore should bring back the previous cache hooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("restore should bring back the previous pipeline hooks")
	}
}

func TestRegisterPartial(t *testing.T) {
	Reset()
	defer Reset()

	h := &testHTTPHooks{}
	Register(h)
	if HTTP() != HTTPHooks(h) {
		t.Error("HTTP hooks not installed")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Register should leave unimplemented hooks alone")
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
