package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/cache"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/graph"
	"github.com/refgraph/refgraph/pkg/observability"
	"github.com/refgraph/refgraph/pkg/pipeline"
	"github.com/refgraph/refgraph/pkg/report"
)

const payload = `{
	"nodes": [
		{"id": "op1", "labels": ["Operator"]},
		{"id": "u1", "labels": ["UID"]},
		{"id": "r1", "labels": ["Ref"]},
		{"id": "r2", "labels": ["Ref"]}
	],
	"relationships": [
		{"id": "e1", "start": "u1", "end": "op1", "type": "OPERATED_BY"},
		{"id": "e2", "start": "r1", "end": "u1", "type": "BELONGS_TO"},
		{"id": "e3", "start": "r1", "end": "r2", "type": "MATCHES", "props": {"face_score": 0.8}}
	]
}`

type fakeBackend struct {
	queries []backend.Query
	err     error
}

func (f *fakeBackend) Fetch(_ context.Context, q backend.Query, _ bool) ([]byte, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(payload), nil
}

func (f *fakeBackend) CompDegree(context.Context, int) (report.Leaderboard, error) {
	n := func(v int) *int { return &v }
	return report.Leaderboard{
		{NodeID: "c1", InDegree: n(3)},
		{NodeID: "c2", InDegree: n(9)},
		{NodeID: "c3"},
	}, f.err
}

func (f *fakeBackend) Communities(context.Context) ([]report.Community, error) {
	return []report.Community{{CommunityID: "k1", Operator: "op1", OperatedCount: 2}}, f.err
}

func (f *fakeBackend) CommunityDates(context.Context, string) ([]string, error) {
	return []string{"2024-01-02T10:00:00", "2024-01-01", "2024-01-02"}, f.err
}

func newTestServer(t *testing.T, b Backend) (*Server, *observability.Prometheus) {
	t.Helper()
	logger := log.New(io.Discard)
	metrics := observability.NewPrometheus("refgraph")
	s := New(Options{
		Backend: b,
		Runner:  pipeline.NewRunner(cache.NewNullCache(), nil, logger),
		Metrics: metrics,
		Logger:  logger,
	})
	return s, metrics
}

func do(t *testing.T, s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})
	w := do(t, s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Version)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})
	do(t, s, http.MethodGet, "/healthz", nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `refgraph_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestGraph(t *testing.T) {
	b := &fakeBackend{}
	s, _ := newTestServer(t, b)

	w := do(t, s, http.MethodGet, "/api/v1/graph/component?id=c42", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "miss", w.Header().Get("X-Cache"))

	m, err := graph.UnmarshalModel(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, graph.Counts{Nodes: 4, Edges: 3, Connected: 4}, m.Counts)
	assert.Equal(t, "banded", m.Layout)

	require.Len(t, b.queries, 1)
	assert.Equal(t, backend.Query{Kind: backend.KindComponent, ID: "c42", Degree: 1}, b.queries[0])
}

func TestGraphDefaultLayoutFollowsKind(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})

	w := do(t, s, http.MethodGet, "/api/v1/graph/offtime?degree=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m, err := graph.UnmarshalModel(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "cluster", m.Layout)

	w = do(t, s, http.MethodGet, "/api/v1/graph/offtime?layout=banded", nil)
	m, err = graph.UnmarshalModel(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "banded", m.Layout)
}

func TestGraphFilterParams(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})

	tests := []struct {
		name  string
		query string
		edges int
	}{
		{"all keys", "", 3},
		{"other key only", "&keys=left_iris_score", 2},
		{"no keys", "&keys=", 2},
		{"threshold above score", "&threshold.face_score=0.9&keys=face_score", 2},
		{"threshold below score", "&threshold.face_score=0.5&keys=face_score", 3},
		{"prune", "&prune=true", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, "/api/v1/graph/component?id=c1"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			m, err := graph.UnmarshalModel(w.Body.Bytes())
			require.NoError(t, err)
			assert.Equal(t, tt.edges, m.Counts.Edges)
		})
	}
}

func TestGraphErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
		code   errors.Code
	}{
		{"unknown kind", "/api/v1/graph/people?id=x", nil, http.StatusBadRequest, errors.ErrCodeInvalidQuery},
		{"missing id", "/api/v1/graph/component", nil, http.StatusBadRequest, errors.ErrCodeInvalidQuery},
		{"bad layout", "/api/v1/graph/component?id=c1&layout=spiral", nil, http.StatusBadRequest, errors.ErrCodeInvalidLayout},
		{"bad metric", "/api/v1/graph/component?id=c1&metric=pagerank", nil, http.StatusBadRequest, errors.ErrCodeInvalidMetric},
		{"bad threshold", "/api/v1/graph/component?id=c1&threshold.face_score=high", nil, http.StatusBadRequest, errors.ErrCodeInvalidThreshold},
		{"bad format", "/api/v1/graph/component?id=c1&format=html", nil, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad prune", "/api/v1/graph/component?id=c1&prune=maybe", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"not found", "/api/v1/graph/component?id=c1", errors.New(errors.ErrCodeNotFound, "no such component"), http.StatusNotFound, errors.ErrCodeNotFound},
		{"circuit open", "/api/v1/graph/sameop", errors.New(errors.ErrCodeUnavailable, "backend unavailable"), http.StatusServiceUnavailable, errors.ErrCodeUnavailable},
		{"backend 5xx", "/api/v1/graph/sameop", errors.New(errors.ErrCodeNetwork, "backend returned 502"), http.StatusBadGateway, errors.ErrCodeNetwork},
		{"timeout", "/api/v1/graph/sameop", errors.New(errors.ErrCodeTimeout, "timed out"), http.StatusGatewayTimeout, errors.ErrCodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, &fakeBackend{err: tt.err})
			w := do(t, s, http.MethodGet, tt.target, nil)

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRender(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})

	w := do(t, s, http.MethodPost, "/api/v1/render?layout=cluster&seed=7", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m, err := graph.UnmarshalModel(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "cluster", m.Layout)
	assert.Equal(t, 4, m.Counts.Nodes)

	w = do(t, s, http.MethodPost, "/api/v1/render?format=dot", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/vnd.graphviz", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"op1"`)
}

func TestRenderMalformedPayload(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})
	w := do(t, s, http.MethodPost, "/api/v1/render", strings.NewReader("not json"))

	require.Equal(t, http.StatusOK, w.Code)
	m, err := graph.UnmarshalModel(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Counts.Nodes)
}

func TestLeaderboard(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})
	w := do(t, s, http.MethodGet, "/api/v1/leaderboard?size=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page leaderboardPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "c2", page.Entries[0].NodeID)
	assert.Equal(t, "c1", page.Entries[1].NodeID)

	w = do(t, s, http.MethodGet, "/api/v1/leaderboard?sort=rank", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommunitiesAndTimeline(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})

	w := do(t, s, http.MethodGet, "/api/v1/communities", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"communityId":"k1"`)

	w = do(t, s, http.MethodGet, "/api/v1/communities/k1/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Days []report.Day `json:"days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []report.Day{
		{Date: "2024-01-01", Count: 1, Cumulative: 1},
		{Date: "2024-01-02", Count: 2, Cumulative: 3},
	}, body.Days)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(io.EOF))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusConflict, StatusFor(errors.New(errors.ErrCodeSuperseded, "stale")))
}
