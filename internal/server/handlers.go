package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/buildinfo"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/pipeline"
	"github.com/refgraph/refgraph/pkg/report"
)

type health struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, health{Status: "ok", Info: buildinfo.Get()})
}

// graph handles GET /api/v1/graph/{kind}.
func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	kind, err := backend.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	query := backend.Query{Kind: kind, ID: q.Get("id")}
	if query.Degree, err = intParam(q, "degree", 1); err != nil {
		writeError(w, err)
		return
	}
	if err := query.Validate(); err != nil {
		writeError(w, err)
		return
	}
	req, err := parseRequest(q, s.defaults, kind)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := s.backend.Fetch(r.Context(), query, req.refresh)
	if err != nil {
		s.logger.Warn("backend fetch failed", "query", query, "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, err)
		return
	}
	s.respondModel(w, r, payload, req)
}

// render handles POST /api/v1/render with a raw payload body.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query(), s.defaults, "")
	if err != nil {
		writeError(w, err)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	s.respondModel(w, r, payload, req)
}

func (s *Server) respondModel(w http.ResponseWriter, r *http.Request, payload []byte, req request) {
	m, hit, err := s.runner.Run(r.Context(), payload, req.opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}

	data, err := pipeline.Render(r.Context(), m, req.format, req.render)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBytes(w, pipeline.ContentType(req.format), data)
}

// leaderboardPage is the GET /api/v1/leaderboard response.
type leaderboardPage struct {
	Entries report.Leaderboard `json:"entries"`
	Page    int                `json:"page"`
	Pages   int                `json:"pages"`
	Total   int                `json:"total"`
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minDegree, err := intParam(q, "min", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := intParam(q, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := intParam(q, "size", 50)
	if err != nil {
		writeError(w, err)
		return
	}
	key, err := report.ParseSortKey(q.Get("sort"))
	if err != nil {
		writeError(w, err)
		return
	}

	lb, err := s.backend.CompDegree(r.Context(), minDegree)
	if err != nil {
		writeError(w, err)
		return
	}
	lb = lb.Search(q.Get("q")).Sort(key, q.Get("order") != "asc")
	entries, pages := lb.Page(page, size)
	page = max(1, min(page, pages))
	writeJSON(w, http.StatusOK, leaderboardPage{Entries: entries, Page: page, Pages: pages, Total: len(lb)})
}

func (s *Server) communities(w http.ResponseWriter, r *http.Request) {
	cs, err := s.backend.Communities(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": cs})
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateEntityID(id); err != nil {
		writeError(w, err)
		return
	}
	dates, err := s.backend.CommunityDates(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"community_id": id, "days": report.Timeline(dates)})
}
