package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/layout"
	"github.com/refgraph/refgraph/pkg/pipeline"
)

const thresholdPrefix = "threshold."

// request is a parsed graph or render request.
type request struct {
	opts    pipeline.Options
	format  string
	render  pipeline.RenderOptions
	refresh bool
}

// parseRequest applies query parameters on top of base. When the layout is
// not given, kind's default layout is used.
//
//	keys=a,b          selected score keys (empty value selects none)
//	threshold.{key}=v per-key threshold
//	prune, layout, metric, seed, format, edge_labels, scale, refresh
func parseRequest(q url.Values, base pipeline.Options, kind backend.Kind) (request, error) {
	req := request{opts: base.WithDefaults(), format: pipeline.FormatJSON}
	o := &req.opts

	if keys, ok := q["keys"]; ok {
		o.Filter = o.Filter.Select(splitList(keys)...)
	}
	for name, vals := range q {
		key, ok := strings.CutPrefix(name, thresholdPrefix)
		if !ok || len(vals) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(vals[0], 64)
		if err != nil || key == "" {
			return req, errors.New(errors.ErrCodeInvalidThreshold, "invalid threshold %s=%q", name, vals[0])
		}
		o.Filter = o.Filter.SetThreshold(key, v)
	}

	var err error
	if v := q.Get("prune"); v != "" {
		if o.Prune, err = strconv.ParseBool(v); err != nil {
			return req, errors.New(errors.ErrCodeInvalidInput, "invalid prune=%q", v)
		}
	}
	switch v := q.Get("layout"); {
	case v != "":
		if o.Layout, err = layout.ParseKind(v); err != nil {
			return req, err
		}
	case kind != "":
		o.Layout = kind.DefaultLayout()
	}
	if v := q.Get("metric"); v != "" {
		if o.Metric, err = degree.ParsePolicy(v); err != nil {
			return req, err
		}
	}
	if v := q.Get("seed"); v != "" {
		if o.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return req, errors.New(errors.ErrCodeInvalidInput, "invalid seed=%q", v)
		}
	}

	if v := q.Get("format"); v != "" {
		if err := pipeline.ValidateFormat(v); err != nil {
			return req, err
		}
		req.format = v
	}
	if v := q.Get("edge_labels"); v != "" {
		if req.render.EdgeLabels, err = strconv.ParseBool(v); err != nil {
			return req, errors.New(errors.ErrCodeInvalidInput, "invalid edge_labels=%q", v)
		}
	}
	if v := q.Get("scale"); v != "" {
		if req.render.Scale, err = strconv.ParseFloat(v, 64); err != nil || req.render.Scale <= 0 {
			return req, errors.New(errors.ErrCodeInvalidInput, "invalid scale=%q", v)
		}
	}
	if v := q.Get("refresh"); v != "" {
		req.refresh, _ = strconv.ParseBool(v)
	}

	return req, o.Validate()
}

// splitList flattens repeated and comma-separated values.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s=%q", name, v)
	}
	return n, nil
}
