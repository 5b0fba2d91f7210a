package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/refgraph/refgraph/pkg/graph"
	"github.com/refgraph/refgraph/pkg/render/nodelink"
)

// RenderOptions configures [Render].
type RenderOptions struct {
	EdgeLabels bool    // draw relationship types on edges (dot, svg, png, pdf)
	Scale      float64 // png scale factor, default 2
}

// Render encodes a render model in the given format.
func Render(ctx context.Context, m graph.RenderModel, format string, opts RenderOptions) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if format == FormatJSON {
		return graph.MarshalModel(m)
	}

	dot := nodelink.ToDOT(m, nodelink.Options{EdgeLabels: opts.EdgeLabels})
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		scale := opts.Scale
		if scale <= 0 {
			scale = 2.0
		}
		data, err = nodelink.RenderPNG(ctx, dot, scale)
	case FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

// maxConcurrentRenders bounds the graphviz instances alive at once.
const maxConcurrentRenders = 3

// RenderAll encodes m in every format concurrently. The result is in
// formats order. The first failure cancels the remaining renders.
func RenderAll(ctx context.Context, m graph.RenderModel, formats []string, opts RenderOptions) ([][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	out := make([][]byte, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRenders)
	for i, format := range formats {
		g.Go(func() error {
			data, err := Render(ctx, m, format, opts)
			out[i] = data
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}
