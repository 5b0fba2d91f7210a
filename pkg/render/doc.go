// Package render exports render models to files.
//
// The [nodelink] subpackage turns a [graph.RenderModel] into Graphviz DOT
// with pinned positions and renders it to SVG in-process. [ToPDF] and
// [ToPNG] convert that SVG with the external rsvg-convert tool.
//
//	dot := nodelink.ToDOT(model, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [nodelink]: github.com/refgraph/refgraph/pkg/render/nodelink
// [graph.RenderModel]: github.com/refgraph/refgraph/pkg/graph.RenderModel
package render
