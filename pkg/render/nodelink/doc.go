// Package nodelink renders investigation graphs as Graphviz diagrams.
//
// [ToDOT] writes every render node with a pinned position (pos="x,y!"), its
// mapped fill, border and diameter, and its tooltip. Layout space has y
// growing downward while Graphviz has y growing upward, so y is negated.
// [RenderSVG] runs the neato engine, which honors pinned positions instead
// of computing its own layout.
//
//	dot := nodelink.ToDOT(model, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PDF and PNG output go through [render.ToPDF] and [render.ToPNG].
//
// [render.ToPDF]: github.com/refgraph/refgraph/pkg/render.ToPDF
// [render.ToPNG]: github.com/refgraph/refgraph/pkg/render.ToPNG
package nodelink
