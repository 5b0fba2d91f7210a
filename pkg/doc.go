// Package pkg holds the refgraph libraries.
//
// # Overview
//
// Refgraph turns entity graphs fetched from an investigation backend into
// render models: positioned, colored and sized nodes with the edges that
// survive the operator's score filter. The same pipeline backs the CLI, the
// terminal explorer and the HTTP API.
//
// # Pipeline
//
//	backend payload
//	      ↓
//	[normalize]  decode any supported payload shape into a graph
//	      ↓
//	[classify]   assign each node a category from its labels
//	      ↓
//	[filter]     hide match relationships below the score thresholds
//	      ↓
//	[degree]     count owner links per node (direct or transitive)
//	      ↓
//	[prune]      optionally drop owners with a single direct link
//	      ↓
//	[layout]     banded or cluster positions
//	      ↓
//	[style]      color and size ramps, tooltips
//	      ↓
//	[graph].RenderModel → [render] json, dot, svg, png, pdf
//
// [pipeline] wires the stages together. [pipeline.Run] is pure;
// [pipeline.Runner] adds model caching.
//
// # Retrieval
//
// [backend] is the HTTP client for the investigation backend, with
// retries from [httputil], a circuit breaker and response caching through
// [cache]. [explorer] keeps the latest fetch and recomputes the model on
// every control change without refetching. [report] shapes leaderboards,
// community summaries and timelines.
//
// # Support
//
// [errors] defines the coded errors, [observability] the metric hooks, and
// [buildinfo] the version stamped at build time.
//
//	payload, _ := client.Fetch(ctx, backend.Query{Kind: backend.KindComponent, ID: "c42"}, false)
//	model, _ := pipeline.Run(payload, pipeline.Options{Prune: true})
//	svg, _ := pipeline.Render(ctx, model, pipeline.FormatSVG, pipeline.RenderOptions{})
//
// [normalize]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/normalize
// [classify]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/classify
// [filter]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/filter
// [degree]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/degree
// [prune]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/prune
// [layout]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/layout
// [style]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/style
// [graph]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/graph
// [render]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/pipeline
// [pipeline.Run]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/pipeline#Run
// [pipeline.Runner]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/pipeline#Runner
// [backend]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/backend
// [httputil]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/httputil
// [cache]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/cache
// [explorer]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/explorer
// [report]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/report
// [errors]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/refgraph/refgraph/pkg/buildinfo
package pkg
