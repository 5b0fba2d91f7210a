// Package graph provides the shared types of the refgraph pipeline.
//
// This package defines the canonical in-memory form of a retrieved
// neighborhood and the wire format of the render model handed to renderers,
// the HTTP API and the terminal explorer.
//
// # Architecture
//
// The package sits between the normalizer and the rest of the pipeline:
//
//   - [Component], [Graph]: normalized nodes and relationships
//   - [Node], [Relationship]: immutable after normalization
//   - [RenderModel], [RenderNode], [RenderEdge]: pipeline output
//
// Derived values (category, degree, position, color) never live on [Node];
// they are carried on the render types instead.
//
// # Categories
//
// Node categories are a closed set:
//
//	graph.CategoryOperator  // "operator"
//	graph.CategoryUID       // "uid"
//	graph.CategoryPerson    // "person"
//	graph.CategoryRef       // "ref"
//	graph.CategoryOther     // "other"
//
// # Relationship Classes
//
// [Relationship.Class] derives the class from the relationship type:
//
//   - [ClassMatch]: type is "matches" or "match" (case-insensitive)
//   - [ClassBelongs]: type contains "belongs"
//   - [ClassOperated]: type contains "operat"
//   - [ClassOther]: anything else
//
// # Serialization
//
// Use [MarshalModel] and [UnmarshalModel] for the render model. The JSON
// shape is stable and consumed directly by graph renderers:
//
//	{"nodes":[{"id","label","title","x","y","color":{"background","border"},"size"}],
//	 "edges":[{"id","from","to","label","title"}],
//	 "counts":{"nodes","edges","connected"}}
package graph
