// Package backend retrieves graph payloads and reports from the
// investigation backend.
//
// # Queries
//
// A [Query] names one of the graph endpoints:
//
//	component   GET /components/{id}
//	refsimilar  GET /refsimilar?refid={id}
//	sameop      GET /sameop
//	offtime     GET /offtime?degree={n}
//
// [Client.Fetch] returns the raw payload; decoding is left to the pipeline,
// which tolerates any shape. Report endpoints (/compdegree, /communities,
// /communityGraphs) are decoded into [report] types.
//
// # Failure handling
//
// Every request carries the caller's context and an X-Request-ID header.
// Responses map onto error codes: 404 is NOT_FOUND, 5xx and transport
// failures are NETWORK_ERROR, deadlines are TIMEOUT. A circuit breaker trips
// after repeated failures and fails fast with UNAVAILABLE until it half-opens.
// Retries are off unless [Options.Retries] is set.
//
// [report]: github.com/refgraph/refgraph/pkg/report
package backend
