// Package report decodes and shapes the tabular backend reports that sit
// next to the graph queries.
//
//   - [Leaderboard]: nodes by in-degree (/compdegree), sortable, searchable,
//     pageable and exportable as CSV
//   - [Community]: operator communities with their control ratio
//     (/communities)
//   - [Timeline]: daily and cumulative counts of a community's reference
//     dates (/communityGraphs)
//
// Decoders are lenient about individual fields, like the graph normalizer,
// but reject a response whose envelope is wrong with INVALID_INPUT.
package report
