// Package graph defines the transaction-network model and its builder.
//
// This package sits at the trust boundary between externally supplied graph
// payloads and the engine. Raw payloads arrive as arbitrary JSON from the
// data-ingestion backend; the builder validates them into a [Model] whose
// invariants the rest of the engine can rely on:
//
//   - Node IDs are unique and non-empty.
//   - Every edge references two distinct, existing nodes.
//   - Self-loops and dangling edges never survive the build.
//
// Malformed individual records are dropped, not fatal: the builder only
// fails when the root payload is not a nodes/edges container at all.
//
// # Core Types
//
//   - [RawGraph], [RawNode], [RawEdge]: untrusted wire types; unknown keys
//     pass through opaquely as attributes
//   - [Model]: validated graph; node positions are seeded here and owned by
//     the layout engine afterwards
//   - [Node], [Edge]: validated visual elements
//
// # Usage
//
//	model, err := graph.BuildJSON(payload)
//	if err != nil {
//	    // GRAPH_BUILD: payload was not a graph container
//	}
//	model.NodeCount() // validated nodes only
package graph
