// Package flow turns a table of origin/destination rows into a canonical
// weighted multigraph.
//
// # Overview
//
// The package is the aggregation and indexing core of flowlens. It takes
// [rows.Row] values and a [Mapping] that assigns column roles, and builds:
//
//   - Edges: one [Edge] per ordered (source, target) pair, with the summed
//     weight and the number of contributing rows
//   - An [Index] of outgoing and incoming edges per node for O(1) lookups
//   - [Coordinates] for nodes, with origin-side and destination-side
//     provenance kept apart
//
// # Building a Graph
//
// [Build] runs the whole rebuild in one call and returns an immutable
// [Graph]. Nothing is updated in place: a mapping change means a new Build.
//
//	m := flow.Mapping{Origin: "from", Destination: "to", Weight: "amount"}
//	g, err := flow.Build(ds.Rows, m)
//	if err != nil {
//	    return err // origin == destination
//	}
//	for _, e := range g.Index().Out("Lima") {
//	    fmt.Println(e.Target, e.Value)
//	}
//
// # Ordering
//
// Edge order is the order in which each (source, target) pair is first
// seen in the rows. Index lists preserve that order. Sorting is left to the
// views in package project.
//
// # Row Policy
//
// Rows whose trimmed origin or destination is empty are skipped without an
// error. Weights that do not parse fall back to 1. Coordinates that do not
// parse leave the node without a coordinate for that side.
package flow
