// Package project computes render payloads from an aggregated [flow.Graph].
//
// Every function here is pure: it reads the graph and a parameter struct and
// returns a fresh payload. Nothing is cached and nothing in the graph is
// modified, so projections for different views never interfere.
//
// # Views
//
//   - [TopN]: filtered, weight-sorted edge subset for the flow diagram
//   - [Force]: TopN plus node degree, node size and edge width for the
//     force-directed graph
//   - [Ego]: the neighborhood of one focus node
//   - [Geo]: the map view with coordinates, metrics, shapes and color groups
//
// Each payload carries a [Status] so renderers can show a placeholder
// without inspecting the edge lists.
package project
