// Package nodelink renders flowlens projections as Graphviz node-link
// diagrams.
//
// # Usage
//
// Convert a payload to DOT, then render to SVG:
//
//	dot := nodelink.FlowDOT(payload, nodelink.Options{ShowValues: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [FlowDOT] handles both the flow and the force payloads. [EgoDOT] draws one
// ego panel with the focus highlighted. [MapDOT] pins nodes at their
// coordinates and lets neato route the drawable edges.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, so no Graphviz installation is needed.
package nodelink
