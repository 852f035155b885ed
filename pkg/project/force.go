package project

import (
	"math"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// Force graph scaling bounds.
const (
	MinNodeSize  = 15.0
	MaxNodeSize  = 100.0
	MinEdgeWidth = 0.5
	MaxEdgeWidth = 5.0
)

// Force projects g like [TopN] and adds force graph metrics. A node's degree
// is the summed value of the displayed edges touching it; node size scales
// linearly from [MinNodeSize] to [MaxNodeSize] between the smallest and the
// largest positive degree. Edge width scales from [MinEdgeWidth] to
// [MaxEdgeWidth] between the smallest and largest displayed value. Nodes are
// colored by display position and edges take their source's color. A zero
// N falls back to [DefaultForceTopN].
func Force(g *flow.Graph, params TopNParams) FlowPayload {
	p := topN(g, params, DefaultForceTopN)
	if len(p.Edges) == 0 {
		return p
	}

	ids := make(map[string]int, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[n.Name] = i
	}
	for _, e := range p.Edges {
		p.Nodes[ids[e.Source]].Degree += e.Value
		p.Nodes[ids[e.Target]].Degree += e.Value
	}

	var positive []float64
	for _, n := range p.Nodes {
		if n.Degree > 0 {
			positive = append(positive, n.Degree)
		}
	}
	lo, hi := bounds(positive)
	for i := range p.Nodes {
		n := &p.Nodes[i]
		n.Size = clamp(MinNodeSize+(n.Degree-lo)/span(lo, hi)*(MaxNodeSize-MinNodeSize),
			MinNodeSize, MaxNodeSize)
		n.Color = Palette[i%len(Palette)]
	}

	values := make([]float64, len(p.Edges))
	for i, e := range p.Edges {
		values[i] = e.Value
	}
	lo, hi = bounds(values)
	for i := range p.Edges {
		e := &p.Edges[i]
		e.Width = MinEdgeWidth + (e.Value-lo)/span(lo, hi)*(MaxEdgeWidth-MinEdgeWidth)
		e.Color = p.Nodes[ids[e.Source]].Color
	}
	return p
}

// bounds returns the min and max of xs, or (0, 0) for an empty slice.
func bounds(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// span is hi-lo, with an empty range counted as 1.
func span(lo, hi float64) float64 {
	if d := hi - lo; d != 0 {
		return d
	}
	return 1
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
