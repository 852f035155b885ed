package project

import (
	"sort"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// TopNParams selects the edges of a flow or force view. Empty filters match
// everything; N <= 0 means the view default.
type TopNParams struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	N           int    `json:"topN,omitempty"`
}

// Node is a flow or force graph node. Degree, Size and Color are only set
// by [Force].
type Node struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Degree float64 `json:"degree,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// Link is a displayed edge. Width and Color are only set by [Force].
type Link struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
	Width  float64 `json:"width,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// FlowStats compares the whole graph with the displayed subset.
type FlowStats struct {
	TotalLinks      int     `json:"totalLinks"`
	TotalWeight     float64 `json:"totalWeight"`
	DisplayedLinks  int     `json:"displayedLinks"`
	DisplayedWeight float64 `json:"displayedWeight"`
}

// FlowPayload is the render input of the flow diagram and the force graph.
type FlowPayload struct {
	Status  Status    `json:"status"`
	Message string    `json:"message,omitempty"`
	Nodes   []Node    `json:"nodes"`
	Edges   []Link    `json:"edges"`
	Stats   FlowStats `json:"stats"`
}

// Summary returns the toolbar digest of p.
func (p FlowPayload) Summary() Summary {
	return displayedSummary(p.Stats.TotalLinks, p.Stats.TotalWeight,
		p.Stats.DisplayedLinks, p.Stats.DisplayedWeight)
}

// TopN filters g by exact origin and destination, sorts the remainder by
// value descending (ties keep first-seen order) and keeps the first N.
// Nodes are the endpoints of the kept edges in display order. A zero N
// falls back to [DefaultFlowTopN].
func TopN(g *flow.Graph, params TopNParams) FlowPayload {
	return topN(g, params, DefaultFlowTopN)
}

func topN(g *flow.Graph, params TopNParams, defaultN int) FlowPayload {
	p := FlowPayload{
		Status: StatusOK,
		Nodes:  []Node{},
		Edges:  []Link{},
		Stats: FlowStats{
			TotalLinks:  len(g.Edges()),
			TotalWeight: g.TotalWeight(),
		},
	}
	if g.Empty() {
		p.Status = StatusNoData
		p.Message = msgNoData
		return p
	}

	n := params.N
	if n <= 0 {
		n = defaultN
	}

	shown := SortByValue(filterEdges(g.Edges(), params.Origin, params.Destination))
	if len(shown) > n {
		shown = shown[:n]
	}
	if len(shown) == 0 {
		p.Message = msgNoMatch
		return p
	}

	ids := make(map[string]int)
	addNode := func(name string) {
		if _, ok := ids[name]; ok {
			return
		}
		ids[name] = len(p.Nodes)
		p.Nodes = append(p.Nodes, Node{ID: len(p.Nodes), Name: name})
	}
	for _, e := range shown {
		addNode(e.Source)
		addNode(e.Target)
		p.Edges = append(p.Edges, Link{Source: e.Source, Target: e.Target, Value: e.Value})
		p.Stats.DisplayedWeight += e.Value
	}
	p.Stats.DisplayedLinks = len(shown)
	return p
}

// SortByValue returns a copy of edges sorted by value descending. Equal
// values keep their input order.
func SortByValue(edges []flow.Edge) []flow.Edge {
	out := make([]flow.Edge, len(edges))
	copy(out, edges)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}

func filterEdges(edges []flow.Edge, origin, destination string) []flow.Edge {
	if origin == "" && destination == "" {
		return edges
	}
	out := make([]flow.Edge, 0, len(edges))
	for _, e := range edges {
		if origin != "" && e.Source != origin {
			continue
		}
		if destination != "" && e.Target != destination {
			continue
		}
		out = append(out, e)
	}
	return out
}
