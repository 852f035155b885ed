package project

import (
	"math"

	"golang.org/x/text/number"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// EgoNode is a node of an ego network. ID is the node's position in the
// payload and is what EgoLink endpoints refer to in renderers that need
// numeric ids.
type EgoNode struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Size   float64 `json:"size"`
}

// EgoLink is a displayed ego edge. Width is the value clamped to [1, 6].
type EgoLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	From   int     `json:"from"`
	To     int     `json:"to"`
	Value  float64 `json:"value"`
	Width  float64 `json:"width"`
}

// EgoStats summarizes an ego network.
type EgoStats struct {
	NeighborCount int     `json:"neighborCount"`
	EdgeCount     int     `json:"edgeCount"`
	TotalWeight   float64 `json:"totalWeight"`
}

// Label renders the panel caption. The neighbor count is left out when it
// equals the edge count.
func (s EgoStats) Label() string {
	if s.NeighborCount == s.EdgeCount {
		return printer.Sprintf("Edges: %d · Referrals: %v", s.EdgeCount, number.Decimal(s.TotalWeight))
	}
	return printer.Sprintf("Neighbors: %d · Edges: %d · Referrals: %v",
		s.NeighborCount, s.EdgeCount, number.Decimal(s.TotalWeight))
}

// EgoPayload is the render input of one ego panel.
type EgoPayload struct {
	Status  Status    `json:"status"`
	Message string    `json:"message,omitempty"`
	Focus   string    `json:"focus"`
	Nodes   []EgoNode `json:"nodes"`
	Edges   []EgoLink `json:"edges"`
	Stats   EgoStats  `json:"stats"`
}

// Summary returns the toolbar digest of p against the graph totals.
func (p EgoPayload) Summary(g *flow.Graph) Summary {
	s := displayedSummary(len(g.Edges()), g.TotalWeight(), p.Stats.EdgeCount, p.Stats.TotalWeight)
	if p.Status == StatusOK {
		s.Label = p.Stats.Label()
	}
	return s
}

// Ego projects the neighborhood of focus. Displayed edges are the focus's
// outgoing edges, then its incoming edges, then every other aggregated edge
// whose endpoints both lie in the neighbor set. Each edge appears once.
//
// An empty focus yields [StatusNoSelection]. A focus that is not in the
// graph yields the focus alone with no edges.
func Ego(g *flow.Graph, focus string) EgoPayload {
	p := EgoPayload{
		Status: StatusOK,
		Focus:  focus,
		Nodes:  []EgoNode{},
		Edges:  []EgoLink{},
	}
	switch {
	case focus == "":
		p.Status = StatusNoSelection
		p.Message = msgNoSelection
		return p
	case g.Empty():
		p.Status = StatusNoData
		p.Message = msgNoData
		return p
	}

	idx := g.Index()
	out, in := idx.Out(focus), idx.In(focus)

	var order []string
	members := make(map[string]int)
	addMember := func(name string) {
		if _, ok := members[name]; ok {
			return
		}
		members[name] = len(order)
		order = append(order, name)
	}
	for _, e := range out {
		addMember(e.Target)
	}
	for _, e := range in {
		addMember(e.Source)
	}
	addMember(focus)

	weights := make([]float64, len(order))
	shown := make(map[string]struct{})
	add := func(e flow.Edge) {
		key := e.Key()
		if _, dup := shown[key]; dup {
			return
		}
		shown[key] = struct{}{}
		from, to := members[e.Source], members[e.Target]
		weights[from] += e.Value
		weights[to] += e.Value
		p.Edges = append(p.Edges, EgoLink{
			Source: e.Source,
			Target: e.Target,
			From:   from,
			To:     to,
			Value:  e.Value,
			Width:  clamp(e.Value, 1, 6),
		})
		p.Stats.TotalWeight += e.Value
	}

	for _, e := range out {
		add(e)
	}
	for _, e := range in {
		add(e)
	}
	for _, e := range g.Edges() {
		_, src := members[e.Source]
		_, dst := members[e.Target]
		if src && dst {
			add(e)
		}
	}

	for i, name := range order {
		p.Nodes = append(p.Nodes, EgoNode{
			ID:     i,
			Name:   name,
			Weight: weights[i],
			Size:   MinNodeSize + math.Min(MaxNodeSize-MinNodeSize, math.Round(weights[i])),
		})
	}
	p.Stats.NeighborCount = len(order) - 1
	p.Stats.EdgeCount = len(p.Edges)
	return p
}
