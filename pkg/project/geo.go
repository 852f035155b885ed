package project

import (
	"github.com/matzehuels/flowlens/pkg/flow"
)

// Node shapes on the map.
const (
	ShapeOrigin      = "origin"
	ShapeDestination = "destination"
	ShapeDual        = "dual"
)

// GeoParams configures the map view. Group selects one legend entry of the
// ColorBy column and is ignored when ColorBy is empty.
type GeoParams struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	ColorBy     string `json:"colorBy,omitempty"`
	Group       string `json:"group,omitempty"`
	CostMode    bool   `json:"costMode,omitempty"`
}

// MapNode is a positioned node.
type MapNode struct {
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Size  float64 `json:"size"`
	Shape string  `json:"shape"`
	Group string  `json:"group,omitempty"`
	Color string  `json:"color"`
}

// MapLink is a filtered edge. Only drawable links have both endpoints on
// the map.
type MapLink struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Value    float64 `json:"value"`
	Metric   float64 `json:"metric"`
	Color    string  `json:"color"`
	Drawable bool    `json:"drawable"`
}

// LegendEntry is one color group.
type LegendEntry struct {
	Group    string `json:"group"`
	Color    string `json:"color"`
	Selected bool   `json:"selected,omitempty"`
}

// MapStats summarizes a map projection.
type MapStats struct {
	NodeCount       int     `json:"nodeCount"`
	DisplayedLinks  int     `json:"displayedLinks"`
	FilteredLinks   int     `json:"filteredLinks"`
	TotalLinks      int     `json:"totalLinks"`
	DisplayedWeight float64 `json:"displayedWeight"`
}

// MapPayload is the render input of the map view.
type MapPayload struct {
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	CostMode bool          `json:"costMode"`
	ColorBy  string        `json:"colorBy,omitempty"`
	Nodes    []MapNode     `json:"nodes"`
	Edges    []MapLink     `json:"edges"`
	Legend   []LegendEntry `json:"legend"`
	Stats    MapStats      `json:"stats"`
}

// Summary returns the toolbar digest of p against the graph totals.
func (p MapPayload) Summary(g *flow.Graph) Summary {
	s := displayedSummary(len(g.Edges()), g.TotalWeight(), p.Stats.DisplayedLinks, p.Stats.DisplayedWeight)
	if p.Status == StatusOK {
		s.Label = printer.Sprintf("Nodes: %d · Drawn links: %d/%d · Filtered: %d",
			p.Stats.NodeCount, p.Stats.DisplayedLinks, p.Stats.TotalLinks, p.Stats.FilteredLinks)
	}
	return s
}

// Geo projects g onto the map. Edges are filtered by exact origin and
// destination and, when a group is selected, by the group of their target;
// origins connected to the selected group are then drawn in that group's
// color even if their own group differs.
//
// An edge's metric is its value, or distance times value in cost mode.
// Node size is the summed metric of the filtered edges touching the node.
// Only nodes with coordinates are emitted, and an edge is marked drawable
// only when its source has origin-side and its target destination-side
// coordinates.
func Geo(g *flow.Graph, params GeoParams) MapPayload {
	p := MapPayload{
		Status:   StatusOK,
		CostMode: params.CostMode,
		ColorBy:  params.ColorBy,
		Nodes:    []MapNode{},
		Edges:    []MapLink{},
		Legend:   []LegendEntry{},
		Stats:    MapStats{TotalLinks: len(g.Edges())},
	}
	coords := g.Coords()
	switch {
	case g.Empty():
		p.Status = StatusNoData
		p.Message = msgNoData
		return p
	case !coords.Available():
		p.Status = StatusUnavailable
		p.Message = msgNoCoords
		return p
	}

	groups := ColorGroups(g, params.ColorBy)
	group := params.Group
	if params.ColorBy == "" {
		group = ""
	}
	for _, name := range groups.Names() {
		p.Legend = append(p.Legend, LegendEntry{
			Group:    name,
			Color:    groups.Color(name),
			Selected: name == group,
		})
	}

	filtered := filterEdges(g.Edges(), params.Origin, params.Destination)
	if group != "" {
		kept := make([]flow.Edge, 0, len(filtered))
		for _, e := range filtered {
			if groups.Of(e.Target) == group {
				kept = append(kept, e)
			}
		}
		filtered = kept
	}

	var order []string
	size := make(map[string]float64)
	asSource := make(map[string]bool)
	asTarget := make(map[string]bool)
	touch := func(name string, metric float64) {
		if _, ok := size[name]; !ok {
			order = append(order, name)
		}
		size[name] += metric
	}

	for _, e := range filtered {
		drawable := coords.Drawable(e.Source, e.Target)
		metric := e.Value
		if params.CostMode {
			metric = coords.Distance(e.Source, e.Target) * e.Value
		}
		p.Edges = append(p.Edges, MapLink{
			Source:   e.Source,
			Target:   e.Target,
			Value:    e.Value,
			Metric:   metric,
			Color:    groups.NodeColor(e.Target),
			Drawable: drawable,
		})
		if drawable {
			p.Stats.DisplayedLinks++
			p.Stats.DisplayedWeight += e.Value
		}
		touch(e.Source, metric)
		touch(e.Target, metric)
		asSource[e.Source] = true
		asTarget[e.Target] = true
	}
	p.Stats.FilteredLinks = len(filtered)

	for _, name := range order {
		pos, ok := coords.Get(name)
		if !ok {
			continue
		}
		n := MapNode{
			Name:  name,
			Lat:   pos.Lat,
			Lng:   pos.Lng,
			Size:  size[name],
			Shape: shapeOf(asSource[name], asTarget[name]),
			Group: groups.Of(name),
			Color: groups.NodeColor(name),
		}
		if group != "" && asSource[name] {
			n.Color = groups.Color(group)
		}
		p.Nodes = append(p.Nodes, n)
	}
	p.Stats.NodeCount = len(p.Nodes)

	if len(filtered) == 0 {
		p.Message = msgNoMatch
	}
	return p
}

func shapeOf(source, target bool) string {
	switch {
	case source && target:
		return ShapeDual
	case source:
		return ShapeOrigin
	default:
		return ShapeDestination
	}
}
