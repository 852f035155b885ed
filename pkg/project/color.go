package project

import (
	"sort"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// Palette is the ten-color categorical scheme (d3 Category10) used for
// groups and force graph nodes.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// NoGroupColor is the color of nodes without a group.
const NoGroupColor = "#9e9e9e"

// Groups assigns each node a category read from one column of the rows.
type Groups struct {
	column string
	of     map[string]string
	names  []string
	colors map[string]string
}

// ColorGroups reads the group of every node from column. A node's group is
// taken from the first row where it is the destination and the cell is not
// blank; nodes that never get one that way fall back to the first row where
// they are the origin. An empty column yields no groups.
func ColorGroups(g *flow.Graph, column string) *Groups {
	gr := &Groups{
		column: column,
		of:     make(map[string]string),
		colors: make(map[string]string),
	}
	if column == "" {
		return gr
	}

	asOrigin := make(map[string]string)
	m := g.Mapping()
	for _, row := range g.Rows() {
		t, ok := flow.Normalize(row, m)
		if !ok {
			continue
		}
		v := row.Text(column)
		if v == "" {
			continue
		}
		if _, ok := gr.of[t.Target]; !ok {
			gr.of[t.Target] = v
		}
		if _, ok := asOrigin[t.Source]; !ok {
			asOrigin[t.Source] = v
		}
	}
	for name, v := range asOrigin {
		if _, ok := gr.of[name]; !ok {
			gr.of[name] = v
		}
	}

	seen := make(map[string]struct{})
	for _, v := range gr.of {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		gr.names = append(gr.names, v)
	}
	sort.Strings(gr.names)
	for i, name := range gr.names {
		gr.colors[name] = Palette[i%len(Palette)]
	}
	return gr
}

// Column returns the column the groups were read from.
func (gr *Groups) Column() string { return gr.column }

// Names returns the sorted group names.
func (gr *Groups) Names() []string { return gr.names }

// Of returns the group of node, or "" when it has none.
func (gr *Groups) Of(node string) string { return gr.of[node] }

// Color returns the color of group, or [NoGroupColor] for "" and unknown
// groups.
func (gr *Groups) Color(group string) string {
	if c, ok := gr.colors[group]; ok {
		return c
	}
	return NoGroupColor
}

// NodeColor returns the color of node's group.
func (gr *Groups) NodeColor(node string) string { return gr.Color(gr.Of(node)) }
