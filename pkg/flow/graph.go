package flow

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/matzehuels/flowlens/pkg/rows"
)

// Graph is the aggregated state of one (rows, mapping) pair: edges, nodes,
// adjacency index and coordinates. A Graph is never modified after [Build]
// returns; every accessor hands out data that callers must treat as
// read-only.
type Graph struct {
	mapping  Mapping
	rows     []rows.Row
	edges    []Edge
	nodes    []string
	index    *Index
	coords   *Coordinates
	total    float64
	accepted int
	hash     string
}

// Build validates m and aggregates rs into a Graph. An incomplete mapping
// yields an empty graph. The only error is an invalid mapping.
func Build(rs []rows.Row, m Mapping) (*Graph, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	g := &Graph{mapping: m, rows: rs}
	if m.Complete() {
		agg := Aggregate(rs, m)
		g.edges = agg.Edges
		g.nodes = agg.Nodes
		g.accepted = agg.Accepted
		g.coords = ResolveCoordinates(rs, m)
	} else {
		g.coords = ResolveCoordinates(nil, Mapping{})
	}
	if g.edges == nil {
		g.edges = []Edge{}
	}
	if g.nodes == nil {
		g.nodes = []string{}
	}
	g.index = NewIndex(g.edges)
	g.total = TotalWeight(g.edges)
	g.hash = hashGraph(m, g.edges, g.coords, g.nodes)
	return g, nil
}

// Mapping returns the mapping the graph was built with.
func (g *Graph) Mapping() Mapping { return g.mapping }

// Rows returns the source rows.
func (g *Graph) Rows() []rows.Row { return g.rows }

// Edges returns the aggregated edges in first-seen order.
func (g *Graph) Edges() []Edge { return g.edges }

// Nodes returns every node name once, in first-seen order.
func (g *Graph) Nodes() []string { return g.nodes }

// Index returns the adjacency index.
func (g *Graph) Index() *Index { return g.index }

// Coords returns the resolved coordinates.
func (g *Graph) Coords() *Coordinates { return g.coords }

// TotalWeight returns the summed value of all edges.
func (g *Graph) TotalWeight() float64 { return g.total }

// RowCount returns the number of input rows.
func (g *Graph) RowCount() int { return len(g.rows) }

// ValidRowCount returns the number of rows that produced a triple.
func (g *Graph) ValidRowCount() int { return g.accepted }

// Empty reports whether the graph has no edges.
func (g *Graph) Empty() bool { return len(g.edges) == 0 }

// HasNode reports whether name appears as a source or target.
func (g *Graph) HasNode(name string) bool {
	return len(g.index.Out(name)) > 0 || len(g.index.In(name)) > 0
}

// Hash returns a content hash of the mapping, edges and coordinates. Color
// groups read raw rows and are not covered.
func (g *Graph) Hash() string { return g.hash }

func hashGraph(m Mapping, edges []Edge, c *Coordinates, nodes []string) string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write(m.columns()...)
	for _, e := range edges {
		write(e.Source, e.Target,
			strconv.FormatFloat(e.Value, 'g', -1, 64),
			strconv.Itoa(e.Count))
	}
	for _, n := range nodes {
		p, ok := c.Get(n)
		if !ok {
			continue
		}
		write(n,
			strconv.FormatFloat(p.Lat, 'g', -1, 64),
			strconv.FormatFloat(p.Lng, 'g', -1, 64),
			strconv.FormatBool(c.OriginSide(n)),
			strconv.FormatBool(c.DestSide(n)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
