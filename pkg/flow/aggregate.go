package flow

import (
	"strings"

	"github.com/matzehuels/flowlens/pkg/rows"
)

// DefaultWeight is the weight of a row without a usable weight cell.
const DefaultWeight = 1.0

// keySep joins source and target into an edge key.
const keySep = "|"

// Triple is a normalized row.
type Triple struct {
	Source string
	Target string
	Weight float64
}

// Edge is an aggregated, directed relationship. Value is the summed weight
// of the Count rows that share the same (Source, Target) pair.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
	Count  int     `json:"count"`
}

// Key returns the identity key "source|target". A→B and B→A differ.
func (e Edge) Key() string { return EdgeKey(e.Source, e.Target) }

// EdgeKey builds the identity key of the ordered pair (source, target).
func EdgeKey(source, target string) string {
	return source + keySep + target
}

// Normalize converts row into a triple under m. It reports ok=false when the
// trimmed source or target is empty; such rows are expected sparsity and are
// not errors.
//
// The weight is the parsed Weight cell when that column is set and parses to
// a finite number, otherwise [DefaultWeight]. A parsed zero is kept.
func Normalize(row rows.Row, m Mapping) (Triple, bool) {
	source := strings.TrimSpace(row.Get(m.Origin).String())
	target := strings.TrimSpace(row.Get(m.Destination).String())
	if source == "" || target == "" {
		return Triple{}, false
	}

	weight := DefaultWeight
	if m.Weight != "" {
		if w, ok := row.Get(m.Weight).Float(); ok {
			weight = w
		}
	}
	return Triple{Source: source, Target: target, Weight: weight}, true
}

// Aggregation is the result of folding rows into edges.
type Aggregation struct {
	// Edges in first-seen order of their (source, target) pair.
	Edges []Edge
	// Nodes lists every source and target name once, in first-seen order.
	Nodes []string
	// Accepted counts rows that normalized into a triple.
	Accepted int
}

// Aggregate folds rs into canonical edges in a single pass. The first row of
// a pair creates its edge; later rows add their weight and bump the count.
// Output order follows first occurrence, so repeated calls with the same
// input return identical results.
func Aggregate(rs []rows.Row, m Mapping) Aggregation {
	pos := make(map[string]int)
	seen := make(map[string]struct{})
	var agg Aggregation

	addNode := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		agg.Nodes = append(agg.Nodes, name)
	}

	for _, row := range rs {
		t, ok := Normalize(row, m)
		if !ok {
			continue
		}
		agg.Accepted++
		addNode(t.Source)
		addNode(t.Target)

		key := EdgeKey(t.Source, t.Target)
		if i, ok := pos[key]; ok {
			agg.Edges[i].Value += t.Weight
			agg.Edges[i].Count++
			continue
		}
		pos[key] = len(agg.Edges)
		agg.Edges = append(agg.Edges, Edge{
			Source: t.Source,
			Target: t.Target,
			Value:  t.Weight,
			Count:  1,
		})
	}
	return agg
}

// TotalWeight sums Value over edges.
func TotalWeight(edges []Edge) float64 {
	var sum float64
	for _, e := range edges {
		sum += e.Value
	}
	return sum
}
