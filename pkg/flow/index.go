package flow

import "sort"

// Index maps node names to their outgoing and incoming edges. It is rebuilt
// from scratch for every edge list and never updated in place.
type Index struct {
	out map[string][]Edge
	in  map[string][]Edge
}

// NewIndex builds the adjacency index of edges. Each list keeps the order
// the edges have in the input slice.
func NewIndex(edges []Edge) *Index {
	idx := &Index{
		out: make(map[string][]Edge),
		in:  make(map[string][]Edge),
	}
	for _, e := range edges {
		idx.out[e.Source] = append(idx.out[e.Source], e)
		idx.in[e.Target] = append(idx.in[e.Target], e)
	}
	return idx
}

// Out returns the edges whose source is name. Unknown names yield an empty,
// non-nil slice.
func (x *Index) Out(name string) []Edge {
	if es, ok := x.out[name]; ok {
		return es
	}
	return []Edge{}
}

// In returns the edges whose target is name. Unknown names yield an empty,
// non-nil slice.
func (x *Index) In(name string) []Edge {
	if es, ok := x.in[name]; ok {
		return es
	}
	return []Edge{}
}

// Sources returns the sorted names that have at least one outgoing edge.
func (x *Index) Sources() []string { return sortedKeys(x.out) }

// Targets returns the sorted names that have at least one incoming edge.
func (x *Index) Targets() []string { return sortedKeys(x.in) }

func sortedKeys(m map[string][]Edge) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
