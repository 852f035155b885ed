package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/state"
)

// mappingFlags binds the column role flags shared by every command that
// reads a row file. Set flags override the [columns] section of the config.
type mappingFlags struct {
	origin      string
	destination string
	weight      string
	originLat   string
	originLng   string
	destLat     string
	destLng     string
	format      string
}

func (f *mappingFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.origin, "origin-column", "", "column holding the flow origin")
	fl.StringVar(&f.destination, "destination-column", "", "column holding the flow destination")
	fl.StringVar(&f.weight, "weight-column", "", "numeric column summed per edge (default: count rows)")
	fl.StringVar(&f.originLat, "origin-lat", "", "origin latitude column")
	fl.StringVar(&f.originLng, "origin-lng", "", "origin longitude column")
	fl.StringVar(&f.destLat, "dest-lat", "", "destination latitude column")
	fl.StringVar(&f.destLng, "dest-lng", "", "destination longitude column")
	fl.StringVar(&f.format, "input-format", "", "row format: csv or json (default: from the file extension)")
}

// apply returns base with every set flag applied.
func (f *mappingFlags) apply(base flow.Mapping) flow.Mapping {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	m := base
	set(&m.Origin, f.origin)
	set(&m.Destination, f.destination)
	set(&m.Weight, f.weight)
	set(&m.OriginLat, f.originLat)
	set(&m.OriginLng, f.originLng)
	set(&m.DestLat, f.destLat)
	set(&m.DestLng, f.destLng)
	return m
}

// viewFlags binds the view parameters of `project`.
type viewFlags struct {
	origin      string
	destination string
	topN        int
	focus       string
	colorBy     string
	group       string
	cost        bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.origin, "origin", "", "only keep edges leaving this node")
	fl.StringVar(&f.destination, "destination", "", "only keep edges entering this node")
	fl.IntVarP(&f.topN, "top", "n", 0, "number of edges to display (default: per view)")
	fl.StringVar(&f.focus, "focus", "", "focus node of an ego view")
	fl.StringVar(&f.colorBy, "color-by", "", "column that assigns map nodes to color groups")
	fl.StringVar(&f.group, "group", "", "only keep map edges touching this color group")
	fl.BoolVar(&f.cost, "cost", false, "weight map edges by distance")
}

// apply returns base with every set flag applied. --cost applies whenever
// it is passed, so --cost=false overrides the config.
func (f *viewFlags) apply(cmd *cobra.Command, base state.Params) state.Params {
	p := base
	if f.origin != "" {
		p.Origin = f.origin
	}
	if f.destination != "" {
		p.Destination = f.destination
	}
	if f.topN != 0 {
		p.TopN = f.topN
	}
	if f.focus != "" {
		p.Focus = f.focus
	}
	if f.colorBy != "" {
		p.ColorBy = f.colorBy
	}
	if f.group != "" {
		p.Group = f.group
	}
	if cmd.Flags().Changed("cost") {
		p.CostMode = f.cost
	}
	return p
}
