package state

import (
	"strings"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/project"
)

// ViewID names one view. Ego panels are numbered from 1.
type ViewID string

const (
	ViewFlow  ViewID = "flow"
	ViewForce ViewID = "force"
	ViewEgo1  ViewID = "ego-1"
	ViewEgo2  ViewID = "ego-2"
	ViewEgo3  ViewID = "ego-3"
	ViewEgo4  ViewID = "ego-4"
	ViewMap   ViewID = "map"
)

// Views lists every view in tab order.
var Views = []ViewID{ViewFlow, ViewForce, ViewEgo1, ViewEgo2, ViewEgo3, ViewEgo4, ViewMap}

// Kind groups views that share a projection.
type Kind string

const (
	KindFlow  Kind = "flow"
	KindForce Kind = "force"
	KindEgo   Kind = "ego"
	KindMap   Kind = "map"
)

// Kind returns the projection kind of v.
func (v ViewID) Kind() Kind {
	switch {
	case v == ViewFlow:
		return KindFlow
	case v == ViewForce:
		return KindForce
	case v == ViewMap:
		return KindMap
	case strings.HasPrefix(string(v), "ego-"):
		return KindEgo
	}
	return ""
}

// ParseView validates s as a view id.
func ParseView(s string) (ViewID, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidView,
		"unknown view %q (valid: flow, force, ego-1..ego-4, map)", s)
}

// Params holds the parameters of every view kind. Each view only reads the
// fields of its kind: flow and force use Origin, Destination and TopN; ego
// uses Focus; map uses Origin, Destination, ColorBy, Group and CostMode.
type Params struct {
	Origin      string `json:"origin,omitempty" toml:"origin"`
	Destination string `json:"destination,omitempty" toml:"destination"`
	TopN        int    `json:"topN,omitempty" toml:"top_n"`
	Focus       string `json:"focus,omitempty" toml:"focus"`
	ColorBy     string `json:"colorBy,omitempty" toml:"color_by"`
	Group       string `json:"group,omitempty" toml:"group"`
	CostMode    bool   `json:"costMode,omitempty" toml:"cost_mode"`
}

// Validate rejects out-of-range parameters.
func (p Params) Validate() error {
	if err := errors.ValidateTopN(p.TopN); err != nil {
		return err
	}
	return errors.ValidateColumnName(p.ColorBy)
}

// DefaultParams returns the initial parameters of v.
func DefaultParams(v ViewID) Params {
	switch v.Kind() {
	case KindFlow:
		return Params{TopN: project.DefaultFlowTopN}
	case KindForce:
		return Params{TopN: project.DefaultForceTopN}
	}
	return Params{}
}

func (p Params) topN() project.TopNParams {
	return project.TopNParams{Origin: p.Origin, Destination: p.Destination, N: p.TopN}
}

func (p Params) geo() project.GeoParams {
	return project.GeoParams{
		Origin:      p.Origin,
		Destination: p.Destination,
		ColorBy:     p.ColorBy,
		Group:       p.Group,
		CostMode:    p.CostMode,
	}
}
