package flow

import (
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/rows"
)

// Mapping assigns roles to dataset columns. Empty fields are unset. Only
// Origin and Destination are needed to aggregate.
type Mapping struct {
	Origin      string `json:"origin" toml:"origin"`
	Destination string `json:"destination" toml:"destination"`
	Weight      string `json:"weight,omitempty" toml:"weight"`
	OriginLat   string `json:"origin_lat,omitempty" toml:"origin_lat"`
	OriginLng   string `json:"origin_lng,omitempty" toml:"origin_lng"`
	DestLat     string `json:"dest_lat,omitempty" toml:"dest_lat"`
	DestLng     string `json:"dest_lng,omitempty" toml:"dest_lng"`
}

// Complete reports whether origin and destination are both set.
func (m Mapping) Complete() bool {
	return m.Origin != "" && m.Destination != ""
}

// HasOriginCoords reports whether both origin coordinate columns are set.
func (m Mapping) HasOriginCoords() bool {
	return m.OriginLat != "" && m.OriginLng != ""
}

// HasDestCoords reports whether both destination coordinate columns are set.
func (m Mapping) HasDestCoords() bool {
	return m.DestLat != "" && m.DestLng != ""
}

// HasCoords reports whether at least one coordinate pair is fully set.
func (m Mapping) HasCoords() bool {
	return m.HasOriginCoords() || m.HasDestCoords()
}

// Validate rejects mappings that can never aggregate: the same column for
// origin and destination, or column names that fail
// [errors.ValidateColumnName]. An incomplete mapping is valid.
func (m Mapping) Validate() error {
	for _, c := range m.columns() {
		if err := errors.ValidateColumnName(c); err != nil {
			return err
		}
	}
	if m.Origin != "" && m.Origin == m.Destination {
		return errors.New(errors.ErrCodeInvalidMapping,
			"origin and destination cannot be the same column (%q)", m.Origin)
	}
	return nil
}

// Restrict clears every role whose column is not present in ds.
func (m Mapping) Restrict(ds rows.Dataset) Mapping {
	keep := func(c string) string {
		if c == "" || ds.HasColumn(c) {
			return c
		}
		return ""
	}
	return Mapping{
		Origin:      keep(m.Origin),
		Destination: keep(m.Destination),
		Weight:      keep(m.Weight),
		OriginLat:   keep(m.OriginLat),
		OriginLng:   keep(m.OriginLng),
		DestLat:     keep(m.DestLat),
		DestLng:     keep(m.DestLng),
	}
}

// Missing returns the configured columns that ds does not have, in role
// order.
func (m Mapping) Missing(ds rows.Dataset) []string {
	var out []string
	for _, c := range m.columns() {
		if c != "" && !ds.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

func (m Mapping) columns() []string {
	return []string{m.Origin, m.Destination, m.Weight, m.OriginLat, m.OriginLng, m.DestLat, m.DestLng}
}
