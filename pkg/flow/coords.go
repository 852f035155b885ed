package flow

import (
	"math"

	"github.com/matzehuels/flowlens/pkg/rows"
)

// EarthRadiusKm is the mean earth radius used by [Haversine].
const EarthRadiusKm = 6371.0

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the position lies within [-90,90] x [-180,180].
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Coordinates holds one position per node and remembers which side of a
// row supplied it. A node can be on both sides.
type Coordinates struct {
	pos        map[string]LatLng
	originSide map[string]struct{}
	destSide   map[string]struct{}
}

// ResolveCoordinates extracts node positions from rs under m. Each side is
// read only when both of its columns are mapped. The first valid position
// seen for a node wins; later rows never overwrite it.
func ResolveCoordinates(rs []rows.Row, m Mapping) *Coordinates {
	c := &Coordinates{
		pos:        make(map[string]LatLng),
		originSide: make(map[string]struct{}),
		destSide:   make(map[string]struct{}),
	}
	if !m.HasCoords() {
		return c
	}

	// Each side stands alone: a row without a destination still places
	// its origin.
	for _, row := range rs {
		if name := row.Text(m.Origin); name != "" && m.HasOriginCoords() {
			if p, ok := readLatLng(row, m.OriginLat, m.OriginLng); ok {
				c.set(name, p)
				c.originSide[name] = struct{}{}
			}
		}
		if name := row.Text(m.Destination); name != "" && m.HasDestCoords() {
			if p, ok := readLatLng(row, m.DestLat, m.DestLng); ok {
				c.set(name, p)
				c.destSide[name] = struct{}{}
			}
		}
	}
	return c
}

func readLatLng(row rows.Row, latCol, lngCol string) (LatLng, bool) {
	lat, ok := row.Get(latCol).Float()
	if !ok {
		return LatLng{}, false
	}
	lng, ok := row.Get(lngCol).Float()
	if !ok {
		return LatLng{}, false
	}
	p := LatLng{Lat: lat, Lng: lng}
	return p, p.Valid()
}

func (c *Coordinates) set(name string, p LatLng) {
	if _, ok := c.pos[name]; ok {
		return
	}
	c.pos[name] = p
}

// Get returns the position of name.
func (c *Coordinates) Get(name string) (LatLng, bool) {
	if c == nil {
		return LatLng{}, false
	}
	p, ok := c.pos[name]
	return p, ok
}

// Len returns the number of nodes with a position.
func (c *Coordinates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.pos)
}

// OriginSide reports whether name got a position from an origin column.
func (c *Coordinates) OriginSide(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.originSide[name]
	return ok
}

// DestSide reports whether name got a position from a destination column.
func (c *Coordinates) DestSide(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.destSide[name]
	return ok
}

// Available reports whether at least one node has a position.
func (c *Coordinates) Available() bool { return c.Len() > 0 }

// Drawable reports whether an edge can be drawn on a map: the source got a
// position as an origin and the target got one as a destination.
func (c *Coordinates) Drawable(source, target string) bool {
	return c.OriginSide(source) && c.DestSide(target)
}

// Distance returns the great-circle distance between source and target in
// kilometers, or 0 when the pair is not drawable.
func (c *Coordinates) Distance(source, target string) float64 {
	if !c.Drawable(source, target) {
		return 0
	}
	a, _ := c.Get(source)
	b, _ := c.Get(target)
	return Haversine(a, b)
}

// Haversine returns the great-circle distance between a and b in
// kilometers on a sphere of radius [EarthRadiusKm].
func Haversine(a, b LatLng) float64 {
	const rad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
