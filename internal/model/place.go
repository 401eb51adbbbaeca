package model

import "math"

// LatLng is a WGS84 coordinate in decimal degrees. A missing component is
// carried as NaN.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and within range.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// PathSegment is a walkable way made of ordered vertices.
type PathSegment struct {
	ID       string   `json:"id"`
	OSMID    int64    `json:"osm_id,omitempty"`
	Highway  string   `json:"highway"`
	Name     string   `json:"name,omitempty"`
	Distance float64  `json:"distance"`
	Coords   []LatLng `json:"-"`
}

// Place carries the location fields shared by every locatable entity.
// Distance is the straight-line distance reported by the data source.
// NetworkDistance is set only after network filtering.
type Place struct {
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Distance        float64  `json:"distance"`
	NetworkDistance *float64 `json:"network_distance,omitempty"`
}

// NewPlace returns a Place located at lat/lng.
func NewPlace(lat, lng, distance float64) Place {
	return Place{Lat: &lat, Lng: &lng, Distance: distance}
}

// Coordinate returns the place's position, or false when it has none.
func (p Place) Coordinate() (LatLng, bool) {
	if p.Lat == nil || p.Lng == nil {
		return LatLng{}, false
	}
	c := LatLng{Lat: *p.Lat, Lng: *p.Lng}
	return c, c.Valid()
}

// HasNetworkDistance reports whether network filtering annotated the place.
func (p Place) HasNetworkDistance() bool {
	return p.NetworkDistance != nil
}

func (p *Place) setNetworkDistance(d float64) {
	p.NetworkDistance = &d
}

func (p *Place) roundDistances() {
	p.Distance = math.Round(p.Distance)
	if p.NetworkDistance != nil {
		d := math.Round(*p.NetworkDistance)
		p.NetworkDistance = &d
	}
}
