// Package walknet builds walkable path graphs and answers reachability
// questions over them: bounded shortest paths, reachable-area polygons and
// network-distance filtering of nearby entities.
package walknet

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/sells-group/sitescore/internal/model"
)

// EarthRadiusMeters is the mean Earth radius used for all distances.
const EarthRadiusMeters = 6371008.8

const metersPerDegree = EarthRadiusMeters * math.Pi / 180

// Distance returns the great-circle distance between a and b in metres.
func Distance(a, b model.LatLng) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lng)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return la.Distance(lb).Radians() * EarthRadiusMeters
}

// projection is a local equirectangular frame in metres centred on an
// origin. Accurate to well under a metre across the few kilometres an
// analysis covers.
type projection struct {
	origin model.LatLng
	cosLat float64
}

func newProjection(origin model.LatLng) projection {
	return projection{origin: origin, cosLat: math.Cos(origin.Lat * math.Pi / 180)}
}

func (p projection) forward(c model.LatLng) (x, y float64) {
	x = (c.Lng - p.origin.Lng) * metersPerDegree * p.cosLat
	y = (c.Lat - p.origin.Lat) * metersPerDegree
	return x, y
}

func (p projection) inverse(x, y float64) model.LatLng {
	return model.LatLng{
		Lat: p.origin.Lat + y/metersPerDegree,
		Lng: p.origin.Lng + x/(metersPerDegree*p.cosLat),
	}
}
