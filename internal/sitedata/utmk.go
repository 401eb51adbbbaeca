package sitedata

import "math"

// UTM-K (EPSG:5179): transverse Mercator on GRS80, the grid used by the
// Korean building register shapefiles.
const (
	utmkA     = 6378137.0
	utmkF     = 1 / 298.257222101
	utmkK0    = 0.9996
	utmkLat0  = 38.0 * math.Pi / 180
	utmkLon0  = 127.5 * math.Pi / 180
	utmkEast  = 1_000_000.0
	utmkNorth = 2_000_000.0
)

var (
	utmkE2  = utmkF * (2 - utmkF)
	utmkEP2 = utmkE2 / (1 - utmkE2)
	utmkM0  = meridianArc(utmkLat0)
)

func meridianArc(phi float64) float64 {
	e2, e4, e6 := utmkE2, utmkE2*utmkE2, utmkE2*utmkE2*utmkE2
	return utmkA * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// wgs84ToUTMK projects degrees to UTM-K easting and northing in metres.
func wgs84ToUTMK(lat, lng float64) (x, y float64) {
	phi := lat * math.Pi / 180
	sin, cos := math.Sincos(phi)
	tan := sin / cos

	n := utmkA / math.Sqrt(1-utmkE2*sin*sin)
	t := tan * tan
	c := utmkEP2 * cos * cos
	a := (lng*math.Pi/180 - utmkLon0) * cos

	x = utmkEast + utmkK0*n*(a+
		(1-t+c)*math.Pow(a, 3)/6+
		(5-18*t+t*t+72*c-58*utmkEP2)*math.Pow(a, 5)/120)
	y = utmkNorth + utmkK0*(meridianArc(phi)-utmkM0+n*tan*(a*a/2+
		(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
		(61-58*t+t*t+600*c-330*utmkEP2)*math.Pow(a, 6)/720))
	return x, y
}

// utmkToWGS84 inverts wgs84ToUTMK.
func utmkToWGS84(x, y float64) (lat, lng float64) {
	e2 := utmkE2
	m := utmkM0 + (y-utmkNorth)/utmkK0
	mu := m / (utmkA * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	r := math.Sqrt(1 - e2)
	e1 := (1 - r) / (1 + r)
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin, cos := math.Sincos(phi1)
	tan := sin / cos
	c1 := utmkEP2 * cos * cos
	t1 := tan * tan
	n1 := utmkA / math.Sqrt(1-e2*sin*sin)
	r1 := utmkA * (1 - e2) / math.Pow(1-e2*sin*sin, 1.5)
	d := (x - utmkEast) / (n1 * utmkK0)

	phi := phi1 - (n1*tan/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*utmkEP2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*utmkEP2-3*c1*c1)*math.Pow(d, 6)/720)
	lambda := utmkLon0 + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*utmkEP2+24*t1*t1)*math.Pow(d, 5)/120)/cos

	return phi * 180 / math.Pi, lambda * 180 / math.Pi
}
