package walknet

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/model"
)

const (
	// circleSteps is the number of vertices used for a full circle.
	circleSteps = 64

	angleEps      = 1e-9
	linkTolerance = 0.01 // metres
	dedupeGrid    = 1e3  // millimetre cells
	minRingArea   = 1e-6 // square metres
	srid          = 4326
)

var (
	errNoDisks       = eris.New("walknet: no valid disks to dissolve")
	errBadRadius     = eris.New("walknet: dissolve radius must be positive and finite")
	errBrokenOutline = eris.New("walknet: disk union outline does not close")
	errEmptyUnion    = eris.New("walknet: disk union produced no rings")
)

// Circle returns a polygon approximating a circle of radius metres around c.
func Circle(c model.LatLng, radius float64) *geom.Polygon {
	proj := newProjection(c)
	pts := make([]point, 0, circleSteps)
	for i := 0; i < circleSteps; i++ {
		a := 2 * math.Pi * float64(i) / circleSteps
		pts = append(pts, point{radius * math.Cos(a), radius * math.Sin(a)})
	}
	return newPolygon([][]geom.Coord{toRing(proj, pts)})
}

type point struct{ x, y float64 }

type disk struct {
	idx  int
	c    point
	rect rtreego.Rect
}

func (d *disk) Bounds() rtreego.Rect { return d.rect }

// interval is the angular range of a circle covered by a neighbour disk.
type interval struct {
	start, end float64
	cause      int
}

// arc is an uncovered stretch of a circle's boundary, traversed
// counter-clockwise from `from` to `to`. startCause and endCause name the
// neighbours whose coverage bounds it; both are -1 for a full circle.
type arc struct {
	circle     int
	from, to   float64
	startCause int
	endCause   int
	full       bool
	used       bool
}

type ring struct {
	pts  []point
	area float64
}

// UnionDisks returns the union of equal-radius disks centred on centers as a
// *geom.Polygon, or a *geom.MultiPolygon when the disks form several
// disjoint islands. Holes enclosed by the disks are preserved.
func UnionDisks(centers []model.LatLng, radius float64) (geom.T, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return nil, errBadRadius
	}

	valid := make([]model.LatLng, 0, len(centers))
	for _, c := range centers {
		if c.Valid() {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil, errNoDisks
	}

	proj := newProjection(boundsCenter(valid))
	disks := dedupeDisks(proj, valid, radius)

	tree := rtreego.NewTree(2, 25, 50)
	for _, d := range disks {
		tree.Insert(d)
	}

	var arcs []arc
	for _, d := range disks {
		arcs = append(arcs, uncoveredArcs(d, coverage(tree, d, radius))...)
	}

	rings, err := traceRings(disks, arcs, radius)
	if err != nil {
		return nil, err
	}
	return assemble(proj, rings)
}

func boundsCenter(cs []model.LatLng) model.LatLng {
	minLat, maxLat := cs[0].Lat, cs[0].Lat
	minLng, maxLng := cs[0].Lng, cs[0].Lng
	for _, c := range cs[1:] {
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
		minLng = math.Min(minLng, c.Lng)
		maxLng = math.Max(maxLng, c.Lng)
	}
	return model.LatLng{Lat: (minLat + maxLat) / 2, Lng: (minLng + maxLng) / 2}
}

func dedupeDisks(proj projection, cs []model.LatLng, radius float64) []*disk {
	seen := make(map[[2]int64]struct{}, len(cs))
	disks := make([]*disk, 0, len(cs))
	for _, c := range cs {
		x, y := proj.forward(c)
		cell := [2]int64{int64(math.Round(x * dedupeGrid)), int64(math.Round(y * dedupeGrid))}
		if _, dup := seen[cell]; dup {
			continue
		}
		seen[cell] = struct{}{}
		disks = append(disks, &disk{
			idx:  len(disks),
			c:    point{x, y},
			rect: rtreego.Point{x, y}.ToRect(radius),
		})
	}
	return disks
}

// coverage lists the angular intervals of d's boundary that lie inside
// overlapping neighbour disks. Tangent neighbours cover nothing.
func coverage(tree *rtreego.Rtree, d *disk, radius float64) []interval {
	var ivs []interval
	for _, s := range tree.SearchIntersect(rtreego.Point{d.c.x, d.c.y}.ToRect(2 * radius)) {
		o := s.(*disk)
		if o.idx == d.idx {
			continue
		}
		dx, dy := o.c.x-d.c.x, o.c.y-d.c.y
		dist := math.Hypot(dx, dy)
		if dist == 0 || dist >= 2*radius {
			continue
		}
		theta := math.Atan2(dy, dx)
		alpha := math.Acos(dist / (2 * radius))
		start := normAngle(theta - alpha)
		ivs = append(ivs, interval{start: start, end: start + 2*alpha, cause: o.idx})
	}
	return ivs
}

func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// uncoveredArcs emits the gaps between merged coverage. Intervals that run
// past a full turn are split at 2π so their tail also covers the angles
// just after zero.
func uncoveredArcs(d *disk, ivs []interval) []arc {
	if len(ivs) == 0 {
		return []arc{{circle: d.idx, from: 0, to: 2 * math.Pi, startCause: -1, endCause: -1, full: true}}
	}

	const turn = 2 * math.Pi
	split := make([]interval, 0, len(ivs)+1)
	for _, iv := range ivs {
		if iv.end > turn {
			split = append(split,
				interval{start: iv.start, end: turn, cause: iv.cause},
				interval{start: 0, end: iv.end - turn, cause: iv.cause},
			)
			continue
		}
		split = append(split, iv)
	}

	sort.Slice(split, func(i, j int) bool {
		if split[i].start != split[j].start {
			return split[i].start < split[j].start
		}
		return split[i].cause < split[j].cause
	})

	var out []arc
	curEnd, endCause := split[0].end, split[0].cause
	for _, iv := range split[1:] {
		if iv.start > curEnd+angleEps {
			out = append(out, arc{circle: d.idx, from: curEnd, to: iv.start, startCause: endCause, endCause: iv.cause})
			curEnd, endCause = iv.end, iv.cause
			continue
		}
		if iv.end > curEnd {
			curEnd, endCause = iv.end, iv.cause
		}
	}
	if wrap := split[0].start + turn; wrap > curEnd+angleEps {
		out = append(out, arc{circle: d.idx, from: curEnd, to: wrap, startCause: endCause, endCause: split[0].cause})
	}
	return out
}

func onCircle(c point, radius, angle float64) point {
	return point{c.x + radius*math.Cos(angle), c.y + radius*math.Sin(angle)}
}

// sampleArc returns the vertices of a, excluding its end point.
func sampleArc(c point, radius float64, a arc) []point {
	span := a.to - a.from
	n := int(math.Ceil(span / (2 * math.Pi) * circleSteps))
	if n < 1 {
		n = 1
	}
	pts := make([]point, 0, n)
	for k := 0; k < n; k++ {
		pts = append(pts, onCircle(c, radius, a.from+span*float64(k)/float64(n)))
	}
	return pts
}

type linkKey struct{ circle, cause int }

// traceRings chains arcs into closed outlines. The arc on circle i that ends
// where neighbour j's coverage begins continues on circle j at the arc whose
// coverage gap opens where i's coverage ends.
func traceRings(disks []*disk, arcs []arc, radius float64) ([]ring, error) {
	byStart := make(map[linkKey]int, len(arcs))
	for i, a := range arcs {
		if !a.full {
			byStart[linkKey{a.circle, a.startCause}] = i
		}
	}

	startPoint := func(i int) point {
		return onCircle(disks[arcs[i].circle].c, radius, arcs[i].from)
	}

	next := func(cur, first int) (int, bool) {
		a := arcs[cur]
		end := onCircle(disks[a.circle].c, radius, a.to)
		if j, ok := byStart[linkKey{a.endCause, a.circle}]; ok && (j == first || !arcs[j].used) {
			p := startPoint(j)
			if math.Hypot(p.x-end.x, p.y-end.y) <= linkTolerance {
				return j, true
			}
		}
		// Several boundaries meet at one point; fall back to the nearest
		// open arc start.
		best, bestDist := -1, linkTolerance
		for j := range arcs {
			if arcs[j].full || (arcs[j].used && j != first) {
				continue
			}
			p := startPoint(j)
			if d := math.Hypot(p.x-end.x, p.y-end.y); d <= bestDist {
				best, bestDist = j, d
			}
		}
		return best, best >= 0
	}

	var rings []ring
	for i := range arcs {
		if arcs[i].used {
			continue
		}
		arcs[i].used = true
		c := disks[arcs[i].circle].c
		pts := sampleArc(c, radius, arcs[i])

		if !arcs[i].full {
			cur := i
			for steps := 0; ; steps++ {
				if steps > len(arcs) {
					return nil, errBrokenOutline
				}
				nx, ok := next(cur, i)
				if !ok {
					return nil, errBrokenOutline
				}
				if nx == i {
					break
				}
				arcs[nx].used = true
				pts = append(pts, sampleArc(disks[arcs[nx].circle].c, radius, arcs[nx])...)
				cur = nx
			}
		}

		if len(pts) < 3 {
			continue
		}
		if a := signedArea(pts); math.Abs(a) > minRingArea {
			rings = append(rings, ring{pts: pts, area: a})
		}
	}
	return rings, nil
}

func signedArea(pts []point) float64 {
	var s float64
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	return s / 2
}

func containsPoint(pts []point, p point) bool {
	in := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.y > p.y) != (b.y > p.y) && p.x < (b.x-a.x)*(p.y-a.y)/(b.y-a.y)+a.x {
			in = !in
		}
	}
	return in
}

// assemble groups counter-clockwise outlines with the clockwise holes they
// enclose. Each hole goes to the smallest outline that contains it.
func assemble(proj projection, rings []ring) (geom.T, error) {
	var outers, holes []ring
	for _, r := range rings {
		if r.area > 0 {
			outers = append(outers, r)
		} else {
			holes = append(holes, r)
		}
	}
	if len(outers) == 0 {
		return nil, errEmptyUnion
	}
	sort.SliceStable(outers, func(i, j int) bool { return outers[i].area > outers[j].area })

	members := make([][]ring, len(outers))
	for _, h := range holes {
		owner := -1
		for i, o := range outers {
			if containsPoint(o.pts, h.pts[0]) && (owner < 0 || o.area < outers[owner].area) {
				owner = i
			}
		}
		if owner < 0 {
			zap.L().Debug("walknet: dropping hole outside every outline", zap.Float64("area", -h.area))
			continue
		}
		members[owner] = append(members[owner], h)
	}

	polys := make([][][]geom.Coord, 0, len(outers))
	for i, o := range outers {
		rs := [][]geom.Coord{toRing(proj, o.pts)}
		for _, h := range members[i] {
			rs = append(rs, toRing(proj, h.pts))
		}
		polys = append(polys, rs)
	}

	if len(polys) == 1 {
		return newPolygon(polys[0]), nil
	}
	mp := geom.NewMultiPolygon(geom.XY).MustSetCoords(polys)
	mp.SetSRID(srid)
	return mp, nil
}

// toRing converts projected vertices to a closed lng/lat ring.
func toRing(proj projection, pts []point) []geom.Coord {
	out := make([]geom.Coord, 0, len(pts)+1)
	for _, p := range pts {
		c := proj.inverse(p.x, p.y)
		out = append(out, geom.Coord{c.Lng, c.Lat})
	}
	first := out[0]
	return append(out, geom.Coord{first[0], first[1]})
}

func newPolygon(rings [][]geom.Coord) *geom.Polygon {
	p := geom.NewPolygon(geom.XY).MustSetCoords(rings)
	p.SetSRID(srid)
	return p
}
