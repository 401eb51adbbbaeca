package walknet

import (
	"math"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/model"
)

// Buffer radii used by the reachable-area fallbacks (metres).
const (
	NoPathsBufferMeters  = 50.0
	NodeBufferMeters     = 20.0
	FallbackBufferMeters = 20.0
)

// Outcome tags how a reachable area was produced.
type Outcome int

const (
	// OutcomeNetwork is a dissolved buffer around every reachable node.
	OutcomeNetwork Outcome = iota
	// DegradedNoPaths means no path geometry was supplied.
	DegradedNoPaths
	// DegradedNoNodes means the path graph has no node to snap to.
	DegradedNoNodes
	// DegradedUnreachable means the solver returned no nodes.
	DegradedUnreachable
	// DegradedDissolveFailed means the node buffers could not be unioned.
	DegradedDissolveFailed
	// DegradedInvalidStart means the start coordinate is unusable.
	DegradedInvalidStart
)

var outcomeNames = map[Outcome]string{
	OutcomeNetwork:         "network",
	DegradedNoPaths:        "no_paths",
	DegradedNoNodes:        "no_nodes",
	DegradedUnreachable:    "unreachable",
	DegradedDissolveFailed: "dissolve_failed",
	DegradedInvalidStart:   "invalid_start",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// Degraded reports whether the outcome is a fallback.
func (o Outcome) Degraded() bool { return o != OutcomeNetwork }

// MarshalText renders the outcome name in JSON output.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Area is the approximate region walkable from a start point.
type Area struct {
	Geometry       geom.T  `json:"-"`
	Outcome        Outcome `json:"outcome"`
	Reason         string  `json:"reason,omitempty"`
	ReachableNodes int     `json:"reachable_nodes"`
	BufferMeters   float64 `json:"buffer_meters"`
}

// ReachableArea approximates the area reachable from start within cutoff
// metres of network travel. g may be nil, in which case it is built from
// paths. The geometry is nil only when start is invalid; every other failure
// degrades to a circular buffer and is reported through Outcome.
func ReachableArea(start model.LatLng, paths []model.PathSegment, cutoff float64, g *Graph) Area {
	log := zap.L().With(zap.Float64("lat", start.Lat), zap.Float64("lng", start.Lng), zap.Float64("cutoff", cutoff))

	if !start.Valid() {
		log.Warn("walknet: invalid start coordinate")
		return Area{Outcome: DegradedInvalidStart, Reason: "start coordinate is not a valid lat/lng"}
	}

	if len(paths) == 0 {
		log.Debug("walknet: no paths, using small buffer")
		return bufferArea(start, NoPathsBufferMeters, DegradedNoPaths, "no path geometry near start")
	}

	if g == nil {
		g = BuildGraph(paths)
	}

	snap, ok := g.Nearest(start)
	if !ok {
		log.Warn("walknet: path graph has no nodes")
		return bufferArea(start, cutoffRadius(cutoff), DegradedNoNodes, "path graph has no nodes")
	}

	reach := ShortestPaths(g, snap.Key, cutoff)
	if len(reach) == 0 {
		log.Warn("walknet: no reachable nodes")
		return bufferArea(start, cutoffRadius(cutoff), DegradedUnreachable, "no nodes reachable within cutoff")
	}

	centers := make([]model.LatLng, 0, len(reach))
	for _, n := range g.Nodes() {
		if _, ok := reach[n.Key]; ok {
			centers = append(centers, n.Coord)
		}
	}

	shape, err := UnionDisks(centers, NodeBufferMeters)
	if err != nil {
		log.Warn("walknet: dissolve failed", zap.Int("nodes", len(centers)), zap.Error(err))
		a := bufferArea(start, FallbackBufferMeters, DegradedDissolveFailed, err.Error())
		a.ReachableNodes = len(reach)
		return a
	}

	log.Debug("walknet: reachable area computed", zap.Int("nodes", len(reach)))
	return Area{
		Geometry:       shape,
		Outcome:        OutcomeNetwork,
		ReachableNodes: len(reach),
		BufferMeters:   NodeBufferMeters,
	}
}

// cutoffRadius keeps cutoff-sized fallbacks drawable when the cutoff is
// unbounded or unusable.
func cutoffRadius(cutoff float64) float64 {
	if cutoff > 0 && !math.IsInf(cutoff, 1) {
		return cutoff
	}
	return FallbackBufferMeters
}

func bufferArea(c model.LatLng, radius float64, o Outcome, reason string) Area {
	return Area{
		Geometry:     Circle(c, radius),
		Outcome:      o,
		Reason:       reason,
		BufferMeters: radius,
	}
}
