package walknet

import (
	"cmp"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/model"
)

// Placeable is an entity that has an optional coordinate and can return a
// copy of itself annotated with a network distance.
type Placeable[T any] interface {
	Coordinate() (model.LatLng, bool)
	WithNetworkDistance(d float64) T
}

// FilterMode tags which distance a filter pass measured.
type FilterMode string

const (
	// FilterNetwork measured distances over the path graph.
	FilterNetwork FilterMode = "network"
	// FilterStraightLine fell back to geodesic distance.
	FilterStraightLine FilterMode = "straight_line"
)

// Filtered is the result of a network-distance filter pass. Items are
// sorted by ascending network distance.
type Filtered[T any] struct {
	Items       []T
	Mode        FilterMode
	Unlocated   int
	Unreachable int
}

type scored[T any] struct {
	item T
	dist float64
}

// FilterByNetworkDistance keeps the items whose walking distance from target
// is at most cutoff and annotates each with that distance. The distance is
// the target's snap distance plus the path length plus the item's snap
// distance. Items without a coordinate, or whose nearest node cannot be
// reached, are dropped. Without paths or graph nodes it falls back to
// straight-line distance. g may be nil, in which case it is built from
// paths.
func FilterByNetworkDistance[T Placeable[T]](target model.LatLng, items []T, paths []model.PathSegment, cutoff float64, g *Graph) Filtered[T] {
	if len(paths) > 0 && g == nil {
		g = BuildGraph(paths)
	}

	var snapT Snap
	ok := false
	if len(paths) > 0 {
		snapT, ok = g.Nearest(target)
	}
	if !ok {
		return filterStraightLine(target, items, cutoff)
	}

	reach := ShortestPaths(g, snapT.Key, cutoff)
	out := Filtered[T]{Mode: FilterNetwork}
	kept := make([]scored[T], 0, len(items))
	for _, it := range items {
		c, ok := it.Coordinate()
		if !ok {
			out.Unlocated++
			continue
		}
		snapE, _ := g.Nearest(c)
		path, ok := reach[snapE.Key]
		if !ok {
			out.Unreachable++
			continue
		}
		total := snapT.Distance + path + snapE.Distance
		if total > cutoff {
			out.Unreachable++
			continue
		}
		kept = append(kept, scored[T]{item: it, dist: total})
	}

	out.Items = finish(kept)
	zap.L().Debug("walknet: network filter",
		zap.Int("in", len(items)),
		zap.Int("kept", len(out.Items)),
		zap.Int("unlocated", out.Unlocated),
		zap.Int("unreachable", out.Unreachable),
	)
	return out
}

func filterStraightLine[T Placeable[T]](target model.LatLng, items []T, cutoff float64) Filtered[T] {
	out := Filtered[T]{Mode: FilterStraightLine}
	kept := make([]scored[T], 0, len(items))
	for _, it := range items {
		c, ok := it.Coordinate()
		if !ok {
			out.Unlocated++
			continue
		}
		d := Distance(target, c)
		if !(d <= cutoff) {
			out.Unreachable++
			continue
		}
		kept = append(kept, scored[T]{item: it, dist: d})
	}
	out.Items = finish(kept)
	return out
}

func finish[T Placeable[T]](kept []scored[T]) []T {
	slices.SortStableFunc(kept, func(a, b scored[T]) int { return cmp.Compare(a.dist, b.dist) })
	items := make([]T, 0, len(kept))
	for _, k := range kept {
		items = append(items, k.item.WithNetworkDistance(k.dist))
	}
	return items
}

// NetworkDistance returns the walking distance between a and b over g: both
// snap distances plus the unbounded shortest path between the snapped
// nodes. It falls back to straight-line distance when either point cannot be
// snapped or the nodes are disconnected. The second result reports whether
// the network was used.
func NetworkDistance(a, b model.LatLng, g *Graph) (float64, bool) {
	if !a.Valid() || !b.Valid() {
		return math.NaN(), false
	}
	sa, okA := g.Nearest(a)
	sb, okB := g.Nearest(b)
	if okA && okB {
		if path, ok := ShortestPaths(g, sa.Key, math.Inf(1))[sb.Key]; ok {
			return sa.Distance + path + sb.Distance, true
		}
	}
	return Distance(a, b), false
}
