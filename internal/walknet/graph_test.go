package walknet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitescore/internal/model"
)

var base = model.LatLng{Lat: 37.4563, Lng: 126.8954}

// offset returns the point dx metres east and dy metres north of o.
func offset(o model.LatLng, dx, dy float64) model.LatLng {
	return newProjection(o).inverse(dx, dy)
}

func seg(id string, coords ...model.LatLng) model.PathSegment {
	return model.PathSegment{ID: id, Highway: "footway", Coords: coords}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(base, base), 1e-9)

	north := offset(base, 0, 150)
	assert.InDelta(t, 150, Distance(base, north), 0.05)
	assert.InDelta(t, Distance(base, north), Distance(north, base), 1e-9)

	// One degree of latitude.
	assert.InDelta(t, 111195, Distance(model.LatLng{Lat: 0, Lng: 0}, model.LatLng{Lat: 1, Lng: 0}), 1)
}

func TestKeyOf(t *testing.T) {
	a := model.LatLng{Lat: 37.1234564, Lng: 126.9876543}
	b := model.LatLng{Lat: 37.1234561, Lng: 126.9876538}
	assert.Equal(t, KeyOf(a), KeyOf(b))
	assert.Equal(t, NodeKey{Lat: 37123456, Lng: 126987654}, KeyOf(a))

	c := model.LatLng{Lat: 37.123458, Lng: 126.9876543}
	assert.NotEqual(t, KeyOf(a), KeyOf(c))
}

func TestBuildGraph(t *testing.T) {
	a := base
	b := offset(base, 0, 100)
	c := offset(base, 100, 100)

	tests := []struct {
		name      string
		paths     []model.PathSegment
		wantNodes int
		wantEdges int
	}{
		{"empty", nil, 0, 0},
		{"single vertex segment", []model.PathSegment{seg("1", a)}, 0, 0},
		{"one segment", []model.PathSegment{seg("1", a, b, c)}, 3, 2},
		{"shared vertex merges", []model.PathSegment{seg("1", a, b), seg("2", b, c)}, 3, 2},
		{"duplicate edge counted once", []model.PathSegment{seg("1", a, b), seg("2", b, a)}, 2, 1},
		{"invalid pair skipped", []model.PathSegment{seg("1", a, model.LatLng{Lat: math.NaN(), Lng: 126.9}, b, c)}, 2, 1},
		{"collapsed pair adds no loop", []model.PathSegment{seg("1", a, model.LatLng{Lat: a.Lat + 1e-8, Lng: a.Lng})}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BuildGraph(tt.paths)
			assert.Equal(t, tt.wantNodes, g.NodeCount())
			assert.Equal(t, tt.wantEdges, g.EdgeCount())
		})
	}
}

func TestBuildGraphWeights(t *testing.T) {
	a := base
	b := offset(base, 0, 100)
	c := offset(base, 100, 100)
	paths := []model.PathSegment{seg("1", a, b, c), seg("2", c, a)}
	g := BuildGraph(paths)

	vertices := 0
	for _, p := range paths {
		vertices += len(p.Coords)
	}
	assert.LessOrEqual(t, g.NodeCount(), 2*vertices)

	for _, n := range g.Nodes() {
		g.Neighbors(n.Key, func(nb NodeKey, w float64) {
			other, ok := g.Node(nb)
			require.True(t, ok)
			assert.GreaterOrEqual(t, w, 0.0)
			assert.InDelta(t, Distance(n.Coord, other.Coord), w, 1e-9)

			back, ok := g.Weight(nb, n.Key)
			require.True(t, ok)
			assert.Equal(t, w, back)
		})
	}
}

func TestBuildGraphKeepsFirstCoordinate(t *testing.T) {
	first := model.LatLng{Lat: 37.4563001, Lng: 126.8954001}
	second := model.LatLng{Lat: 37.4562999, Lng: 126.8953999}
	g := BuildGraph([]model.PathSegment{
		seg("1", first, offset(base, 0, 50)),
		seg("2", second, offset(base, 50, 0)),
	})

	n, ok := g.Node(KeyOf(first))
	require.True(t, ok)
	assert.Equal(t, first, n.Coord)
	assert.Equal(t, 2, n.Degree())
}

func TestNearest(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		_, ok := NewGraph().Nearest(base)
		assert.False(t, ok)
	})

	t.Run("nil graph", func(t *testing.T) {
		var g *Graph
		_, ok := g.Nearest(base)
		assert.False(t, ok)
	})

	t.Run("closest node", func(t *testing.T) {
		near := offset(base, 10, 0)
		far := offset(base, 80, 0)
		g := BuildGraph([]model.PathSegment{seg("1", far, near)})

		s, ok := g.Nearest(base)
		require.True(t, ok)
		assert.Equal(t, KeyOf(near), s.Key)
		assert.InDelta(t, 10, s.Distance, 0.05)
	})

	t.Run("tie keeps first inserted", func(t *testing.T) {
		origin := model.LatLng{Lat: 0, Lng: 0}
		east := model.LatLng{Lat: 0, Lng: 0.0003}
		west := model.LatLng{Lat: 0, Lng: -0.0003}
		g := BuildGraph([]model.PathSegment{seg("1", west, east)})

		s, ok := g.Nearest(origin)
		require.True(t, ok)
		assert.Equal(t, KeyOf(west), s.Key)
	})

	t.Run("invalid point", func(t *testing.T) {
		g := BuildGraph([]model.PathSegment{seg("1", base, offset(base, 10, 0))})
		_, ok := g.Nearest(model.LatLng{Lat: math.NaN(), Lng: 0})
		assert.False(t, ok)
	})
}
