package walknet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitescore/internal/model"
)

func poiAt(id string, c model.LatLng) model.POI {
	return model.POI{ID: id, Name: id, Category: "카페", Place: model.NewPlace(c.Lat, c.Lng, Distance(base, c))}
}

func ids(items []model.POI) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestFilterStraightLineWithoutPaths(t *testing.T) {
	items := []model.POI{
		poiAt("far", offset(base, 0, 600)),
		poiAt("mid", offset(base, 0, 300)),
		poiAt("near", offset(base, 0, 100)),
	}

	got := FilterByNetworkDistance(base, items, nil, 500, nil)
	assert.Equal(t, FilterStraightLine, got.Mode)
	assert.Equal(t, []string{"near", "mid"}, ids(got.Items))
	assert.Equal(t, 1, got.Unreachable)
	assert.InDelta(t, 100, *got.Items[0].NetworkDistance, 0.1)
	assert.InDelta(t, 300, *got.Items[1].NetworkDistance, 0.1)

	// Inputs are left untouched.
	assert.Nil(t, items[2].NetworkDistance)
}

func TestFilterStraightLineWithEmptyGraph(t *testing.T) {
	paths := []model.PathSegment{seg("1", model.LatLng{Lat: math.NaN(), Lng: 0}, base)}
	got := FilterByNetworkDistance(base, []model.POI{poiAt("near", offset(base, 50, 0))}, paths, 500, nil)
	assert.Equal(t, FilterStraightLine, got.Mode)
	assert.Len(t, got.Items, 1)
}

func TestFilterLShape(t *testing.T) {
	start, corner, end, paths := lShape()
	items := []model.POI{poiAt("end", end), poiAt("corner", corner), poiAt("start", start)}

	got := FilterByNetworkDistance(start, items, paths, 250, BuildGraph(paths))
	assert.Equal(t, FilterNetwork, got.Mode)
	assert.Equal(t, []string{"start", "corner"}, ids(got.Items))
	assert.Equal(t, 1, got.Unreachable)
	assert.InDelta(t, 0, *got.Items[0].NetworkDistance, 1e-9)
	assert.InDelta(t, 150, *got.Items[1].NetworkDistance, 0.1)
}

func TestFilterAddsSnapDistances(t *testing.T) {
	start, corner, _, paths := lShape()
	target := offset(start, -10, 0)
	item := poiAt("beside corner", offset(corner, 5, 0))

	got := FilterByNetworkDistance(target, []model.POI{item}, paths, 500, nil)
	require.Len(t, got.Items, 1)
	assert.InDelta(t, 10+150+5, *got.Items[0].NetworkDistance, 0.2)

	// The snap distances count toward the cutoff.
	got = FilterByNetworkDistance(target, []model.POI{item}, paths, 160, nil)
	assert.Empty(t, got.Items)
	assert.Equal(t, 1, got.Unreachable)
}

func TestFilterDropsUnlocatedAndDisconnected(t *testing.T) {
	start, corner, _, paths := lShape()
	island := offset(base, 0, -400)
	paths = append(paths, seg("island", island, offset(island, 20, 0)))

	lat := 37.0
	items := []model.POI{
		{ID: "no coordinate", Place: model.Place{Lat: &lat}},
		poiAt("island", island),
		poiAt("corner", corner),
	}

	got := FilterByNetworkDistance(start, items, paths, math.Inf(1), nil)
	assert.Equal(t, []string{"corner"}, ids(got.Items))
	assert.Equal(t, 1, got.Unlocated)
	assert.Equal(t, 1, got.Unreachable)
}

func TestFilterSortedAscending(t *testing.T) {
	var coords []model.LatLng
	for i := 0; i <= 10; i++ {
		coords = append(coords, offset(base, float64(i)*30, 0))
	}
	paths := []model.PathSegment{seg("1", coords...)}

	items := []model.POI{
		poiAt("d", coords[9]), poiAt("a", coords[1]), poiAt("c", coords[6]), poiAt("b", coords[3]),
	}
	got := FilterByNetworkDistance(base, items, paths, 1000, nil)
	require.Len(t, got.Items, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got.Items))
	for i := 1; i < len(got.Items); i++ {
		assert.LessOrEqual(t, *got.Items[i-1].NetworkDistance, *got.Items[i].NetworkDistance)
	}
	for _, it := range got.Items {
		assert.LessOrEqual(t, *it.NetworkDistance, 1000.0)
	}
}

func TestFilterCompetitors(t *testing.T) {
	_, corner, _, paths := lShape()
	c := model.Competitor{ID: "c1", Source: model.CompetitorSourcePOI, Place: model.NewPlace(corner.Lat, corner.Lng, 150)}

	got := FilterByNetworkDistance(base, []model.Competitor{c}, paths, 500, nil)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "c1", got.Items[0].ID)
	assert.True(t, got.Items[0].HasNetworkDistance())
}

func TestNetworkDistance(t *testing.T) {
	start, _, end, paths := lShape()
	g := BuildGraph(paths)

	d, viaNetwork := NetworkDistance(start, end, g)
	assert.True(t, viaNetwork)
	assert.InDelta(t, 300, d, 0.2)

	island := offset(base, 0, -400)
	g.AddEdge(island, offset(island, 20, 0))
	d, viaNetwork = NetworkDistance(start, island, g)
	assert.False(t, viaNetwork)
	assert.InDelta(t, 400, d, 0.2)

	d, viaNetwork = NetworkDistance(start, end, NewGraph())
	assert.False(t, viaNetwork)
	assert.InDelta(t, Distance(start, end), d, 1e-9)

	d, _ = NetworkDistance(model.LatLng{Lat: math.NaN()}, end, g)
	assert.True(t, math.IsNaN(d))
}
