package sitedata

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const osmExport = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[126.8950, 37.4560], [126.8960, 37.4561]]},
     "properties": {"osm_id": 101, "highway": "footway", "name": "Siheung-daero", "lit": "yes", "width": 2.5}},
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[126.8970, 37.4570], [126.8980, 37.4571]]},
     "properties": {"osm_id": "102", "highway": "steps"}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [126.8950, 37.4560]},
     "properties": {"osm_id": 103, "highway": "footway"}},
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[126.8950, 37.4560], [126.8951, 37.4560]]},
     "properties": {"highway": "path"}},
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[126.8950, 37.4560], [126.8965, 37.4562]]},
     "properties": {"osm_id": 101, "highway": "pedestrian"}}
  ]
}`

func expectPathUpsert(mock pgxmock.PgxPoolIface, n int64) {
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_kor_walking_path"}, walkingPathUpsert.Columns).WillReturnResult(n)
	mock.ExpectExec(`INSERT INTO "kor"."walking_path"`).WillReturnResult(pgxmock.NewResult("INSERT", n))
	mock.ExpectCommit()
}

func TestImportWalkingPaths(t *testing.T) {
	mock := newMock(t)
	expectPathUpsert(mock, 2)

	stats, err := ImportWalkingPaths(context.Background(), mock, strings.NewReader(osmExport))
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Features: 5, Skipped: 2, Duplicates: 1, Upserted: 2}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportWalkingPathsBadJSON(t *testing.T) {
	mock := newMock(t)
	_, err := ImportWalkingPaths(context.Background(), mock, strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sitedata: decode walking path geojson")
}

func TestImportWalkingPathsUpsertError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := ImportWalkingPaths(context.Background(), mock, strings.NewReader(osmExport))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sitedata: upsert walking paths")
}

func TestWalkingPathRow(t *testing.T) {
	line := geom.NewLineStringFlat(geom.XY, []float64{126.895, 37.456, 126.896, 37.4561})
	f := &geojson.Feature{
		Geometry:   line,
		Properties: map[string]any{"osm_id": 42.0, "name": "", "width": 3.0, "surface": "paving_stones"},
	}

	row, id, err := walkingPathRow(f)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.Len(t, row, len(walkingPathUpsert.Columns))
	assert.Equal(t, []any{int64(42), "unknown", nil, nil, "paving_stones", "3", nil, nil}, row[:8])

	g, err := ewkb.Unmarshal(row[8].([]byte))
	require.NoError(t, err)
	assert.Equal(t, 4326, g.SRID())
	assert.Equal(t, line.FlatCoords(), g.FlatCoords())
}

func TestWalkingPathRowRejects(t *testing.T) {
	tests := []struct {
		name string
		f    *geojson.Feature
	}{
		{name: "nil", f: nil},
		{name: "no osm_id", f: &geojson.Feature{Geometry: geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1})}},
		{name: "fractional osm_id", f: &geojson.Feature{
			Geometry:   geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1}),
			Properties: map[string]any{"osm_id": 1.5},
		}},
		{name: "single point line", f: &geojson.Feature{
			Geometry:   geom.NewLineStringFlat(geom.XY, []float64{0, 0}),
			Properties: map[string]any{"osm_id": 7.0},
		}},
		{name: "polygon", f: &geojson.Feature{
			Geometry:   geom.NewPolygonFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 0}, []int{8}),
			Properties: map[string]any{"osm_id": 8.0},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := walkingPathRow(tt.f)
			assert.Error(t, err)
		})
	}
}
