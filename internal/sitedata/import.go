package sitedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/db"
)

const wgs84SRID = 4326

var walkingPathUpsert = db.UpsertConfig{
	Table:        "kor.walking_path",
	Columns:      []string{"osm_id", "highway", "name", "footway", "surface", "width", "lit", "access", "path_geom"},
	ConflictKeys: []string{"osm_id"},
}

// optionalTags are the OSM way tags copied into nullable columns.
var optionalTags = []string{"name", "footway", "surface", "width", "lit", "access"}

// ImportStats summarizes one walking path import.
type ImportStats struct {
	Features   int   `json:"features"`
	Skipped    int   `json:"skipped"`
	Duplicates int   `json:"duplicates"`
	Upserted   int64 `json:"upserted"`
}

// ImportWalkingPaths reads a GeoJSON FeatureCollection of OSM ways and
// upserts them into kor.walking_path keyed on osm_id. Features without an
// osm_id property or without line geometry are skipped. When a way appears
// more than once the last feature wins.
func ImportWalkingPaths(ctx context.Context, pool db.Pool, r io.Reader) (ImportStats, error) {
	var stats ImportStats

	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return stats, eris.Wrap(err, "sitedata: decode walking path geojson")
	}
	stats.Features = len(fc.Features)

	index := make(map[int64]int, len(fc.Features))
	var rows [][]any
	for i, f := range fc.Features {
		row, osmID, err := walkingPathRow(f)
		if err != nil {
			stats.Skipped++
			zap.L().Debug("skipping walking path feature", zap.Int("feature", i), zap.Error(err))
			continue
		}
		if at, ok := index[osmID]; ok {
			stats.Duplicates++
			rows[at] = row
			continue
		}
		index[osmID] = len(rows)
		rows = append(rows, row)
	}

	n, err := db.BulkUpsert(ctx, pool, walkingPathUpsert, rows)
	if err != nil {
		return stats, eris.Wrap(err, "sitedata: upsert walking paths")
	}
	stats.Upserted = n

	zap.L().Info("walking paths imported",
		zap.Int("features", stats.Features),
		zap.Int("skipped", stats.Skipped),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int64("upserted", stats.Upserted),
	)
	return stats, nil
}

func walkingPathRow(f *geojson.Feature) ([]any, int64, error) {
	if f == nil {
		return nil, 0, eris.New("empty feature")
	}
	osmID, ok := osmIDOf(f.Properties["osm_id"])
	if !ok {
		return nil, 0, eris.New("missing osm_id")
	}

	var g geom.T
	switch t := f.Geometry.(type) {
	case *geom.LineString:
		if t.NumCoords() < 2 {
			return nil, 0, eris.Errorf("way %d: line has fewer than 2 points", osmID)
		}
		g = t.SetSRID(wgs84SRID)
	case *geom.MultiLineString:
		if t.NumLineStrings() == 0 {
			return nil, 0, eris.Errorf("way %d: empty multiline", osmID)
		}
		g = t.SetSRID(wgs84SRID)
	default:
		return nil, 0, eris.Errorf("way %d: unsupported geometry %T", osmID, f.Geometry)
	}

	wkb, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "way %d: encode geometry", osmID)
	}

	highway := "unknown"
	if h, ok := f.Properties["highway"].(string); ok && h != "" {
		highway = h
	}

	row := []any{osmID, highway}
	for _, tag := range optionalTags {
		row = append(row, tagValue(f.Properties[tag]))
	}
	return append(row, wkb), osmID, nil
}

// osmIDOf accepts the numeric and string forms exporters emit.
func osmIDOf(v any) (int64, bool) {
	switch id := v.(type) {
	case float64:
		if id != math.Trunc(id) || id <= 0 {
			return 0, false
		}
		return int64(id), true
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func tagValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	default:
		return fmt.Sprint(t)
	}
}
