package sitedata

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/model"
)

// WalkingPaths returns walkable ways touching the area ordered by distance.
// Rows whose geometry cannot be decoded are skipped.
func (s *PostgresSource) WalkingPaths(ctx context.Context, area model.SearchArea) ([]model.PathSegment, error) {
	sql := `
		SELECT path_id::text, COALESCE(osm_id, 0), COALESCE(highway, ''), COALESCE(name, ''),
		       ST_AsEWKB(path_geom),
		       ST_Distance(path_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance
		FROM kor.walking_path
		WHERE ST_DWithin(path_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY distance
	`
	rows, err := s.pool.Query(ctx, sql, area.Center.Lat, area.Center.Lng, area.RadiusMeters)
	if err != nil {
		return nil, eris.Wrap(err, "sitedata: query walking paths")
	}
	defer rows.Close()

	var out []model.PathSegment
	for rows.Next() {
		var (
			p    model.PathSegment
			data []byte
		)
		if err := rows.Scan(&p.ID, &p.OSMID, &p.Highway, &p.Name, &data, &p.Distance); err != nil {
			return nil, eris.Wrap(err, "sitedata: scan walking path row")
		}
		parts, err := decodePath(data)
		if err != nil {
			zap.L().Debug("sitedata: skipping walking path", zap.String("path_id", p.ID), zap.Error(err))
			continue
		}
		// A multi-part way becomes one segment per part so that gaps between
		// parts are not bridged.
		for _, coords := range parts {
			seg := p
			seg.Coords = coords
			out = append(out, seg)
		}
	}
	return out, eris.Wrap(rows.Err(), "sitedata: iterate walking paths")
}

// decodePath converts an EWKB LineString or MultiLineString into vertex
// lists. Coordinates are x=lng, y=lat.
func decodePath(data []byte) ([][]model.LatLng, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "sitedata: decode path geometry")
	}

	switch t := g.(type) {
	case *geom.LineString:
		return [][]model.LatLng{lineCoords(t)}, nil
	case *geom.MultiLineString:
		parts := make([][]model.LatLng, 0, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			if ls := t.LineString(i); ls.NumCoords() > 0 {
				parts = append(parts, lineCoords(ls))
			}
		}
		return parts, nil
	default:
		return nil, eris.Errorf("sitedata: unsupported path geometry %T", g)
	}
}

func lineCoords(ls *geom.LineString) []model.LatLng {
	out := make([]model.LatLng, 0, ls.NumCoords())
	for i := 0; i < ls.NumCoords(); i++ {
		c := ls.Coord(i)
		out = append(out, model.LatLng{Lat: c.Y(), Lng: c.X()})
	}
	return out
}
