// Package sitedata loads the entities around a candidate site from the
// PostGIS tables in the kor schema.
package sitedata

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitescore/internal/db"
	"github.com/sells-group/sitescore/internal/model"
)

const (
	entityLimit     = 500
	competitorLimit = 200
	storeLimit      = 1000
)

// PostgresSource reads site data from Postgres with PostGIS.
type PostgresSource struct {
	pool db.Pool
}

// NewPostgresSource creates a new PostgresSource.
func NewPostgresSource(pool db.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Buildings returns buildings within the area ordered by distance. The
// position of each building is its footprint centroid.
func (s *PostgresSource) Buildings(ctx context.Context, area model.SearchArea) ([]model.Building, error) {
	sql := `
		SELECT bldg_id::text, COALESCE(bldg_nm, ''), COALESCE(road_nm_addr, ''), COALESCE(lotno_addr, ''),
		       COALESCE(gro_flo_co, 0), COALESCE(und_flo_co, 0), COALESCE(bdtyp_cd, ''),
		       ST_Y(ST_Centroid(bldg_geom)), ST_X(ST_Centroid(bldg_geom)),
		       ST_Distance(bldg_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance
		FROM kor.bldg
		WHERE ST_DWithin(bldg_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`
	rows, err := s.pool.Query(ctx, sql, area.Center.Lat, area.Center.Lng, area.RadiusMeters, entityLimit)
	if err != nil {
		return nil, eris.Wrap(err, "sitedata: query buildings")
	}
	defer rows.Close()

	var out []model.Building
	for rows.Next() {
		var (
			b             model.Building
			lat, lng, dst float64
		)
		if err := rows.Scan(
			&b.ID, &b.Name, &b.RoadAddress, &b.LotAddress,
			&b.GroundFloors, &b.UndergroundFloors, &b.TypeCode,
			&lat, &lng, &dst,
		); err != nil {
			return nil, eris.Wrap(err, "sitedata: scan building row")
		}
		b.Place = model.NewPlace(lat, lng, dst)
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sitedata: iterate buildings")
}

// POIs returns points of interest within the area ordered by distance.
func (s *PostgresSource) POIs(ctx context.Context, area model.SearchArea) ([]model.POI, error) {
	sql := `
		SELECT poi_id::text, COALESCE(poi_nm, ''), COALESCE(ctgry_group_nm, ''),
		       ST_Y(poi_geom::geometry), ST_X(poi_geom::geometry),
		       ST_Distance(poi_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance
		FROM kor.poi
		WHERE ST_DWithin(poi_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`
	rows, err := s.pool.Query(ctx, sql, area.Center.Lat, area.Center.Lng, area.RadiusMeters, entityLimit)
	if err != nil {
		return nil, eris.Wrap(err, "sitedata: query pois")
	}
	defer rows.Close()

	var out []model.POI
	for rows.Next() {
		var (
			p             model.POI
			lat, lng, dst float64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &lat, &lng, &dst); err != nil {
			return nil, eris.Wrap(err, "sitedata: scan poi row")
		}
		p.Place = model.NewPlace(lat, lng, dst)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sitedata: iterate pois")
}

// TransitStations returns subway stations within the area ordered by
// distance.
func (s *PostgresSource) TransitStations(ctx context.Context, area model.SearchArea) ([]model.TransitStation, error) {
	sql := `
		SELECT COALESCE(station_name, ''), COALESCE(line, ''), COALESCE(daily_total, 0),
		       ST_Y(station_geom::geometry), ST_X(station_geom::geometry),
		       ST_Distance(station_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance
		FROM kor.subway_station
		WHERE ST_DWithin(station_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY distance
	`
	rows, err := s.pool.Query(ctx, sql, area.Center.Lat, area.Center.Lng, area.RadiusMeters)
	if err != nil {
		return nil, eris.Wrap(err, "sitedata: query transit stations")
	}
	defer rows.Close()

	var out []model.TransitStation
	for rows.Next() {
		var (
			st            model.TransitStation
			lat, lng, dst float64
		)
		if err := rows.Scan(&st.Name, &st.Line, &st.DailyRiders, &lat, &lng, &dst); err != nil {
			return nil, eris.Wrap(err, "sitedata: scan transit station row")
		}
		st.Place = model.NewPlace(lat, lng, dst)
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "sitedata: iterate transit stations")
}

// Stores returns registered stores within the area ordered by distance.
func (s *PostgresSource) Stores(ctx context.Context, area model.SearchArea) ([]model.Store, error) {
	sql := `
		SELECT store_id::text, COALESCE(store_nm, ''), COALESCE(branch_nm, ''),
		       COALESCE(category_large, ''), COALESCE(category_medium, ''), COALESCE(category_small, ''),
		       COALESCE(industry_nm, ''), COALESCE(address_road, ''), COALESCE(address_jibun, ''),
		       COALESCE(building_nm, ''), COALESCE(floor_info, ''),
		       ST_Y(geom), ST_X(geom),
		       ST_Distance(geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance
		FROM kor.store
		WHERE ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`
	rows, err := s.pool.Query(ctx, sql, area.Center.Lat, area.Center.Lng, area.RadiusMeters, storeLimit)
	if err != nil {
		return nil, eris.Wrap(err, "sitedata: query stores")
	}
	defer rows.Close()

	var out []model.Store
	for rows.Next() {
		var (
			st            model.Store
			lat, lng, dst float64
		)
		if err := rows.Scan(
			&st.ID, &st.Name, &st.Branch,
			&st.CategoryLarge, &st.CategoryMedium, &st.CategorySmall,
			&st.Industry, &st.RoadAddress, &st.LotAddress,
			&st.BuildingName, &st.Floor,
			&lat, &lng, &dst,
		); err != nil {
			return nil, eris.Wrap(err, "sitedata: scan store row")
		}
		st.Place = model.NewPlace(lat, lng, dst)
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "sitedata: iterate stores")
}

// StoreDensity counts stores within the area by large category.
func (s *PostgresSource) StoreDensity(ctx context.Context, area model.SearchArea) (model.StoreDensity, error) {
	sql := `
		SELECT COALESCE(SUM(category_cnt), 0)::int, COUNT(*)::int,
		       COALESCE(json_object_agg(category_large, category_cnt), '{}'::json)::text
		FROM (
			SELECT COALESCE(category_large, '') AS category_large, COUNT(*) AS category_cnt
			FROM kor.store
			WHERE ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
			GROUP BY 1
		) sub
	`
	var (
		d    model.StoreDensity
		dist []byte
	)
	err := s.pool.QueryRow(ctx, sql, area.Center.Lat, area.Center.Lng, area.RadiusMeters).
		Scan(&d.TotalCount, &d.CategoryCount, &dist)
	if err != nil {
		return model.StoreDensity{}, eris.Wrap(err, "sitedata: query store density")
	}
	d.CategoryDistribution = map[string]int{}
	if len(dist) > 0 {
		if err := json.Unmarshal(dist, &d.CategoryDistribution); err != nil {
			return model.StoreDensity{}, eris.Wrap(err, "sitedata: decode category distribution")
		}
	}
	return d, nil
}

// District returns the administrative district containing p with its
// entity counts, or nil when p lies outside every district.
func (s *PostgresSource) District(ctx context.Context, p model.LatLng) (*model.District, error) {
	sql := `
		SELECT d.emd_cd, d.dong_nm, COALESCE(d.dong_eng_nm, ''), COALESCE(d.full_nm, ''),
		       (SELECT COUNT(*) FROM kor.bldg b WHERE ST_Contains(d.geom, b.bldg_geom))::int,
		       (SELECT COUNT(*) FROM kor.poi o WHERE ST_Contains(d.geom, o.poi_geom))::int,
		       (SELECT COUNT(*) FROM kor.store s WHERE ST_Contains(d.geom, s.geom))::int
		FROM kor.dong d
		WHERE ST_Contains(d.geom, ST_SetSRID(ST_MakePoint($2, $1), 4326))
		LIMIT 1
	`
	var d model.District
	err := s.pool.QueryRow(ctx, sql, p.Lat, p.Lng).Scan(
		&d.Code, &d.Name, &d.EnglishName, &d.FullName,
		&d.BuildingCount, &d.POICount, &d.StoreCount,
	)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sitedata: query district")
	}
	return &d, nil
}
