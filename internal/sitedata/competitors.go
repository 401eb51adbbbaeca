package sitedata

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/model"
	"github.com/sells-group/sitescore/internal/walknet"
)

// DuplicateMeters is the distance under which a POI and a store row are
// taken to be the same business.
const DuplicateMeters = 10.0

// degreeMeters approximates the length of one degree of latitude.
const degreeMeters = 111_320.0

// Competitors searches both the POI and store tables for businesses matching
// f, merges them by distance and drops rows within DuplicateMeters of an
// earlier result. A failing table is logged and contributes no rows; an error is
// returned only when every searched table fails.
func (s *PostgresSource) Competitors(ctx context.Context, area model.SearchArea, f model.CompetitorFilter) ([]model.Competitor, error) {
	log := zap.L().With(zap.String("component", "sitedata.competitors"))

	var (
		all      []model.Competitor
		searched int
		failed   []error
	)
	if f.SearchesPOI() {
		searched++
		rows, err := s.poiCompetitors(ctx, area, f)
		if err != nil {
			log.Warn("poi competitor search failed", zap.Error(err))
			failed = append(failed, err)
		}
		all = append(all, rows...)
	}
	if f.SearchesStores() {
		searched++
		rows, err := s.storeCompetitors(ctx, area, f)
		if err != nil {
			log.Warn("store competitor search failed", zap.Error(err))
			failed = append(failed, err)
		}
		all = append(all, rows...)
	}
	if searched > 0 && len(failed) == searched {
		return nil, failed[0]
	}

	merged := dedupeCompetitors(all, DuplicateMeters)
	log.Debug("hybrid competitor search",
		zap.Int("candidates", len(all)),
		zap.Int("merged", len(merged)),
	)
	return merged, nil
}

func (s *PostgresSource) poiCompetitors(ctx context.Context, area model.SearchArea, f model.CompetitorFilter) ([]model.Competitor, error) {
	args := []any{area.Center.Lat, area.Center.Lng, area.RadiusMeters, f.POICategories}
	where := "AND ctgry_group_nm = ANY($4)"
	if len(f.POIKeywords) > 0 {
		patterns := make([]string, len(f.POIKeywords))
		for i, kw := range f.POIKeywords {
			patterns[i] = "%" + kw + "%"
		}
		args = append(args, patterns)
		where += " AND poi_nm LIKE ANY($5)"
	}
	args = append(args, competitorLimit)

	sql := fmt.Sprintf(`
		SELECT poi_id::text, COALESCE(poi_nm, ''), COALESCE(ctgry_group_nm, ''), '',
		       ST_Y(poi_geom::geometry), ST_X(poi_geom::geometry),
		       ST_Distance(poi_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance
		FROM kor.poi
		WHERE ST_DWithin(poi_geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		%s
		ORDER BY distance
		LIMIT $%d
	`, where, len(args))

	return s.scanCompetitors(ctx, model.CompetitorSourcePOI, sql, args...)
}

func (s *PostgresSource) storeCompetitors(ctx context.Context, area model.SearchArea, f model.CompetitorFilter) ([]model.Competitor, error) {
	args := []any{area.Center.Lat, area.Center.Lng, area.RadiusMeters}
	var conds []string
	if len(f.StoreIndustries) > 0 {
		args = append(args, f.StoreIndustries)
		conds = append(conds, fmt.Sprintf("industry_nm = ANY($%d)", len(args)))
	}
	if len(f.StoreCategoryMedium) > 0 {
		args = append(args, f.StoreCategoryMedium)
		conds = append(conds, fmt.Sprintf("category_medium = ANY($%d)", len(args)))
	}
	args = append(args, competitorLimit)

	sql := fmt.Sprintf(`
		SELECT store_id::text,
		       TRIM(COALESCE(store_nm, '') || ' ' || COALESCE(branch_nm, '')),
		       COALESCE(category_medium, ''), COALESCE(address_road, ''),
		       ST_Y(geom), ST_X(geom),
		       ST_Distance(geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance
		FROM kor.store
		WHERE ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		AND (%s)
		ORDER BY distance
		LIMIT $%d
	`, strings.Join(conds, " OR "), len(args))

	return s.scanCompetitors(ctx, model.CompetitorSourceStore, sql, args...)
}

func (s *PostgresSource) scanCompetitors(ctx context.Context, src model.CompetitorSource, sql string, args ...any) ([]model.Competitor, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sitedata: query %s competitors", src)
	}
	defer rows.Close()

	var out []model.Competitor
	for rows.Next() {
		var (
			c             model.Competitor
			lat, lng, dst float64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.Address, &lat, &lng, &dst); err != nil {
			return nil, eris.Wrapf(err, "sitedata: scan %s competitor row", src)
		}
		c.Source = src
		c.Place = model.NewPlace(lat, lng, dst)
		out = append(out, c)
	}
	return out, eris.Wrapf(rows.Err(), "sitedata: iterate %s competitors", src)
}

type keptCompetitor struct {
	at   model.LatLng
	rect rtreego.Rect
}

func (k *keptCompetitor) Bounds() rtreego.Rect { return k.rect }

// dedupeCompetitors orders competitors by distance, POI rows first on ties,
// and drops any competitor within threshold metres of one already kept.
// Competitors without a coordinate are kept as-is.
func dedupeCompetitors(cs []model.Competitor, threshold float64) []model.Competitor {
	sorted := slices.Clone(cs)
	slices.SortStableFunc(sorted, func(a, b model.Competitor) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	tree := rtreego.NewTree(2, 25, 50)
	out := make([]model.Competitor, 0, len(sorted))
	for _, c := range sorted {
		at, ok := c.Coordinate()
		if !ok {
			out = append(out, c)
			continue
		}
		box := searchBox(at, threshold)
		dup := false
		for _, sp := range tree.SearchIntersect(box) {
			if walknet.Distance(at, sp.(*keptCompetitor).at) <= threshold {
				dup = true
				break
			}
		}
		if dup {
			zap.L().Debug("sitedata: dropping duplicate competitor",
				zap.String("name", c.Name),
				zap.String("source", string(c.Source)),
			)
			continue
		}
		tree.Insert(&keptCompetitor{at: at, rect: rtreego.Point{at.Lng, at.Lat}.ToRect(1e-9)})
		out = append(out, c)
	}
	return out
}

// searchBox returns a lng/lat square that contains every point within
// meters of c.
func searchBox(c model.LatLng, meters float64) rtreego.Rect {
	half := meters / degreeMeters
	if cos := math.Cos(c.Lat * math.Pi / 180); cos > 1e-6 {
		half /= cos
	}
	return rtreego.Point{c.Lng, c.Lat}.ToRect(half * 1.01)
}
