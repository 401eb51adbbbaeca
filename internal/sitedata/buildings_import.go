package sitedata

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/korean"

	"github.com/sells-group/sitescore/internal/db"
)

var buildingUpsert = db.UpsertConfig{
	Table:        "kor.bldg",
	Columns:      []string{"bd_mgt_sn", "sig_cd", "lotno_addr", "bldg_nm", "gro_flo_co", "und_flo_co", "bdtyp_cd", "bldg_geom"},
	ConflictKeys: []string{"bd_mgt_sn"},
}

// ImportBuildings loads a building register shapefile (TL_SPBD_BULD) into
// kor.bldg keyed on the building management number. Coordinates in UTM-K
// are converted to WGS84; attribute text may be UTF-8 or EUC-KR.
func ImportBuildings(ctx context.Context, pool db.Pool, shpPath string) (ImportStats, error) {
	rows, stats, err := readBuildings(shpPath)
	if err != nil {
		return stats, err
	}

	n, err := db.BulkUpsert(ctx, pool, buildingUpsert, rows)
	if err != nil {
		return stats, eris.Wrap(err, "sitedata: upsert buildings")
	}
	stats.Upserted = n

	zap.L().Info("buildings imported",
		zap.String("path", shpPath),
		zap.Int("features", stats.Features),
		zap.Int("skipped", stats.Skipped),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int64("upserted", stats.Upserted),
	)
	return stats, nil
}

func readBuildings(shpPath string) ([][]any, ImportStats, error) {
	var stats ImportStats

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, stats, eris.Wrapf(err, "sitedata: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		fieldIdx[strings.ToUpper(strings.TrimRight(f.String(), "\x00"))] = i
	}
	attr := func(name string) string {
		i, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return dbfText(reader.Attribute(i))
	}

	index := make(map[string]int)
	var rows [][]any
	for reader.Next() {
		stats.Features++
		_, shape := reader.Shape()

		key := attr("BD_MGT_SN")
		if key == "" {
			stats.Skipped++
			continue
		}
		mp := buildingGeometry(shape)
		if mp == nil {
			stats.Skipped++
			zap.L().Debug("skipping building without polygon geometry", zap.String("bd_mgt_sn", key))
			continue
		}
		wkb, err := ewkb.Marshal(mp, ewkb.NDR)
		if err != nil {
			stats.Skipped++
			zap.L().Debug("skipping building geometry", zap.String("bd_mgt_sn", key), zap.Error(err))
			continue
		}

		row := []any{
			key,
			nullable(attr("SIG_CD")),
			lotNumber(attr("LNBR_MNNM"), attr("LNBR_SLNO")),
			nullable(attr("BULD_NM")),
			floorCount(attr("GRO_FLO_CO")),
			floorCount(attr("UND_FLO_CO")),
			nullable(attr("BDTYP_CD")),
			wkb,
		}
		if at, ok := index[key]; ok {
			stats.Duplicates++
			rows[at] = row
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}
	return rows, stats, nil
}

// buildingGeometry converts a shapefile polygon to a WGS84 multipolygon.
// Clockwise rings start a new polygon and counter-clockwise rings are holes
// of the polygon before them.
func buildingGeometry(shape shp.Shape) *geom.MultiPolygon {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}
	projected := !geographic(p.Points)

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(wgs84SRID)
	var poly *geom.Polygon
	flush := func() {
		if poly == nil {
			return
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("skipping malformed building part", zap.Error(err))
		}
		poly = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 3 {
			continue
		}
		pts := p.Points[start:end]

		flat := make([]float64, 0, 2*(len(pts)+1))
		for _, pt := range pts {
			x, y := pt.X, pt.Y
			if projected {
				y, x = utmkToWGS84(pt.X, pt.Y)
			}
			flat = append(flat, x, y)
		}
		if first, last := pts[0], pts[len(pts)-1]; first != last {
			flat = append(flat, flat[0], flat[1])
		}
		if len(flat) < 8 {
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if ringArea(pts) < 0 || poly == nil {
			flush()
			poly = geom.NewPolygon(geom.XY)
		}
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("skipping malformed building ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// ringArea is the shoelace signed area; negative means clockwise.
func ringArea(pts []shp.Point) float64 {
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

func geographic(pts []shp.Point) bool {
	for _, pt := range pts {
		if pt.X < -180 || pt.X > 180 || pt.Y < -90 || pt.Y > 90 {
			return false
		}
	}
	return true
}

// dbfText trims DBF padding and decodes EUC-KR text, which the Korean
// address register files use.
func dbfText(raw string) string {
	s := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := korean.EUCKR.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(decoded, "\x00", "")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func lotNumber(main, sub string) any {
	if main == "" || main == "0" {
		return nil
	}
	if sub == "" || sub == "0" {
		return main
	}
	return main + "-" + sub
}

func floorCount(s string) any {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil
	}
	return int32(f)
}
