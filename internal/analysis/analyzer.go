// Package analysis runs a complete site analysis: it fetches the entities
// around a candidate site, measures them over the walking network, and
// scores the site for a business type.
package analysis

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sitescore/internal/config"
	"github.com/sells-group/sitescore/internal/model"
	"github.com/sells-group/sitescore/internal/resilience"
	"github.com/sells-group/sitescore/internal/scoring"
	"github.com/sells-group/sitescore/internal/walknet"
)

var (
	// ErrInvalidCenter is returned for a missing, non-finite or
	// out-of-range center coordinate.
	ErrInvalidCenter = eris.New("analysis: invalid center coordinate")
	// ErrInvalidRadius is returned for a negative, non-finite or too large
	// radius.
	ErrInvalidRadius = eris.New("analysis: invalid radius")
)

// Request describes one site analysis. A zero RadiusMeters uses the
// configured default and an empty Business uses the configured default
// business.
type Request struct {
	Center       model.LatLng `json:"center"`
	Business     string       `json:"business"`
	RadiusMeters float64      `json:"radius_meters"`
}

// Analyzer runs site analyses against a Source. It is safe for concurrent
// use.
type Analyzer struct {
	src             Source
	engine          *scoring.Engine
	retry           resilience.RetryConfig
	radius          float64
	maxRadius       float64
	defaultBusiness string
	serviceArea     config.ServiceAreaConfig
}

// NewAnalyzer creates an Analyzer. A nil engine uses the built-in business
// profiles.
func NewAnalyzer(src Source, engine *scoring.Engine, cfg *config.Config) *Analyzer {
	if engine == nil {
		engine = scoring.NewEngine(nil)
	}
	return &Analyzer{
		src:             src,
		engine:          engine,
		retry:           resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs),
		radius:          cfg.Analysis.RadiusMeters,
		maxRadius:       cfg.Analysis.MaxRadiusMeters,
		defaultBusiness: cfg.Analysis.DefaultBusiness,
		serviceArea:     cfg.Analysis.ServiceArea,
	}
}

// siteData is everything fetched for one analysis.
type siteData struct {
	buildings   []model.Building
	pois        []model.POI
	transit     []model.TransitStation
	stores      []model.Store
	density     model.StoreDensity
	paths       []model.PathSegment
	competitors []model.Competitor
	district    *model.District
}

// Analyze fetches, filters and scores the site described by req. It fails
// only on an invalid request or a data fetch that keeps failing after
// retries; reachability problems degrade the result instead.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	req, err := a.normalize(req)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(
		zap.String("component", "analysis"),
		zap.Float64("lat", req.Center.Lat),
		zap.Float64("lng", req.Center.Lng),
		zap.String("business", req.Business),
	)

	inArea := a.serviceArea.Contains(req.Center.Lat, req.Center.Lng)
	if !inArea {
		log.Warn("site is outside the service area; results may be sparse")
	}

	area := model.SearchArea{Center: req.Center, RadiusMeters: req.RadiusMeters}
	profile := a.engine.Profile(req.Business)
	data, err := a.fetch(ctx, area, profile)
	if err != nil {
		return nil, err
	}

	var graph *walknet.Graph
	if len(data.paths) > 0 {
		graph = walknet.BuildGraph(data.paths)
	}
	reach := walknet.ReachableArea(req.Center, data.paths, req.RadiusMeters, graph)
	buildings := walknet.FilterByNetworkDistance(req.Center, data.buildings, data.paths, req.RadiusMeters, graph)
	pois := walknet.FilterByNetworkDistance(req.Center, data.pois, data.paths, req.RadiusMeters, graph)
	competitors := walknet.FilterByNetworkDistance(req.Center, data.competitors, data.paths, req.RadiusMeters, graph)

	filterPassesTotal.WithLabelValues("building", string(buildings.Mode)).Inc()
	filterPassesTotal.WithLabelValues("poi", string(pois.Mode)).Inc()
	filterPassesTotal.WithLabelValues("competitor", string(competitors.Mode)).Inc()
	analysesTotal.WithLabelValues(reach.Outcome.String()).Inc()

	scores := a.engine.Score(scoring.Input{
		Business:     req.Business,
		RadiusMeters: req.RadiusMeters,
		Buildings:    buildings.Items,
		POIs:         pois.Items,
		Competitors:  competitors.Items,
		Transit:      data.transit,
		Paths:        data.paths,
	})

	res := &Result{
		ID:                     uuid.NewString(),
		Center:                 req.Center,
		Business:               req.Business,
		RadiusMeters:           req.RadiusMeters,
		InServiceArea:          inArea,
		Result:                 scores,
		AreaOutcome:            reach.Outcome,
		AreaReason:             reach.Reason,
		ReachableNodes:         reach.ReachableNodes,
		NetworkAnalysisEnabled: len(data.paths) > 0,
		DistanceMode:           pois.Mode,
		Buildings:              roundAll(buildings.Items),
		POIs:                   roundAll(pois.Items),
		Competitors:            roundAll(competitors.Items),
		TransitStations:        roundAll(data.transit),
		Stores:                 roundAll(data.stores),
		WalkingPaths:           roundPaths(data.paths),
		StoreDensity:           data.density,
		District:               data.district,
		AnalyzedAt:             start.UTC(),
	}
	if reach.Geometry != nil {
		g, err := geojson.Encode(reach.Geometry)
		if err != nil {
			return nil, eris.Wrap(err, "analysis: encode reachable area")
		}
		res.ReachableArea = g
	}

	elapsed := time.Since(start)
	res.ElapsedMs = elapsed.Milliseconds()
	analysisDuration.Observe(elapsed.Seconds())

	log.Info("site analyzed",
		zap.String("id", res.ID),
		zap.Int("score", res.Score),
		zap.String("area_outcome", reach.Outcome.String()),
		zap.String("distance_mode", string(pois.Mode)),
		zap.Int("buildings", len(res.Buildings)),
		zap.Int("pois", len(res.POIs)),
		zap.Int("competitors", len(res.Competitors)),
		zap.Int("paths", len(data.paths)),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (a *Analyzer) normalize(req Request) (Request, error) {
	if !req.Center.Valid() {
		return req, eris.Wrapf(ErrInvalidCenter, "lat=%v lng=%v", req.Center.Lat, req.Center.Lng)
	}

	r := req.RadiusMeters
	switch {
	case math.IsNaN(r) || math.IsInf(r, 0) || r < 0:
		return req, eris.Wrapf(ErrInvalidRadius, "radius %v", r)
	case r == 0:
		req.RadiusMeters = a.radius
	case a.maxRadius > 0 && r > a.maxRadius:
		return req, eris.Wrapf(ErrInvalidRadius, "radius %v exceeds maximum %v", r, a.maxRadius)
	}

	req.Business = strings.ToLower(strings.TrimSpace(req.Business))
	if req.Business == "" {
		req.Business = a.defaultBusiness
	}
	return req, nil
}

// fetch loads every dataset concurrently. Each load is retried on
// transient errors; the first load that still fails cancels the rest.
func (a *Analyzer) fetch(ctx context.Context, area model.SearchArea, profile scoring.Profile) (*siteData, error) {
	var d siteData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(load(gctx, a.retry, "buildings", &d.buildings, func(ctx context.Context) ([]model.Building, error) {
		return a.src.Buildings(ctx, area)
	}))
	g.Go(load(gctx, a.retry, "pois", &d.pois, func(ctx context.Context) ([]model.POI, error) {
		return a.src.POIs(ctx, area)
	}))
	g.Go(load(gctx, a.retry, "transit", &d.transit, func(ctx context.Context) ([]model.TransitStation, error) {
		return a.src.TransitStations(ctx, area)
	}))
	g.Go(load(gctx, a.retry, "stores", &d.stores, func(ctx context.Context) ([]model.Store, error) {
		return a.src.Stores(ctx, area)
	}))
	g.Go(load(gctx, a.retry, "store_density", &d.density, func(ctx context.Context) (model.StoreDensity, error) {
		return a.src.StoreDensity(ctx, area)
	}))
	g.Go(load(gctx, a.retry, "paths", &d.paths, func(ctx context.Context) ([]model.PathSegment, error) {
		return a.src.WalkingPaths(ctx, area)
	}))
	g.Go(load(gctx, a.retry, "district", &d.district, func(ctx context.Context) (*model.District, error) {
		return a.src.District(ctx, area.Center)
	}))
	if profile.HasCompetitorFilters() {
		filter := profile.CompetitorFilter()
		g.Go(load(gctx, a.retry, "competitors", &d.competitors, func(ctx context.Context) ([]model.Competitor, error) {
			return a.src.Competitors(ctx, area, filter)
		}))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func load[T any](ctx context.Context, retry resilience.RetryConfig, dataset string, dst *T, fn func(context.Context) (T, error)) func() error {
	return func() error {
		cfg := retry
		cfg.OnRetry = resilience.RetryLogger("postgres", dataset)
		v, err := resilience.DoVal(ctx, cfg, fn)
		if err != nil {
			fetchFailuresTotal.WithLabelValues(dataset).Inc()
			return eris.Wrapf(err, "analysis: fetch %s", dataset)
		}
		*dst = v
		return nil
	}
}
