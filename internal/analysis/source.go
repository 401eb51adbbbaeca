package analysis

import (
	"context"

	"github.com/sells-group/sitescore/internal/model"
)

// Source loads the entities around a site. Every list is ordered by
// ascending straight-line distance from the area center.
type Source interface {
	Buildings(ctx context.Context, area model.SearchArea) ([]model.Building, error)
	POIs(ctx context.Context, area model.SearchArea) ([]model.POI, error)
	TransitStations(ctx context.Context, area model.SearchArea) ([]model.TransitStation, error)
	Stores(ctx context.Context, area model.SearchArea) ([]model.Store, error)
	StoreDensity(ctx context.Context, area model.SearchArea) (model.StoreDensity, error)
	WalkingPaths(ctx context.Context, area model.SearchArea) ([]model.PathSegment, error)
	Competitors(ctx context.Context, area model.SearchArea, f model.CompetitorFilter) ([]model.Competitor, error)
	// District returns nil when the point lies outside every district.
	District(ctx context.Context, p model.LatLng) (*model.District, error)
}
