package analysis

import (
	"math"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/sitescore/internal/model"
	"github.com/sells-group/sitescore/internal/scoring"
	"github.com/sells-group/sitescore/internal/walknet"
)

// Result is a finished site analysis. Entity distances are rounded to whole
// metres. Buildings, POIs and competitors are the network-filtered lists.
type Result struct {
	ID            string       `json:"id"`
	Center        model.LatLng `json:"center"`
	Business      string       `json:"business"`
	RadiusMeters  float64      `json:"radius_meters"`
	InServiceArea bool         `json:"in_service_area"`

	scoring.Result

	ReachableArea          *geojson.Geometry  `json:"reachable_area"`
	AreaOutcome            walknet.Outcome    `json:"area_outcome"`
	AreaReason             string             `json:"area_reason,omitempty"`
	ReachableNodes         int                `json:"reachable_nodes"`
	NetworkAnalysisEnabled bool               `json:"network_analysis_enabled"`
	DistanceMode           walknet.FilterMode `json:"distance_mode"`

	Buildings       []model.Building       `json:"buildings"`
	POIs            []model.POI            `json:"pois"`
	Competitors     []model.Competitor     `json:"competitors"`
	TransitStations []model.TransitStation `json:"transit_stations"`
	Stores          []model.Store          `json:"stores"`
	WalkingPaths    []model.PathSegment    `json:"walking_paths"`
	StoreDensity    model.StoreDensity     `json:"store_density"`
	District        *model.District        `json:"district"`

	AnalyzedAt time.Time `json:"analyzed_at"`
	ElapsedMs  int64     `json:"elapsed_ms"`
}

type roundable[T any] interface {
	Rounded() T
}

// roundAll returns rounded copies. The result is never nil so that empty
// lists encode as [].
func roundAll[T roundable[T]](items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.Rounded()
	}
	return out
}

func roundPaths(paths []model.PathSegment) []model.PathSegment {
	out := make([]model.PathSegment, len(paths))
	for i, p := range paths {
		p.Distance = math.Round(p.Distance)
		out[i] = p
	}
	return out
}
