package scoring

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/model"
)

// Input is everything the engine scores. Buildings, POIs and competitors
// are expected to be network-filtered already; transit stations and paths
// are the raw radius results.
type Input struct {
	Business     string
	RadiusMeters float64
	Buildings    []model.Building
	POIs         []model.POI
	Competitors  []model.Competitor
	Transit      []model.TransitStation
	Paths        []model.PathSegment
}

// Result holds the sub-scores, the blended score and the recommendation.
// Every score is within [0, 100].
type Result struct {
	Score              int     `json:"score"`
	TrafficScore       float64 `json:"traffic_score"`
	CompetitionScore   float64 `json:"competition_score"`
	AccessibilityScore float64 `json:"accessibility_score"`
	EnvironmentScore   float64 `json:"environment_score"`
	DailyTraffic       int     `json:"daily_traffic"`
	StayableTraffic    int     `json:"stayable_traffic"`
	Saturation         int     `json:"saturation"`
	CompetitorCount    int     `json:"competitor_count"`
	BuildingCount      int     `json:"building_count"`
	POICount           int     `json:"poi_count"`
	Recommendation     string  `json:"recommendation"`
}

// Engine scores candidate sites against a set of business profiles. It is
// stateless apart from the profiles and safe for concurrent use.
type Engine struct {
	profiles Profiles
}

// NewEngine returns an engine using profiles, or the built-in profiles when
// profiles is nil.
func NewEngine(profiles Profiles) *Engine {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Engine{profiles: profiles}
}

// Profile returns the profile the engine uses for business.
func (e *Engine) Profile(business string) Profile {
	return e.profiles.Lookup(business)
}

// Score computes the sub-scores, final score and recommendation for in.
func (e *Engine) Score(in Input) Result {
	profile := e.profiles.Lookup(in.Business)

	access := Accessibility(len(in.Buildings), len(in.Transit), len(in.Paths))
	saturation, competition := Competition(in.Competitors, profile.IdealCompetitors)
	traffic := EstimateTraffic(in.Paths, in.Buildings, in.POIs, in.Transit)
	trafficScore := clampScore(float64(traffic) / trafficPerPoint)
	environment := Environment(len(in.POIs))

	final := int(roundHalfUp(clampScore(
		trafficScore*trafficBlend +
			access*accessibilityBlend +
			competition*competitionBlend +
			environment*environmentBlend,
	)))

	res := Result{
		Score:              final,
		TrafficScore:       trafficScore,
		CompetitionScore:   competition,
		AccessibilityScore: access,
		EnvironmentScore:   environment,
		DailyTraffic:       traffic,
		StayableTraffic:    StayableTraffic(traffic, in.POIs),
		Saturation:         saturation,
		CompetitorCount:    len(in.Competitors),
		BuildingCount:      len(in.Buildings),
		POICount:           len(in.POIs),
	}
	res.Recommendation = Recommend(final, len(in.Competitors), traffic, profile, nearestStation(in.Transit))

	zap.L().Debug("scoring: site scored",
		zap.String("business", profile.Key),
		zap.Int("score", final),
		zap.Float64("traffic_score", trafficScore),
		zap.Float64("competition_score", competition),
		zap.Float64("accessibility_score", access),
		zap.Float64("environment_score", environment),
		zap.Int("daily_traffic", traffic),
	)
	return res
}

// Accessibility rewards nearby buildings, any transit station and path
// density.
func Accessibility(buildings, stations, paths int) float64 {
	s := accessPerBuilding*float64(buildings) + accessPerPath*float64(paths)
	if stations > 0 {
		s += accessTransit
	}
	return clampScore(s)
}

// Competition returns the saturation and competition score for the given
// competitors. Each competitor is weighted by its straight-line distance
// tier; a missing distance counts as 500 m. idealCount is the number of
// competitors at which saturation reaches 50.
func Competition(competitors []model.Competitor, idealCount int) (saturation int, score float64) {
	if len(competitors) == 0 {
		return 0, maxScore
	}
	if idealCount <= 0 {
		idealCount = 1
	}

	var weighted float64
	for _, c := range competitors {
		weighted += tierWeight(distanceOr(c.Distance, defaultCompetitorDistance))
	}

	sat := math.Min(maxScore, roundHalfUp(weighted/float64(idealCount)*saturationScale))
	return int(sat), clampScore(maxScore - sat)
}

// EstimateTraffic returns the estimated daily foot traffic around the site.
func EstimateTraffic(paths []model.PathSegment, buildings []model.Building, pois []model.POI, transit []model.TransitStation) int {
	var pathTraffic float64
	for _, p := range paths {
		pathTraffic += pathWeight(p.Highway)
	}

	var population float64
	for _, b := range buildings {
		floors := b.GroundFloors
		if floors <= 0 {
			floors = 1
		}
		population += float64(floors) * peoplePerFloor * defaultBuildingWeight
	}

	var visitors float64
	for _, p := range pois {
		visitors += visitorWeight(p.Category)
	}

	var inflow float64
	for _, t := range transit {
		if t.DailyRiders <= 0 {
			continue
		}
		d := distanceOr(t.Distance, defaultTransitDistance)
		decay := math.Max(0, 1-d/transitDecayMeters)
		inflow += float64(t.DailyRiders) * decay * transitInflowShare
	}

	return int(roundHalfUp(
		pathTraffic*pathTrafficShare +
			population*buildingTrafficShare +
			visitors*poiTrafficShare +
			inflow*transitTrafficShare,
	))
}

// StayableTraffic estimates the share of traffic that lingers, based on how
// many nearby POIs encourage staying.
func StayableTraffic(traffic int, pois []model.POI) int {
	if len(pois) == 0 {
		return 0
	}
	var stay float64
	for _, p := range pois {
		stay += stayWeight(p.Category)
	}
	ratio := math.Min(1, stay/float64(len(pois)))
	return int(roundHalfUp(float64(traffic) * ratio * stayableShare))
}

// Environment scores the variety of nearby facilities.
func Environment(pois int) float64 {
	return clampScore(environmentPerPOI * float64(pois))
}

func nearestStation(stations []model.TransitStation) *model.TransitStation {
	var best *model.TransitStation
	for i := range stations {
		s := &stations[i]
		if best == nil || distanceOr(s.Distance, defaultTransitDistance) < distanceOr(best.Distance, defaultTransitDistance) {
			best = s
		}
	}
	return best
}
