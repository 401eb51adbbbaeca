// Package scoring turns network-filtered site data into traffic,
// competition, accessibility and environment sub-scores, a blended final
// score and a recommendation.
package scoring

import (
	"math"
	"strings"
)

// Final score blend.
const (
	trafficBlend       = 0.4
	accessibilityBlend = 0.2
	competitionBlend   = 0.3
	environmentBlend   = 0.1
)

// Accessibility terms.
const (
	accessPerBuilding = 1.5
	accessTransit     = 30.0
	accessPerPath     = 0.5
)

// Traffic estimation.
const (
	peoplePerFloor         = 50.0
	defaultBuildingWeight  = 1.0
	transitDecayMeters     = 1000.0
	transitInflowShare     = 0.1
	defaultTransitDistance = 500.0

	pathTrafficShare     = 0.3
	buildingTrafficShare = 0.3
	poiTrafficShare      = 0.2
	transitTrafficShare  = 0.2

	// trafficPerPoint maps daily traffic to score: 20,000 people is 100.
	trafficPerPoint = 200.0

	stayableShare = 0.5
)

// Competition.
const (
	defaultCompetitorDistance = 500.0
	saturationScale           = 50.0
)

// environmentPerPOI is the environment score contributed by each POI.
const environmentPerPOI = 3.0

const maxScore = 100.0

// distanceTier weights a competitor by how close it is. Tiers are
// [0,100), [100,200), [200,300), [300,400) and 400+ metres.
type distanceTier struct {
	below  float64
	weight float64
}

var competitorTiers = []distanceTier{
	{below: 100, weight: 2.0},
	{below: 200, weight: 1.5},
	{below: 300, weight: 1.0},
	{below: 400, weight: 0.6},
}

const farCompetitorWeight = 0.3

func tierWeight(d float64) float64 {
	for _, t := range competitorTiers {
		if d < t.below {
			return t.weight
		}
	}
	return farCompetitorWeight
}

// pathWeights estimates daily walkers per way by OSM highway category.
var pathWeights = map[string]float64{
	"residential": 500,
	"primary":     800,
	"secondary":   700,
	"tertiary":    400,
	"footway":     300,
	"pedestrian":  350,
	"steps":       100,
	"path":        200,
}

const defaultPathWeight = 300.0

func pathWeight(highway string) float64 {
	if w, ok := pathWeights[highway]; ok {
		return w
	}
	return defaultPathWeight
}

// Canonical POI category keys.
const (
	CategoryFood        = "food"
	CategoryCafe        = "cafe"
	CategoryConvenience = "convenience"
	CategoryBank        = "bank"
	CategoryAcademy     = "academy"
	CategoryBrokerage   = "brokerage"
	CategoryPharmacy    = "pharmacy"
	CategoryPark        = "park"
	CategoryCulture     = "culture"
	CategoryLodging     = "lodging"
)

// categoryAliases maps source category group labels onto canonical keys.
var categoryAliases = map[string]string{
	"음식점":  CategoryFood,
	"카페":   CategoryCafe,
	"편의점":  CategoryConvenience,
	"은행":   CategoryBank,
	"학원":   CategoryAcademy,
	"중개업소": CategoryBrokerage,
	"약국":   CategoryPharmacy,
	"공원":   CategoryPark,
	"문화시설": CategoryCulture,
	"숙박":   CategoryLodging,

	"restaurant": CategoryFood,
	"coffee":     CategoryCafe,
	"realestate": CategoryBrokerage,
}

// CanonicalCategory returns the canonical key for a POI category label, or
// the trimmed lower-case label when it is not known.
func CanonicalCategory(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	if k, ok := categoryAliases[l]; ok {
		return k
	}
	return l
}

// visitorWeights estimates daily visitors per POI.
var visitorWeights = map[string]float64{
	CategoryFood:        200,
	CategoryCafe:        150,
	CategoryConvenience: 300,
	CategoryBank:        100,
	CategoryAcademy:     80,
	CategoryBrokerage:   30,
	CategoryPharmacy:    120,
}

const defaultVisitorWeight = 100.0

func visitorWeight(category string) float64 {
	if w, ok := visitorWeights[CanonicalCategory(category)]; ok {
		return w
	}
	return defaultVisitorWeight
}

// stayWeights rates how strongly a POI keeps passers-by in the area.
var stayWeights = map[string]float64{
	CategoryCafe:        0.8,
	CategoryFood:        0.6,
	CategoryPark:        0.9,
	CategoryCulture:     0.7,
	CategoryLodging:     0.9,
	CategoryAcademy:     0.5,
	CategoryConvenience: 0.3,
}

func stayWeight(category string) float64 {
	return stayWeights[CanonicalCategory(category)]
}

// roundHalfUp rounds halves toward positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func clampScore(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	return math.Min(maxScore, x)
}

// distanceOr returns d, or fallback when d is missing, zero or negative.
func distanceOr(d, fallback float64) float64 {
	if math.IsNaN(d) || d <= 0 {
		return fallback
	}
	return d
}
