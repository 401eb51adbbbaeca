package model

// SearchArea is a circular neighbourhood around a candidate site.
type SearchArea struct {
	Center       LatLng  `json:"center"`
	RadiusMeters float64 `json:"radius_meters"`
}

// CompetitorFilter selects competitors of one business type from the POI
// and store tables.
type CompetitorFilter struct {
	POICategories       []string
	POIKeywords         []string
	StoreIndustries     []string
	StoreCategoryMedium []string
}

// SearchesPOI reports whether the filter can match POI rows.
func (f CompetitorFilter) SearchesPOI() bool {
	return len(f.POICategories) > 0
}

// SearchesStores reports whether the filter can match store rows.
func (f CompetitorFilter) SearchesStores() bool {
	return len(f.StoreIndustries) > 0 || len(f.StoreCategoryMedium) > 0
}
