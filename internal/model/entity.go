package model

// Building is a structure near the candidate site. GroundFloors of zero means
// the floor count is unknown.
type Building struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	RoadAddress       string `json:"road_address,omitempty"`
	LotAddress        string `json:"lot_address,omitempty"`
	GroundFloors      int    `json:"ground_floors"`
	UndergroundFloors int    `json:"underground_floors"`
	TypeCode          string `json:"type_code,omitempty"`
	Place
}

// WithNetworkDistance returns a copy annotated with the network distance d.
func (b Building) WithNetworkDistance(d float64) Building {
	b.setNetworkDistance(d)
	return b
}

// Rounded returns a copy with distances rounded to whole metres.
func (b Building) Rounded() Building {
	b.roundDistances()
	return b
}

// POI is a point of interest with a category group label.
type POI struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Place
}

// WithNetworkDistance returns a copy annotated with the network distance d.
func (p POI) WithNetworkDistance(d float64) POI {
	p.setNetworkDistance(d)
	return p
}

// Rounded returns a copy with distances rounded to whole metres.
func (p POI) Rounded() POI {
	p.roundDistances()
	return p
}

// CompetitorSource identifies which table a competitor came from.
type CompetitorSource string

const (
	CompetitorSourcePOI   CompetitorSource = "poi"
	CompetitorSourceStore CompetitorSource = "store"
)

// Competitor is a business of the same kind as the one being evaluated.
type Competitor struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Category string           `json:"category"`
	Address  string           `json:"address,omitempty"`
	Source   CompetitorSource `json:"source"`
	Place
}

// WithNetworkDistance returns a copy annotated with the network distance d.
func (c Competitor) WithNetworkDistance(d float64) Competitor {
	c.setNetworkDistance(d)
	return c
}

// Rounded returns a copy with distances rounded to whole metres.
func (c Competitor) Rounded() Competitor {
	c.roundDistances()
	return c
}

// Store is a registered commercial store.
type Store struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Branch         string `json:"branch,omitempty"`
	CategoryLarge  string `json:"category_large,omitempty"`
	CategoryMedium string `json:"category_medium,omitempty"`
	CategorySmall  string `json:"category_small,omitempty"`
	Industry       string `json:"industry,omitempty"`
	RoadAddress    string `json:"road_address,omitempty"`
	LotAddress     string `json:"lot_address,omitempty"`
	BuildingName   string `json:"building_name,omitempty"`
	Floor          string `json:"floor,omitempty"`
	Place
}

// WithNetworkDistance returns a copy annotated with the network distance d.
func (s Store) WithNetworkDistance(d float64) Store {
	s.setNetworkDistance(d)
	return s
}

// Rounded returns a copy with distances rounded to whole metres.
func (s Store) Rounded() Store {
	s.roundDistances()
	return s
}

// TransitStation is a subway station with its daily ridership.
type TransitStation struct {
	Name        string `json:"name"`
	Line        string `json:"line"`
	DailyRiders int    `json:"daily_riders"`
	Place
}

// WithNetworkDistance returns a copy annotated with the network distance d.
func (t TransitStation) WithNetworkDistance(d float64) TransitStation {
	t.setNetworkDistance(d)
	return t
}

// Rounded returns a copy with distances rounded to whole metres.
func (t TransitStation) Rounded() TransitStation {
	t.roundDistances()
	return t
}

// StoreDensity summarizes store counts within the analysis radius.
type StoreDensity struct {
	TotalCount           int            `json:"total_count"`
	CategoryCount        int            `json:"category_count"`
	CategoryDistribution map[string]int `json:"category_distribution"`
}

// District is the administrative district containing the site.
type District struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	EnglishName   string `json:"english_name,omitempty"`
	FullName      string `json:"full_name"`
	BuildingCount int    `json:"building_count"`
	POICount      int    `json:"poi_count"`
	StoreCount    int    `json:"store_count"`
}
