package scoring

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sitescore/internal/model"
)

// DefaultProfileKey names the profile used for unknown business types.
const DefaultProfileKey = "default"

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// Profile holds per-business tuning: saturation baseline, traffic
// thresholds and the category filters used to find competitors.
type Profile struct {
	Key                 string   `yaml:"-" json:"key"`
	DisplayName         string   `yaml:"display_name" json:"display_name"`
	IdealCompetitors    int      `yaml:"ideal_competitors" json:"ideal_competitors"`
	TrafficMin          int      `yaml:"traffic_min" json:"traffic_min"`
	TrafficOptimal      int      `yaml:"traffic_optimal" json:"traffic_optimal"`
	POICategories       []string `yaml:"poi_categories" json:"poi_categories,omitempty"`
	POIKeywords         []string `yaml:"poi_keywords" json:"poi_keywords,omitempty"`
	StoreIndustries     []string `yaml:"store_industries" json:"store_industries,omitempty"`
	StoreCategoryMedium []string `yaml:"store_category_medium" json:"store_category_medium,omitempty"`
}

// HasCompetitorFilters reports whether the profile can drive a competitor
// search.
func (p Profile) HasCompetitorFilters() bool {
	return len(p.POICategories)+len(p.POIKeywords)+len(p.StoreIndustries)+len(p.StoreCategoryMedium) > 0
}

// CompetitorFilter returns the table filters used to find competitors.
func (p Profile) CompetitorFilter() model.CompetitorFilter {
	return model.CompetitorFilter{
		POICategories:       p.POICategories,
		POIKeywords:         p.POIKeywords,
		StoreIndustries:     p.StoreIndustries,
		StoreCategoryMedium: p.StoreCategoryMedium,
	}
}

// Profiles is a set of business profiles keyed by business type.
type Profiles map[string]Profile

type profileFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// DefaultProfiles returns the built-in business profiles.
func DefaultProfiles() Profiles {
	p, err := parseProfiles(defaultProfilesYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("scoring: embedded profiles: %v", err))
	}
	return p
}

// LoadProfiles reads profile overrides from a YAML file and layers them over
// the built-in profiles. Fields left empty in the file keep their built-in
// value.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: read profiles %s", path)
	}
	p, err := parseProfiles(data, DefaultProfiles())
	if err != nil {
		return nil, err
	}
	if err := ValidateProfiles(p); err != nil {
		return nil, err
	}
	return p, nil
}

func parseProfiles(data []byte, base Profiles) (Profiles, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "scoring: parse profiles")
	}

	out := make(Profiles, len(base)+len(f.Profiles))
	for k, p := range base {
		out[k] = p
	}
	for k, p := range f.Profiles {
		k = normalizeKey(k)
		if prev, ok := out[k]; ok {
			p = merge(p, prev)
		}
		p.Key = k
		out[k] = p
	}

	def := out[DefaultProfileKey]
	for k, p := range out {
		if k != DefaultProfileKey {
			out[k] = merge(p, Profile{
				IdealCompetitors: def.IdealCompetitors,
				TrafficMin:       def.TrafficMin,
				TrafficOptimal:   def.TrafficOptimal,
			})
		}
	}
	return out, nil
}

// merge fills zero fields of p from fallback.
func merge(p, fallback Profile) Profile {
	if p.DisplayName == "" {
		p.DisplayName = fallback.DisplayName
	}
	if p.IdealCompetitors == 0 {
		p.IdealCompetitors = fallback.IdealCompetitors
	}
	if p.TrafficMin == 0 {
		p.TrafficMin = fallback.TrafficMin
	}
	if p.TrafficOptimal == 0 {
		p.TrafficOptimal = fallback.TrafficOptimal
	}
	if p.POICategories == nil {
		p.POICategories = fallback.POICategories
	}
	if p.POIKeywords == nil {
		p.POIKeywords = fallback.POIKeywords
	}
	if p.StoreIndustries == nil {
		p.StoreIndustries = fallback.StoreIndustries
	}
	if p.StoreCategoryMedium == nil {
		p.StoreCategoryMedium = fallback.StoreCategoryMedium
	}
	return p
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// Lookup returns the profile for business, falling back to the default
// profile. The returned Key is always the requested business type.
func (ps Profiles) Lookup(business string) Profile {
	k := normalizeKey(business)
	if p, ok := ps[k]; ok {
		return p
	}
	p := ps[DefaultProfileKey]
	p.Key = k
	return p
}

// Keys returns the business types in sorted order.
func (ps Profiles) Keys() []string {
	keys := make([]string, 0, len(ps))
	for k := range ps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateProfiles checks that every profile is internally consistent.
func ValidateProfiles(ps Profiles) error {
	var errs []string

	if _, ok := ps[DefaultProfileKey]; !ok {
		errs = append(errs, "default profile is required")
	}
	for _, k := range ps.Keys() {
		p := ps[k]
		if p.IdealCompetitors <= 0 {
			errs = append(errs, fmt.Sprintf("%s: ideal_competitors must be > 0", k))
		}
		if p.TrafficMin < 0 {
			errs = append(errs, fmt.Sprintf("%s: traffic_min must be >= 0", k))
		}
		if p.TrafficOptimal < p.TrafficMin {
			errs = append(errs, fmt.Sprintf("%s: traffic_optimal must be >= traffic_min", k))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: profile validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
