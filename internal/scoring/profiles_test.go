package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfiles(t *testing.T) {
	ps := DefaultProfiles()
	require.NoError(t, ValidateProfiles(ps))

	tests := []struct {
		key        string
		ideal      int
		min, optim int
	}{
		{"cafe", 3, 3000, 8000},
		{"convenience", 2, 5000, 12000},
		{"chicken", 2, 4000, 10000},
		{"restaurant", 5, 5000, 15000},
		{"bank", 3, 3000, 10000},
		{"default", 3, 3000, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, ok := ps[tt.key]
			require.True(t, ok)
			assert.Equal(t, tt.key, p.Key)
			assert.Equal(t, tt.ideal, p.IdealCompetitors)
			assert.Equal(t, tt.min, p.TrafficMin)
			assert.Equal(t, tt.optim, p.TrafficOptimal)
		})
	}

	cafe := ps["cafe"]
	assert.Equal(t, []string{"카페"}, cafe.POICategories)
	assert.Contains(t, cafe.StoreIndustries, "커피전문점")
	assert.True(t, cafe.HasCompetitorFilters())
	assert.False(t, ps[DefaultProfileKey].HasCompetitorFilters())
	assert.Empty(t, ps["chicken"].StoreCategoryMedium)
}

func TestProfilesLookup(t *testing.T) {
	ps := DefaultProfiles()

	p := ps.Lookup(" Cafe ")
	assert.Equal(t, "cafe", p.Key)
	assert.Equal(t, 8000, p.TrafficOptimal)

	unknown := ps.Lookup("bookstore")
	assert.Equal(t, "bookstore", unknown.Key)
	assert.Equal(t, 3, unknown.IdealCompetitors)
	assert.Equal(t, 3000, unknown.TrafficMin)

	assert.Equal(t, "", ps.Lookup("").Key)
	assert.Equal(t, "academy", ps.Keys()[0])
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	yaml := `profiles:
  cafe:
    traffic_min: 4000
  bookstore:
    display_name: bookstore
    poi_keywords: [서점, books]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	ps, err := LoadProfiles(path)
	require.NoError(t, err)

	cafe := ps["cafe"]
	assert.Equal(t, 4000, cafe.TrafficMin)
	assert.Equal(t, 8000, cafe.TrafficOptimal)
	assert.Equal(t, 3, cafe.IdealCompetitors)
	assert.Equal(t, []string{"카페"}, cafe.POICategories)

	books := ps["bookstore"]
	assert.Equal(t, "bookstore", books.Key)
	assert.Equal(t, 3, books.IdealCompetitors)
	assert.Equal(t, 10000, books.TrafficOptimal)
	assert.Equal(t, []string{"서점", "books"}, books.POIKeywords)

	assert.Contains(t, ps, "restaurant")
}

func TestLoadProfilesErrors(t *testing.T) {
	_, err := LoadProfiles(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [unclosed"), 0o644))
	_, err = LoadProfiles(path)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("profiles:\n  cafe:\n    traffic_min: 9000\n"), 0o644))
	_, err = LoadProfiles(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cafe: traffic_optimal must be >= traffic_min")
}

func TestValidateProfiles(t *testing.T) {
	err := ValidateProfiles(Profiles{
		"cafe": {IdealCompetitors: 0, TrafficMin: -1, TrafficOptimal: -5},
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "default profile is required")
	assert.Contains(t, msg, "cafe: ideal_competitors must be > 0")
	assert.Contains(t, msg, "cafe: traffic_min must be >= 0")
	assert.Contains(t, msg, "cafe: traffic_optimal must be >= traffic_min")
}
