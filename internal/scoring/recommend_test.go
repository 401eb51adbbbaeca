package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitescore/internal/model"
)

func TestRecommend(t *testing.T) {
	cafe := DefaultProfiles()["cafe"]
	station := &model.TransitStation{Name: "Doksan", Place: model.NewPlace(37.47, 126.89, 312.6)}

	tests := []struct {
		name        string
		score       int
		competitors int
		traffic     int
		nearest     *model.TransitStation
		want        string
	}{
		{
			name: "strong with optimal traffic", score: 75, competitors: 2, traffic: 9000, nearest: station,
			want: "Highly recommended. Daily foot traffic of 9,000 makes this an ideal location for the cafe business. Close to Doksan station (313m), giving good access. With 2 competitors, saturation is at a healthy level.",
		},
		{
			name: "strong below optimal", score: 70, competitors: 1, traffic: 7999,
			want: "Recommended. Foot traffic of 7,999 with a manageable competitive field (1 competitors). This location has a good chance of success.",
		},
		{
			name: "average and crowded", score: 60, competitors: 4, traffic: 3000,
			want: "Average. Foot traffic of 3,000 can sustain the business, but 4 competitors make competition fierce. A differentiation strategy is needed.",
		},
		{
			name: "average and manageable", score: 50, competitors: 3, traffic: 5000, nearest: station,
			want: "Average. Foot traffic of 5,000 can sustain the business. Close to Doksan station (313m), giving good access. A focused marketing strategy can close the gap.",
		},
		{
			name: "average below minimum", score: 55, competitors: 0, traffic: 2999,
			want: "Needs careful review. Foot traffic of 2,999 is slightly below the cafe business minimum (3,000).",
		},
		{
			name: "weak below minimum", score: 49, competitors: 0, traffic: 100,
			want: "Not recommended. Foot traffic of 100 is below the cafe business minimum (3,000). Consider another location.",
		},
		{
			name: "weak with traffic", score: 30, competitors: 9, traffic: 12000,
			want: "Foot traffic is sufficient, but competitor saturation (9) or accessibility is a concern. Choose this location with care.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(tt.score, tt.competitors, tt.traffic, cafe, tt.nearest))
		})
	}
}

func TestRecommendUsesDisplayName(t *testing.T) {
	profiles := DefaultProfiles()

	tests := []struct {
		business string
		want     string
	}{
		{business: "pcroom", want: "below the PC room business minimum"},
		{business: "realestate", want: "below the real estate agency business minimum"},
		{business: "default", want: "below the general business minimum"},
	}
	for _, tt := range tests {
		t.Run(tt.business, func(t *testing.T) {
			p, ok := profiles[tt.business]
			require.True(t, ok)
			got := Recommend(20, 0, 10, p, nil)
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, tt.business+" business")
		})
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,234,567", formatCount(1234567))
}

func TestNearestStation(t *testing.T) {
	assert.Nil(t, nearestStation(nil))

	stations := []model.TransitStation{
		{Name: "far", Place: model.NewPlace(0, 0, 800)},
		{Name: "near", Place: model.NewPlace(0, 0, 150)},
		{Name: "unknown", Place: model.Place{}},
	}
	assert.Equal(t, "near", nearestStation(stations).Name)
}
