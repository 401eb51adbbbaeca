package scoring

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/sitescore/internal/model"
)

// Score bands for the recommendation.
const (
	strongScore  = 70
	averageScore = 50

	// crowdedCompetitors is the count above which competition is called
	// fierce for an average site.
	crowdedCompetitors = 3
)

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return message.NewPrinter(language.Korean).Sprintf("%d", n)
}

// Recommend returns the recommendation text for a scored site, naming the
// business by the profile's display name. nearest is the closest transit
// station, if any.
func Recommend(score, competitors, traffic int, profile Profile, nearest *model.TransitStation) string {
	label := profile.DisplayName

	transit := ""
	if nearest != nil {
		transit = fmt.Sprintf("Close to %s station (%dm), giving good access. ",
			nearest.Name, int(roundHalfUp(nearest.Distance)))
	}

	people := formatCount(traffic)
	minimum := formatCount(profile.TrafficMin)

	switch {
	case score >= strongScore:
		if traffic >= profile.TrafficOptimal {
			return fmt.Sprintf("Highly recommended. Daily foot traffic of %s makes this an ideal location for the %s business. %sWith %d competitors, saturation is at a healthy level.",
				people, label, transit, competitors)
		}
		return fmt.Sprintf("Recommended. Foot traffic of %s with a manageable competitive field (%d competitors). %sThis location has a good chance of success.",
			people, competitors, transit)

	case score >= averageScore:
		if traffic < profile.TrafficMin {
			return fmt.Sprintf("Needs careful review. Foot traffic of %s is slightly below the %s business minimum (%s).",
				people, label, minimum)
		}
		if competitors > crowdedCompetitors {
			return fmt.Sprintf("Average. Foot traffic of %s can sustain the business, but %d competitors make competition fierce. A differentiation strategy is needed.",
				people, competitors)
		}
		return fmt.Sprintf("Average. Foot traffic of %s can sustain the business. %sA focused marketing strategy can close the gap.",
			people, transit)

	default:
		if traffic < profile.TrafficMin {
			return fmt.Sprintf("Not recommended. Foot traffic of %s is below the %s business minimum (%s). Consider another location.",
				people, label, minimum)
		}
		return fmt.Sprintf("Foot traffic is sufficient, but competitor saturation (%d) or accessibility is a concern. Choose this location with care.",
			competitors)
	}
}
