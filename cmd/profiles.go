package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/sitescore/internal/scoring"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the business profiles",
	Long:  "Lists the effective business profiles: the built-in set merged with analysis.profiles_file when configured.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("profiles"); err != nil {
			return err
		}

		profiles := scoring.DefaultProfiles()
		if path := cfg.Analysis.ProfilesFile; path != "" {
			p, err := scoring.LoadProfiles(path)
			if err != nil {
				return err
			}
			profiles = p
		}
		return printProfiles(cmd.OutOrStdout(), profiles)
	},
}

func printProfiles(w io.Writer, profiles scoring.Profiles) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUSINESS\tNAME\tIDEAL\tTRAFFIC MIN\tTRAFFIC OPTIMAL\tCOMPETITOR FILTERS")
	for _, k := range profiles.Keys() {
		p := profiles[k]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			k, p.DisplayName, p.IdealCompetitors, p.TrafficMin, p.TrafficOptimal, filterSummary(p))
	}
	return tw.Flush()
}

func filterSummary(p scoring.Profile) string {
	if !p.HasCompetitorFilters() {
		return "-"
	}
	var parts []string
	if len(p.POICategories) > 0 {
		parts = append(parts, "poi="+strings.Join(p.POICategories, ","))
	}
	if len(p.POIKeywords) > 0 {
		parts = append(parts, "keywords="+strings.Join(p.POIKeywords, ","))
	}
	if len(p.StoreIndustries) > 0 {
		parts = append(parts, "industry="+strings.Join(p.StoreIndustries, ","))
	}
	if len(p.StoreCategoryMedium) > 0 {
		parts = append(parts, "medium="+strings.Join(p.StoreCategoryMedium, ","))
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
