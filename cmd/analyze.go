package main

import (
	"encoding/json"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/analysis"
	"github.com/sells-group/sitescore/internal/model"
	"github.com/sells-group/sitescore/internal/scoring"
	"github.com/sells-group/sitescore/internal/sitedata"
)

var (
	analyzeLat      float64
	analyzeLng      float64
	analyzeBusiness string
	analyzeRadius   float64
	analyzePretty   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze and score a candidate site",
	Long:  "Fetches the buildings, POIs, competitors, transit and walking paths around a site, computes the walkable area, and prints the scored result as JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		engine, err := loadEngine(cfg.Analysis.ProfilesFile)
		if err != nil {
			return err
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		analyzer := analysis.NewAnalyzer(sitedata.NewPostgresSource(pool), engine, cfg)
		res, err := analyzer.Analyze(ctx, analysis.Request{
			Center:       model.LatLng{Lat: analyzeLat, Lng: analyzeLng},
			Business:     analyzeBusiness,
			RadiusMeters: analyzeRadius,
		})
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if err := writeResult(cmd.OutOrStdout(), res, analyzePretty); err != nil {
			return err
		}

		if path := cfg.Metrics.Textfile; path != "" {
			if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
				zap.L().Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	},
}

// loadEngine builds the scoring engine from the built-in profiles, layered
// with the overrides in path when set.
func loadEngine(path string) (*scoring.Engine, error) {
	if path == "" {
		return scoring.NewEngine(nil), nil
	}
	profiles, err := scoring.LoadProfiles(path)
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(profiles), nil
}

func writeResult(w io.Writer, res *analysis.Result, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return eris.Wrap(enc.Encode(res), "encode result")
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeLat, "lat", 0, "site latitude (WGS84)")
	analyzeCmd.Flags().Float64Var(&analyzeLng, "lng", 0, "site longitude (WGS84)")
	analyzeCmd.Flags().StringVar(&analyzeBusiness, "business", "", "business type (defaults to analysis.default_business)")
	analyzeCmd.Flags().Float64Var(&analyzeRadius, "radius", 0, "walking radius in metres (defaults to analysis.radius_meters)")
	analyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "indent the JSON output")
	_ = analyzeCmd.MarkFlagRequired("lat")
	_ = analyzeCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(analyzeCmd)
}
