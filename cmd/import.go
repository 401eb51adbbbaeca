package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sitescore/internal/sitedata"
)

var importPathsCmd = &cobra.Command{
	Use:   "import-paths <file.geojson>",
	Short: "Load OSM walking paths into the site database",
	Long:  "Reads a GeoJSON FeatureCollection of OpenStreetMap ways (osm_id, highway, name and optional footway, surface, width, lit, access tags) and upserts them into kor.walking_path.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		stats, err := sitedata.ImportWalkingPaths(ctx, pool, f)
		if err != nil {
			return eris.Wrap(err, "import paths")
		}

		printImportStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

var importBuildingsCmd = &cobra.Command{
	Use:   "import-buildings <TL_SPBD_BULD.shp>",
	Short: "Load a building register shapefile into the site database",
	Long:  "Reads a Korean building register shapefile in UTM-K or WGS84, converts footprints to WGS84 multipolygons, and upserts them into kor.bldg keyed on BD_MGT_SN.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		stats, err := sitedata.ImportBuildings(ctx, pool, args[0])
		if err != nil {
			return eris.Wrap(err, "import buildings")
		}

		printImportStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func printImportStats(w io.Writer, stats sitedata.ImportStats) {
	fmt.Fprintf(w, "features: %d  skipped: %d  duplicates: %d  upserted: %d\n",
		stats.Features, stats.Skipped, stats.Duplicates, stats.Upserted)
}

func init() {
	rootCmd.AddCommand(importPathsCmd)
	rootCmd.AddCommand(importBuildingsCmd)
}
