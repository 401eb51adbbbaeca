package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitescore/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitescore",
	Short: "Walkable reachability and commercial site scoring",
	Long:  "Computes the area reachable on foot from a candidate site, filters nearby buildings, POIs and competitors by walking distance, and scores the site for a business type.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		applyLogFlags(cmd, &c.Log)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.ReplaceGlobals(commandLogger(zap.L(), cmd))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "override log.format (json or console)")
}

// applyLogFlags lets --log-level and --log-format win over SITESCORE_LOG_*
// and the config file.
func applyLogFlags(cmd *cobra.Command, log *config.LogConfig) {
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		log.Level = f.Value.String()
	}
	if f := cmd.Flag("log-format"); f != nil && f.Changed {
		log.Format = f.Value.String()
	}
}

// commandLogger tags every line with the subcommand that produced it, so
// import and analyze runs can be told apart in shared log sinks.
func commandLogger(l *zap.Logger, cmd *cobra.Command) *zap.Logger {
	return l.With(zap.String("app", "sitescore"), zap.String("command", cmd.Name()))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
