package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/davidkarnowski/HustleYourCity/internal/config"
	"github.com/davidkarnowski/HustleYourCity/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "hustleyourcity",
	Short: "HustleYourCity summarizes municipal service-request exports",
	Long: `HustleYourCity processes timestamped exports of the City of Long Beach
service-request dataset into windowed summary statistics: per-type counts,
status breakdowns and average request-to-closure times over All-Time, 90d,
60d, 30d, 7d, 1d and 4h horizons.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("dataPath", cfg.DataPath).
			Msg("HustleYourCity starting")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
