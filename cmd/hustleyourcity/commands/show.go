package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/davidkarnowski/HustleYourCity/internal/report"
	"github.com/davidkarnowski/HustleYourCity/internal/stats"
)

var showCmd = &cobra.Command{
	Use:   "show [summary-file]",
	Short: "Render a summary artifact as console tables",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		var err error
		if len(args) == 1 {
			path = args[0]
		} else {
			path, err = stats.FindLatestSummary(cfg.DataPath)
			if err != nil {
				return err
			}
		}

		run, err := stats.ReadSummary(path)
		if err != nil {
			return err
		}
		return report.RenderRun(os.Stdout, run)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
