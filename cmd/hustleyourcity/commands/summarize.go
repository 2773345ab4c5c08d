package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/davidkarnowski/HustleYourCity/internal/export"
	"github.com/davidkarnowski/HustleYourCity/internal/report"
	"github.com/davidkarnowski/HustleYourCity/internal/stats"
)

var (
	summarizeInput  string
	summarizeNow    string
	summarizeTables bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Aggregate the latest export into a windowed summary artifact",
	Long: `Reads the most recent service_requests_full_*.json export (or the file
given via --input), computes per-type and per-status statistics over the
seven observation windows, and writes a new summary_stats_*.json artifact
next to the export. Existing artifacts are never overwritten.`,
	RunE: runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	started := time.Now()

	inputPath := summarizeInput
	var collectedAt time.Time
	var err error
	if inputPath == "" {
		inputPath, collectedAt, err = export.FindLatestExport(cfg.DataPath)
		if err != nil {
			return err
		}
	} else {
		collectedAt, err = export.CollectionTime(inputPath)
		if err != nil {
			return err
		}
	}

	// The reference instant defaults to the export's collection time so that
	// re-running over the same export reproduces the artifact byte for byte.
	t0 := collectedAt
	if summarizeNow != "" {
		t0, err = time.Parse(time.RFC3339, summarizeNow)
		if err != nil {
			return fmt.Errorf("invalid --now value %q: %w", summarizeNow, err)
		}
		t0 = t0.UTC()
	}

	log.Info().Str("export", inputPath).Time("referenceInstant", t0).Msg("Starting summary generation")

	raw, err := export.Load(inputPath)
	if err != nil {
		return err
	}

	records := stats.NormalizeAll(raw)
	if n := stats.CountUntimedClosures(records); n > 0 {
		log.Debug().Int("count", n).Msg("Closure-implying statuses without a closure timestamp; excluded from duration averages")
	}

	run := stats.Summarize(records, t0)
	path, err := stats.WriteSummary(run, cfg.DataPath)
	if err != nil {
		return err
	}

	log.Info().
		Str("path", path).
		Int("total", run.TotalRecords).
		Int("malformed", run.MalformedRecords).
		Dur("duration", time.Since(started)).
		Msg("Summary generation complete")

	if summarizeTables {
		return report.RenderRun(os.Stdout, run)
	}
	return nil
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeInput, "input", "", "export file to summarize (default: latest export in the data directory)")
	summarizeCmd.Flags().StringVar(&summarizeNow, "now", "", "override the reference instant (RFC 3339; default: export collection time)")
	summarizeCmd.Flags().BoolVar(&summarizeTables, "tables", false, "print per-window tables after writing the artifact")
	rootCmd.AddCommand(summarizeCmd)
}
