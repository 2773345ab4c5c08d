// Package report renders a summary run as human-readable console tables,
// one per observation window. It reads the summary structures and never
// mutates them; JSON artifacts remain the machine-facing contract.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/davidkarnowski/HustleYourCity/internal/stats"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	noDataColor  = color.New(color.FgHiBlack)
)

// windowTitles maps window names to the labels used in console output.
var windowTitles = map[string]string{
	"all_time": "All-Time",
	"90_days":  "Last 90 Days",
	"60_days":  "Last 60 Days",
	"30_days":  "Last 30 Days",
	"7_days":   "Last 7 Days",
	"1_day":    "Last 1 Day",
	"4_hours":  "Last 4 Hours",
}

// RenderRun writes one table per window, in registry order (widest first).
func RenderRun(w io.Writer, run *stats.SummaryRun) error {
	for _, win := range stats.Windows {
		ws := run.Windows[win.Name]
		if ws == nil {
			continue
		}
		if err := renderWindow(w, win.Name, ws); err != nil {
			return err
		}
	}
	return nil
}

func renderWindow(w io.Writer, name string, ws *stats.WindowSummary) error {
	title := windowTitles[name]
	if title == "" {
		title = name
	}
	if _, err := fmt.Fprintf(w, "\n=== %s (%d records) ===\n", headingColor.Sprint(title), ws.Total); err != nil {
		return err
	}
	if len(ws.CaseTypes) == 0 {
		_, err := fmt.Fprintln(w, "No records found in this window.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Service Type", "Total", "Closed", "In Progress", "New", "Avg Response (hrs)"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, caseType := range ws.CaseTypes.OrderedNames() {
		ct := ws.CaseTypes[caseType]
		data = append(data, []string{
			caseType,
			strconv.Itoa(ct.Count),
			strconv.Itoa(statusCount(ct, "Closed")),
			strconv.Itoa(statusCount(ct, "In Progress")),
			strconv.Itoa(statusCount(ct, "New")),
			formatAvg(ct.AvgResponseHours),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// statusCount looks a status up case-insensitively; the breakdown keys carry
// the casing of the first occurrence in the source data.
func statusCount(ct *stats.CaseTypeSummary, status string) int {
	for k, v := range ct.StatusBreakdown {
		if strings.EqualFold(k, status) {
			return v
		}
	}
	return 0
}

func formatAvg(a stats.AvgHours) string {
	if !a.Known {
		return noDataColor.Sprint("—")
	}
	return fmt.Sprintf("%.2f", a.Hours)
}
