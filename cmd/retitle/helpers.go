package main

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"retitle/internal/reprocess"
)

var countPrinter = message.NewPrinter(language.English)

// formatCount renders an integer with thousands separators; selections can
// reach the millions.
func formatCount(value int64) string {
	return countPrinter.Sprintf("%d", value)
}

func formatElapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func printRunSummary(out io.Writer, summary *reprocess.RunSummary) {
	rows := [][]string{
		{"Selected", formatCount(int64(summary.Selected))},
		{"Processed", formatCount(int64(summary.Processed))},
		{"Matched", formatCount(int64(summary.Matched))},
		{"Unchanged", formatCount(int64(summary.Unchanged))},
		{"Errors", formatCount(int64(summary.Errors))},
		{"Match rate", fmt.Sprintf("%.1f%%", summary.MatchRate())},
		{"Dry run", yesNo(summary.DryRun)},
		{"Elapsed", formatElapsed(summary.Elapsed)},
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	if summary.Processed > 0 && summary.Matched == 0 && !summary.DryRun {
		fmt.Fprintln(out, "No releases matched. Consider lowering matching.min_similarity or raising matching.max_distance.")
	}
}
