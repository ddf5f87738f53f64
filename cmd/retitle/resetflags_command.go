package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"retitle/internal/reprocess"
)

func newResetFlagsCommand(ctx *commandContext) *cobra.Command {
	var (
		unmatchedOnly bool
		category      int64
		limit         int
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "reset-flags",
		Short: "Zero processing flags and attempt counters without reprocessing",
		Long: `Reset the per-source processing flags and attempt counters for the
selected releases so a later reprocess run starts from a clean slate.
Nothing is matched or renamed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func(env *environment) error {
				if limit <= 0 {
					limit = env.cfg.Reprocess.Limit
				}

				engine := reprocess.New(env.releases, nil, nil, env.logger)
				summary, err := engine.ResetOnly(cmd.Context(), reprocess.Options{
					UnmatchedOnly: unmatchedOnly,
					Category:      category,
					Limit:         limit,
					DryRun:        dryRun,
				})
				if err != nil {
					return fmt.Errorf("reset flags: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Metric", "Value"},
					[][]string{
						{"Selected", formatCount(int64(summary.Selected))},
						{"Reset", formatCount(summary.Reset)},
						{"Dry run", yesNo(summary.DryRun)},
						{"Elapsed", formatElapsed(summary.Elapsed)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unmatchedOnly, "unmatched-only", true, "Only select releases without a catalog link")
	cmd.Flags().Int64Var(&category, "category", 0, "Restrict to a category id (0 = all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum releases to reset (0 = configured default)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the selection size without resetting")

	return cmd
}
