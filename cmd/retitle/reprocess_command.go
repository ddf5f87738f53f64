package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"retitle/internal/reprocess"
)

func newReprocessCommand(ctx *commandContext) *cobra.Command {
	var (
		resetFlags    bool
		unmatchedOnly bool
		category      int64
		limit         int
		batchSize     int
		dryRun        bool
		showDetails   bool
	)

	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Re-run the match cascade over selected releases",
		Long: `Select releases, optionally reset their processing flags first, then run
each through the evidence cascade (NFO text, then file listing) with a
fallback to the catalog matcher. Attempt counters record every consulted
evidence source. Use --dry-run to preview the outcome without writing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func(env *environment) error {
				if limit <= 0 {
					limit = env.cfg.Reprocess.Limit
				}
				if batchSize <= 0 {
					batchSize = env.cfg.Reprocess.BatchSize
				}

				engine := reprocess.New(
					env.releases,
					reprocess.NewMatcherFixer(env.matcher),
					env.matcher,
					env.logger,
				)
				summary, err := engine.Run(cmd.Context(), reprocess.Options{
					ResetFlags:    resetFlags,
					UnmatchedOnly: unmatchedOnly,
					Category:      category,
					Limit:         limit,
					BatchSize:     batchSize,
					DryRun:        dryRun,
					ShowDetails:   showDetails,
				})
				if err != nil {
					return fmt.Errorf("reprocess: %w", err)
				}
				printRunSummary(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&resetFlags, "reset-flags", false, "Zero processing flags and attempt counters for the selection before processing")
	cmd.Flags().BoolVar(&unmatchedOnly, "unmatched-only", false, "Only select releases without a catalog link")
	cmd.Flags().Int64Var(&category, "category", 0, "Restrict to a category id (0 = all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum releases to select (0 = configured default)")
	cmd.Flags().IntVar(&batchSize, "batch", 0, "Releases per processing batch (0 = configured default)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().BoolVar(&showDetails, "show-details", false, "Log every rename at info level")

	return cmd
}
