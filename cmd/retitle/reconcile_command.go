package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"retitle/internal/reconcile"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var sinceDays int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Bulk-link releases whose search name exactly matches a catalog title",
		Long: `Sweep unresolved releases and link them to catalog entries whose title
equals the release's current search name, without running the match cascade.
Safe to re-run; a second pass over the same data reconciles nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func(env *environment) error {
				reconciler := reconcile.New(env.releases, env.logger)
				result, err := reconciler.Run(cmd.Context(), sinceDays)
				if err != nil {
					return fmt.Errorf("reconcile: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Metric", "Value"},
					[][]string{
						{"Title matches found", formatCount(int64(result.Found))},
						{"Reconciled", formatCount(int64(result.Reconciled))},
						{"Failed batches", formatCount(int64(result.FailedBatches))},
						{"Elapsed", formatElapsed(result.Elapsed)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&sinceDays, "since-days", 0, "Only consider releases added within the last N days (0 = all)")

	return cmd
}
