package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"retitle/internal/release"
	"retitle/internal/reprocess"
)

func newFixNamesCommand(ctx *commandContext) *cobra.Command {
	var (
		limit    int
		category int64
		dryRun   bool
		hash     bool
		yenc     bool
		short    bool
		noGroup  bool
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "fix-names",
		Short: "Find poorly named releases and repair them from evidence",
		Long: `Select releases whose names look obfuscated (hashed, yEnc-marked, too
short, or missing a group suffix) and run each through the evidence
cascade. Heuristic flags combine with OR; with none given, all four
apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func(env *environment) error {
				if limit <= 0 {
					limit = env.cfg.Reprocess.Limit
				}

				heuristics := release.Heuristics{
					Hash:    hash,
					YEnc:    yenc,
					Short:   short,
					NoGroup: noGroup,
				}
				if all {
					heuristics = release.AllHeuristics()
				}
				heuristics = heuristics.Normalized()

				engine := reprocess.New(
					env.releases,
					reprocess.NewMatcherFixer(env.matcher),
					env.matcher,
					env.logger,
				)
				summary, err := engine.Run(cmd.Context(), reprocess.Options{
					UnmatchedOnly: true,
					Category:      category,
					Limit:         limit,
					BatchSize:     env.cfg.Reprocess.BatchSize,
					DryRun:        dryRun,
					Heuristics:    &heuristics,
				})
				if err != nil {
					return fmt.Errorf("fix names: %w", err)
				}
				printRunSummary(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum releases to select (0 = configured default)")
	cmd.Flags().Int64Var(&category, "category", 0, "Restrict to a category id (0 = all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().BoolVar(&hash, "hash", false, "Select names that are bare 32-40 character hex hashes")
	cmd.Flags().BoolVar(&yenc, "yenc", false, "Select names still carrying a yEnc marker")
	cmd.Flags().BoolVar(&short, "short", false, "Select names shorter than 15 characters")
	cmd.Flags().BoolVar(&noGroup, "no-group", false, "Select names lacking a trailing group suffix")
	cmd.Flags().BoolVar(&all, "all", false, "Apply every heuristic (the default when none are given)")

	return cmd
}
