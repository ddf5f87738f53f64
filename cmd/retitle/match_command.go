package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"retitle/internal/predb"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match NAME",
		Short: "Resolve a single name through the match cascade",
		Long: `Run one candidate name through the full cascade (exact title, exact
filename, normalized, fuzzy) and report which phase matched. Useful for
checking why a release does or does not resolve.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(func(env *environment) error {
				candidate := strings.TrimSpace(args[0])
				result, err := env.matcher.Resolve(cmd.Context(), candidate)
				if err != nil {
					return fmt.Errorf("resolve %q: %w", candidate, err)
				}

				out := cmd.OutOrStdout()
				if !result.Matched {
					fmt.Fprintf(out, "No match for %q\n", candidate)
					return nil
				}

				rows := [][]string{
					{"Candidate", candidate},
					{"Tier", string(result.Tier)},
					{"Catalog id", formatCount(result.CatalogID)},
					{"Matched title", result.Title},
				}
				if result.Tier == predb.TierFuzzy {
					rows = append(rows,
						[]string{"Similarity", fmt.Sprintf("%.1f%%", result.Similarity)},
						[]string{"Edit distance", fmt.Sprintf("%d", result.Distance)},
					)
				}
				if entry, err := env.catalog.GetByID(cmd.Context(), result.CatalogID); err == nil && entry != nil {
					if entry.Source != "" {
						rows = append(rows, []string{"Source", entry.Source})
					}
					if entry.Nuked != predb.NukeNone {
						rows = append(rows, []string{"Nuked", fmt.Sprintf("%d (%s)", entry.Nuked, entry.NukeReason)})
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Field", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	return cmd
}
