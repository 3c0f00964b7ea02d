package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"alumni-engine/internal/batch"
	"alumni-engine/internal/domain"
)

var (
	resolveCohort   string
	resolveURL      string
	resolveStrategy string
	resolveOnly     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve, fetch and store a single alumnus",
	Example: `  engine resolve "Asha Rao" --cohort 2019-2023
  engine resolve "Asha Rao" --cohort 2019-2023 --strategy fallback --resolve-only`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, ok := domain.ParseStrategy(resolveStrategy)
		if !ok {
			return fmt.Errorf("unknown strategy %q (want primary, fallback or auto)", resolveStrategy)
		}
		item := domain.WorkItem{Name: args[0], CohortHint: resolveCohort, KnownURL: resolveURL}
		if err := batch.ValidateItems([]domain.WorkItem{item}); err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if resolveOnly {
			cand, err := a.resolver.Resolve(cmd.Context(), item.Name, item.CohortHint, strategy)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cand)
		}

		res, err := a.pipeline.Process(cmd.Context(), item, strategy)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"profile":   res.Profile.Summary(),
			"candidate": res.Candidate,
		})
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveCohort, "cohort", "", "cohort hint, e.g. 2019-2023")
	resolveCmd.Flags().StringVar(&resolveURL, "url", "", "known profile URL; skips resolution")
	resolveCmd.Flags().StringVar(&resolveStrategy, "strategy", string(domain.StrategyPrimary), "primary, fallback or auto")
	resolveCmd.Flags().BoolVar(&resolveOnly, "resolve-only", false, "print the resolved candidate without fetching or storing")
}
