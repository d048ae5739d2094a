package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/permithub/internal/importer"
	"github.com/stwalsh4118/permithub/internal/repository"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Link records across imported datasets",
	}
	cmd.AddCommand(newMatchWreCmd())
	return cmd
}

func newMatchWreCmd() *cobra.Command {
	var opts importer.MatchOptions

	cmd := &cobra.Command{
		Use:   "wre",
		Short: "Match WRE approvals to building permits",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			m := importer.NewMatcher(
				repository.NewWreRepository(a.db),
				repository.NewPermitRepository(a.db),
				repository.NewMatchRepository(a.db),
				a.log,
			)
			stats, err := m.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Printf("match wre done: processed=%d created_matches=%d skipped_sources=%d dry_run=%v use_address=%v\n",
				stats.Processed, stats.CreatedMatches, stats.SkippedSources, opts.DryRun, opts.UseAddress)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Only process the first N approvals (0=all)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Count candidate matches without writing them")
	cmd.Flags().BoolVar(&opts.UseAddress, "use-address", false, "Enable the address-containment fallback (low confidence)")
	return cmd
}
