package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/permithub/internal/importer"
	"github.com/stwalsh4118/permithub/internal/repository"
	"github.com/stwalsh4118/permithub/internal/xmlstream"
)

// showKeysSample caps the records inspected by the --show-keys diagnostic.
const showKeysSample = 2000

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a municipal export into the database",
	}
	cmd.AddCommand(newImportPermitXMLCmd())
	cmd.AddCommand(newImportUsePermitXMLCmd())
	cmd.AddCommand(newImportRenewalRawCSVCmd())
	cmd.AddCommand(newImportRenewalXLSXCmd())
	cmd.AddCommand(newImportWreCSVCmd())
	return cmd
}

func addImportFlags(cmd *cobra.Command, opts *importer.Options) {
	cmd.Flags().StringVar(&opts.File, "file", "", "Path of the export file (required)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Parse and count only, no database writes")
	_ = cmd.MarkFlagRequired("file")
}

func printStats(kind string, stats *importer.Stats, opts importer.Options) {
	fmt.Printf("%s done: processed=%d created=%d updated=%d skipped=%d failed=%d dry_run=%v\n",
		kind, stats.Processed, stats.Created, stats.Updated, stats.Skipped, stats.Failed, opts.DryRun)
	for _, e := range stats.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", e)
	}
}

func newImportPermitXMLCmd() *cobra.Command {
	var opts importer.Options
	var showKeys bool

	cmd := &cobra.Command{
		Use:   "permit-xml",
		Short: "Import building permits from the XML export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showKeys {
				return runShowKeys(opts.File)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			im := importer.NewPermitXMLImporter(repository.NewPermitRepository(a.db), a.log)
			stats, err := im.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printStats("permit-xml", stats, opts)
			return nil
		},
	}
	addImportFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Delete all building permits before importing")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Only import the first N records (0=all)")
	cmd.Flags().BoolVar(&opts.Upsert, "upsert", false, "Update existing permits by permit number")
	cmd.Flags().BoolVar(&showKeys, "show-keys", false, "Print record tag frequencies and exit (no database)")
	return cmd
}

// runShowKeys prints the per-tag counts of the first records, most common
// first. Schema discovery aid when a new export year shows up.
func runShowKeys(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	counts, err := xmlstream.TagFrequency(f, "Data", showKeysSample)
	if err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	for _, tag := range tags {
		fmt.Printf("%d %s\n", counts[tag], tag)
	}
	return nil
}

func newImportUsePermitXMLCmd() *cobra.Command {
	var opts importer.Options

	cmd := &cobra.Command{
		Use:   "use-permit-xml",
		Short: "Import occupancy (use) permits from the XML export",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			im := importer.NewUsePermitXMLImporter(repository.NewUsePermitRepository(a.db), a.log)
			stats, err := im.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printStats("use-permit-xml", stats, opts)
			return nil
		},
	}
	addImportFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Delete all use permits before importing")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Only import the first N records (0=all)")
	cmd.Flags().BoolVar(&opts.Upsert, "upsert", false, "Update existing permits by (year, number)")
	return cmd
}

func newImportRenewalRawCSVCmd() *cobra.Command {
	var opts importer.Options

	cmd := &cobra.Command{
		Use:   "renewal-raw-csv",
		Short: "Import urban-renewal cases from the PDF-extracted raw CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			im := importer.NewRenewalRawCSVImporter(repository.NewRenewalRepository(a.db), a.log)
			stats, err := im.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printStats("renewal-raw-csv", stats, opts)
			return nil
		},
	}
	addImportFlags(cmd, &opts)
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Only import the first N case rows (0=all)")
	return cmd
}

func newImportRenewalXLSXCmd() *cobra.Command {
	var opts importer.Options

	cmd := &cobra.Command{
		Use:   "renewal-xlsx",
		Short: "Import urban-renewal cases from the curated workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			im := importer.NewRenewalXLSXImporter(repository.NewRenewalRepository(a.db), a.log)
			stats, err := im.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printStats("renewal-xlsx", stats, opts)
			return nil
		},
	}
	addImportFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Delete existing Taipei renewal cases before importing")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Only import the first N rows (0=all)")
	return cmd
}

func newImportWreCSVCmd() *cobra.Command {
	var opts importer.Options

	cmd := &cobra.Command{
		Use:   "wre-csv",
		Short: "Import reconstruction (WRE) approvals from the curated CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			im := importer.NewWreCSVImporter(repository.NewWreRepository(a.db), a.log)
			stats, err := im.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printStats("wre-csv", stats, opts)
			return nil
		},
	}
	addImportFlags(cmd, &opts)
	return cmd
}
