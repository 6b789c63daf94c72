package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-ingest/internal/bootstrap"
	"resume-ingest/internal/candidates"
	"resume-ingest/internal/shared/config"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored candidates",
	Long:  "Search stored candidates. At least one filter is required; filters combine with AND.",
	RunE:  runSearch,
}

var (
	searchFilters candidates.Filters
	searchXLSX    string
)

func init() {
	searchCmd.Flags().StringVar(&searchFilters.CreatedAt, "created-at", "", "Creation date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchFilters.Graduation, "graduation", "", "Substring of the graduation field")
	searchCmd.Flags().StringVar(&searchFilters.Experience, "experience", "", "Substring of the total experience field")
	searchCmd.Flags().StringVar(&searchFilters.Mobile, "mobile", "", "Substring of the mobile field")
	searchCmd.Flags().StringVar(&searchXLSX, "xlsx", "", "Write matches to this .xlsx file instead of stdout")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if searchFilters.IsEmpty() {
		return candidates.ErrEmptyFilters
	}
	ctx := cmd.Context()

	app, err := bootstrap.Build(ctx, config.Load())
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.Candidates.Search(ctx, searchFilters)
	if err != nil {
		return err
	}

	if searchXLSX != "" {
		data, err := candidates.ExportXLSX(records)
		if err != nil {
			return err
		}
		if err := os.WriteFile(searchXLSX, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), searchXLSX)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
