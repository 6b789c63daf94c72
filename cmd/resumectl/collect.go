package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-ingest/internal/batch"
	"resume-ingest/internal/bootstrap"
	"resume-ingest/internal/shared/config"
)

var collectCmd = &cobra.Command{
	Use:   "collect [dir]",
	Short: "Recover records from stored JSON outputs and insert them",
	Long:  "Reads every .json output from dir, or from the configured output store when dir is omitted, and inserts the recovered records. Outputs stored as raw replies are re-parsed.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := bootstrap.Build(ctx, config.Load())
	if err != nil {
		return err
	}
	defer app.Close()

	var report batch.CollectReport
	if len(args) == 1 {
		report, err = batch.CollectDir(ctx, args[0])
	} else {
		report, err = batch.Collect(ctx, app.Outputs)
	}
	if err != nil {
		return err
	}

	inserted, total, err := app.Candidates.Insert(ctx, report.Records)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "files: %d, records: %d, inserted: %d, duplicates: %d\n", report.Files, total, inserted, total-inserted)
	for _, key := range report.Skipped {
		fmt.Fprintf(w, "unparsed: %s\n", key)
	}
	return nil
}
