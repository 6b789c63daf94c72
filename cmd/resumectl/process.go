package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-ingest/internal/bootstrap"
	"resume-ingest/internal/shared/config"
)

var processCmd = &cobra.Command{
	Use:   "process <archive.zip>",
	Short: "Process every PDF in a zip archive and store the extracted records",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	app, err := bootstrap.Build(ctx, config.Load())
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.BuildPipeline(ctx); err != nil {
		return err
	}

	summary, runErr := app.Pipeline.Run(ctx, f, info.Size())
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return runErr
}
