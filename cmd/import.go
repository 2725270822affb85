package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nurapulse/pulse/app"
	"github.com/nurapulse/pulse/core/report"
	"github.com/nurapulse/pulse/pkg/export"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Load a telemetry CSV file into the configured store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	samples, err := export.ReadSamples(f, svc.Reports.Engine().Location())
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := svc.Reports.Ingest(ctx, "import", samples)
	for _, msg := range res.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
	if err != nil && !errors.Is(err, report.ErrNothingAccepted) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d samples, rejected %d\n", res.Accepted, res.Rejected)
	return err
}
