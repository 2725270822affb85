package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nurapulse/pulse/app"
	coremetrics "github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/milestone"
	"github.com/nurapulse/pulse/pkg/export"
)

type reportOptions struct {
	from, to  string
	vehicles  []string
	kind      string
	format    string
	input     string
	maxCharge int
}

var reportOpts reportOptions

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute a milestone or audit report and print it",
	Long: `Compute a battery report for a date range and a list of vehicles.
Samples are read from --input (a CSV with vehicle_id, timestamp,
battery_percent and odometer_km columns) or from the configured store.`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportOpts.from, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&reportOpts.to, "to", "", "last day, YYYY-MM-DD (defaults to --from)")
	f.StringSliceVar(&reportOpts.vehicles, "vehicles", nil, "vehicle ids, comma separated")
	f.StringVar(&reportOpts.kind, "kind", coremetrics.KindMilestones, "milestones, low-charge or morning-charge")
	f.StringVar(&reportOpts.format, "format", "csv", "csv or json")
	f.StringVarP(&reportOpts.input, "input", "i", "", "telemetry CSV file instead of the configured store")
	f.IntVar(&reportOpts.maxCharge, "max-charge", -1, "morning-charge only: keep rows with a 6 AM charge below this value")
	_ = reportCmd.MarkFlagRequired("from")
	_ = reportCmd.MarkFlagRequired("vehicles")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	o := reportOpts
	if o.to == "" {
		o.to = o.from
	}
	switch o.kind {
	case coremetrics.KindMilestones, coremetrics.KindLowCharge, coremetrics.KindMorningCharge:
	default:
		return fmt.Errorf("unknown report kind %q", o.kind)
	}
	if o.format != "csv" && o.format != "json" {
		return fmt.Errorf("unsupported format %q", o.format)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var rep *milestone.Report
	if o.input != "" {
		engine, err := milestone.NewEngine(cfg.Engine, nil)
		if err != nil {
			return err
		}
		req, err := engine.ParseRequest(o.from, o.to, o.vehicles)
		if err != nil {
			return err
		}
		f, err := os.Open(o.input)
		if err != nil {
			return err
		}
		defer f.Close()
		samples, err := export.ReadSamples(f, engine.Location())
		if err != nil {
			return fmt.Errorf("read %s: %w", o.input, err)
		}
		if rep, err = engine.BuildReport(ctx, req, samples); err != nil {
			return err
		}
	} else {
		svc, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()
		req, err := svc.Reports.Engine().ParseRequest(o.from, o.to, o.vehicles)
		if err != nil {
			return err
		}
		if rep, err = svc.Reports.Build(ctx, o.kind, req); err != nil {
			return err
		}
	}
	if rep.Message != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), rep.Message)
	}
	return writeReport(cmd.OutOrStdout(), o, rep)
}

func writeReport(w io.Writer, o reportOptions, rep *milestone.Report) error {
	asJSON := strings.EqualFold(o.format, "json")
	switch o.kind {
	case coremetrics.KindLowCharge:
		if asJSON {
			return export.WriteJSON(w, rep.Audits, rep.Message)
		}
		return export.WriteCSV(w, milestone.AuditColumns, rep.Audits)
	case coremetrics.KindMorningCharge:
		rows := rep.Morning
		if o.maxCharge >= 0 {
			rows = milestone.FilterMorning(rows, o.maxCharge)
		}
		if asJSON {
			return export.WriteJSON(w, rows, rep.Message)
		}
		return export.WriteCSV(w, milestone.MorningColumns, rows)
	default:
		if asJSON {
			return export.WriteJSON(w, rep.Milestones, rep.Message)
		}
		return export.WriteCSV(w, milestone.MilestoneColumns, rep.Milestones)
	}
}
