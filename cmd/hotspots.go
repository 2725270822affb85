package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nurapulse/pulse/core/hotspot"
	"github.com/nurapulse/pulse/pkg/export"
)

var hotspotOpts hotspot.Options

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots <points.csv>",
	Short: "Place charging hotspots over pickup coordinates (lat, lon columns)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHotspots,
}

func init() {
	f := hotspotsCmd.Flags()
	f.Float64Var(&hotspotOpts.RadiusKM, "radius-km", 0, "service radius of a hotspot (default from config)")
	f.Float64Var(&hotspotOpts.TargetCoverage, "coverage", 0, "fraction of points to cover (default from config)")
	f.IntVar(&hotspotOpts.MaxK, "max-k", 0, "largest number of hotspots to try (default from config)")
	f.Int64Var(&hotspotOpts.Seed, "seed", 0, "random seed (default from config)")
	rootCmd.AddCommand(hotspotsCmd)
}

func runHotspots(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.Hotspot
	if hotspotOpts.RadiusKM > 0 {
		opts.RadiusKM = hotspotOpts.RadiusKM
	}
	if hotspotOpts.TargetCoverage > 0 {
		opts.TargetCoverage = hotspotOpts.TargetCoverage
	}
	if hotspotOpts.MaxK > 0 {
		opts.MaxK = hotspotOpts.MaxK
	}
	if hotspotOpts.Seed != 0 {
		opts.Seed = hotspotOpts.Seed
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	points, err := export.ReadPoints(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pl, err := hotspot.Place(ctx, points, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(pl)
}
