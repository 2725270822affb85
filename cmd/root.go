package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurapulse/pulse/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "pulse",
	Short:        "Nura Pulse battery telemetry service",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); PULSE_* variables override it")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
