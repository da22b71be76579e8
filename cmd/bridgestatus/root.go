package main

import (
	"fmt"

	"github.com/spf13/cobra"

	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/config"
)

type rootOptions struct {
	configPath string
	layer      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "bridgestatus",
		Short:         "Live health dashboard for a rollup bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.layer, "layer", "", "Layer to watch: L2 or L3 (default from config)")

	cmd.AddCommand(dashboardCmd(opts))
	cmd.AddCommand(watchCmd(opts))
	cmd.AddCommand(indicatorsCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}

func dashboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Run the terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}
}

func watchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print indicator updates as log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts)
		},
	}
}

func indicatorsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indicators",
		Short: "List the indicators of a layer without starting them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndicators(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bridgestatus %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}

// initialLayer picks the --layer flag over the configured default.
func initialLayer(opts *rootOptions, cfg *config.Config) (chainDomain.Layer, error) {
	if opts.layer != "" {
		return chainDomain.ParseLayer(opts.layer)
	}
	return chainDomain.ParseLayer(cfg.Dashboard.DefaultLayer)
}
