package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/signalboard"
	"github.com/jpalmerr/signalboard/config"
	"github.com/jpalmerr/signalboard/term"
)

// watchCmd renders to the terminal instead of serving the dashboard.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print status changes to the terminal",
	Long: `Poll the router and print a status line to stdout each time the
notification count or signal strength changes:

  Notifications: 3  Signal: ▮▮▯▯▯

No HTTP server is started. Logs go to stderr. Configured mirrors still run.

Example:
  signalboard watch -c config.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	watchCmd.Flags().Bool("debug", false, "log every poll")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	return runBoard(cmd, func(cfg *config.Config) []signalboard.Option {
		display := term.New(os.Stdout, cfg.CountElement, signalboard.Indicators{
			Container: cfg.Indicators.Container,
			Member:    cfg.Indicators.Member,
			Class:     cfg.Indicators.Class,
		}, cfg.Bars)

		return []signalboard.Option{
			signalboard.WithoutDashboard(),
			signalboard.WithRenderTarget(display),
		}
	})
}
