package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/signalboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a SignalBoard configuration file without starting the server.

This command parses the YAML or TOML, expands environment variables, and
validates all fields. It's useful for CI/CD pipelines or pre-deployment
checks. No connection to the router or mirrors is attempted.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  signalboard validate -c config.yaml
  signalboard validate --config /etc/signalboard/config.toml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	printSource(out, "Notifications:", cfg.Notifications, 5*time.Second)
	printSource(out, "Signal:", cfg.Signal, time.Second)
	fmt.Fprintf(out, "  Indicators:    #%s .%s (%d, toggling %q)\n",
		cfg.Indicators.Container, cfg.Indicators.Member, cfg.Bars, cfg.Indicators.Class)

	if cfg.MQTT.Enabled() {
		fmt.Fprintf(out, "  MQTT mirror:   %s (topics %s/...)\n", cfg.MQTT.Broker, cfg.MQTT.TopicPrefix)
	} else {
		fmt.Fprintf(out, "  MQTT mirror:   disabled\n")
	}
	if cfg.Redis.Enabled() {
		fmt.Fprintf(out, "  Redis mirror:  %s (key %s)\n", cfg.Redis.Addr, cfg.Redis.Key)
	} else {
		fmt.Fprintf(out, "  Redis mirror:  disabled\n")
	}

	return nil
}

func printSource(out io.Writer, label string, s config.SourceConfig, defaultInterval time.Duration) {
	if !s.Enabled() {
		fmt.Fprintf(out, "  %-14s disabled\n", label)
		return
	}
	interval := s.Interval.Duration()
	if interval == 0 {
		interval = defaultInterval
	}
	fmt.Fprintf(out, "  %-14s %s every %s\n", label, s.URL, interval)
}
