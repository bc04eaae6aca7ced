// Package main is the entry point for the signalboard CLI.
//
// SignalBoard can be run either as a library (SDK) or as a standalone binary
// with a YAML or TOML configuration file. This CLI provides the standalone
// binary approach.
//
// Usage:
//
//	signalboard serve -c config.yaml    # Start the web dashboard
//	signalboard watch -c config.yaml    # Print changes to the terminal
//	signalboard validate -c config.toml # Validate configuration
//	signalboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "signalboard",
	Short: "A live router status board",
	Long: `SignalBoard polls a router backend for its unread notification count
and cellular signal strength and keeps a display in sync.

The notification count is polled every 5 seconds and the signal strength
every second. Failed polls are logged and the last value stays on screen.

Quick start:
  1. Create a config file (signalboard.yaml)
  2. Run: signalboard serve -c signalboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  base_url: http://192.168.8.1:5001
  signal:
    interval: 1s`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this signalboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "signalboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
