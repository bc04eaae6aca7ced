package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/signalboard"
	"github.com/jpalmerr/signalboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the SignalBoard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the SignalBoard dashboard server.

The server will:
  - Load configuration from the specified YAML or TOML file
  - Start the notification and signal pollers
  - Serve the dashboard UI on the configured port
  - Mirror values to MQTT and Redis when configured

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  signalboard serve -c config.yaml
  signalboard serve --config /etc/signalboard/config.toml --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().Bool("debug", false, "log every poll")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	return runBoard(cmd, nil)
}

// runBoard loads the config, builds a Board with extra options appended and
// runs it until SIGINT or SIGTERM.
func runBoard(cmd *cobra.Command, extra func(*config.Config) []signalboard.Option) error {
	debug, _ := cmd.Flags().GetBool("debug")
	logger := newLogger(debug)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"notifications", cfg.Notifications.Enabled(),
		"signal", cfg.Signal.Enabled(),
		"mqtt", cfg.MQTT.Enabled(),
		"redis", cfg.Redis.Enabled(),
	)

	// convert config to SDK options
	opts, err := config.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, signalboard.WithLogger(logger))
	if extra != nil {
		opts = append(opts, extra(cfg)...)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mirrors, err := openMirrors(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeMirrors(mirrors, logger)
	for _, m := range mirrors {
		opts = append(opts, signalboard.WithMirror(m))
	}

	b, err := signalboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create SignalBoard: %w", err)
	}

	// start board - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Start(ctx)
	}()

	// wait for board to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
