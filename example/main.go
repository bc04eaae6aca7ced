package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/signalboard"
	"github.com/jpalmerr/signalboard/term"
)

func main() {
	// start mock router (see mock_server.go)
	go StartMockRouter(":5001")
	time.Sleep(100 * time.Millisecond)

	notifications, err := signalboard.NewSource("http://localhost:5001/api/notifications")
	if err != nil {
		slog.Error("failed to create notification source", "error", err)
		os.Exit(1)
	}

	// poll the signal every 2s instead of the default 1s
	signalSrc, err := signalboard.NewSource("http://localhost:5001/api/signal-strength",
		signalboard.WithInterval(2*time.Second),
	)
	if err != nil {
		slog.Error("failed to create signal source", "error", err)
		os.Exit(1)
	}

	// print changes to the terminal as well as the web dashboard
	display := term.New(os.Stdout, signalboard.DefaultCountElement, signalboard.DefaultIndicators, 5)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	b, err := signalboard.New(
		signalboard.WithNotifications(notifications),
		signalboard.WithSignal(signalSrc),
		signalboard.WithTitle("SignalBoard Demo"),
		signalboard.WithPort(8080),
		signalboard.WithRenderTarget(display),
		signalboard.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create signalboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  SignalBoard Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  Mock router on http://localhost:5001")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		slog.Error("signalboard error", "error", err)
		os.Exit(1)
	}
}
