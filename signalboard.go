package signalboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/signalboard/dashboard"
	"github.com/jpalmerr/signalboard/internal/page"
	"github.com/jpalmerr/signalboard/internal/poller"
	"github.com/jpalmerr/signalboard/internal/server"
)

const (
	defaultNotificationInterval = 5 * time.Second
	defaultSignalInterval       = 1 * time.Second
	defaultPort                 = 8080
	defaultBars                 = 5
)

// Board runs the notification and signal pollers and serves the dashboard.
//
// Board is created using [New] with functional options and started with
// [Board.Start]. The typical lifecycle is:
//
//	notif, _ := signalboard.NewSource("http://192.168.8.10:5001/api/notifications")
//	sig, _ := signalboard.NewSource("http://192.168.8.10:5001/api/signal-strength")
//	b, err := signalboard.New(
//	    signalboard.WithNotifications(notif),
//	    signalboard.WithSignal(sig),
//	)
//	if err != nil {
//	    slog.Error("failed to create signalboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
type Board struct {
	title         string
	notifications *Source
	signal        *Source
	port          int
	logger        *slog.Logger
	countElement  string
	indicators    Indicators
	bars          int
	page          *page.Document
	targets       []RenderTarget
	pollCallbacks []func(PollResult)
	mirrors       []Mirror
}

// New creates a new [Board] with the given options.
//
// At least one of [WithNotifications] or [WithSignal] is required. Other
// options have defaults:
//   - Notification interval: 5 seconds
//   - Signal interval: 1 second
//   - Port: 8080
//   - Count element: "notif-count"
//   - Indicators: "#signal-bars .bar", toggling "active", 5 bars
//
// Returns an error if no poller is configured or if any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port:         defaultPort,
		countElement: DefaultCountElement,
		indicators:   DefaultIndicators,
		bars:         defaultBars,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.notifications == nil && cfg.signal == nil {
		return nil, errors.New("at least one of notifications or signal source is required")
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	if cfg.noDashboard && len(cfg.targets) == 0 && len(cfg.mirrors) == 0 {
		return nil, errors.New("dashboard disabled but no render target or mirror configured")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Board{
		title:         cfg.title,
		notifications: cfg.notifications,
		signal:        cfg.signal,
		port:          cfg.port,
		logger:        logger,
		countElement:  cfg.countElement,
		indicators:    cfg.indicators,
		bars:          cfg.bars,
		pollCallbacks: cfg.pollCallbacks,
		mirrors:       cfg.mirrors,
	}

	if !cfg.noDashboard {
		doc := page.NewDocument()
		doc.AddText(cfg.countElement, "")
		doc.AddIndicators(cfg.indicators.Container, cfg.indicators.Member, cfg.bars)
		b.page = doc
		b.targets = append(b.targets, doc)
	}
	b.targets = append(b.targets, cfg.targets...)

	return b, nil
}

// Start begins polling and serving the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// Both pollers run once immediately and then on their own intervals; a
// failed poll is logged and the previous value stays on display.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	tasks := b.tasks()

	b.logger.Info("signalboard starting", "pollers", len(tasks))
	for _, t := range tasks {
		b.logger.Info("poller configured", "poller", t.Name, "url", t.URL, "interval", t.Interval.String())
	}

	if ctx.Err() != nil {
		return nil
	}

	scheduler := poller.NewScheduler(tasks, b.logger)
	scheduler.Start(ctx)

	// track the results consumer goroutine to ensure clean shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			b.handleResult(ctx, result)
		}
	}()

	cleanup := func() {
		scheduler.Stop() // closes results channel
		wg.Wait()
	}

	if b.page != nil {
		httpServer := server.NewServer(b.page, b.layout(), b.port, dashboard.Assets, b.logger)
		if err := httpServer.Start(ctx); err != nil {
			cleanup()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))
	}

	<-ctx.Done()
	cleanup()
	b.logger.Info("signalboard stopped")
	return nil
}

// handleResult logs a result, hands it to callbacks and feeds mirrors.
func (b *Board) handleResult(ctx context.Context, result poller.Result) {
	logAttrs := []any{
		"poller", result.Task,
		"url", result.URL,
		"seq", result.Seq,
		"latency_ms", result.Latency.Milliseconds(),
	}
	switch {
	case result.Error != nil:
		var f *poller.Failure
		if errors.As(result.Error, &f) {
			logAttrs = append(logAttrs, "kind", string(f.Kind))
		}
		b.logger.Warn("poll failed", append(logAttrs, "error", result.Error.Error())...)
	case result.Stale:
		b.logger.Debug("stale poll discarded", append(logAttrs, "value", result.Value)...)
	default:
		b.logger.Debug("poll completed", append(logAttrs, "value", result.Value)...)
	}

	public := toPollResult(result)

	for _, cb := range b.pollCallbacks {
		invokeCallbackSafe(cb, public, b.logger)
	}

	if !public.Rendered() || ctx.Err() != nil {
		return
	}
	for _, m := range b.mirrors {
		if err := m.Publish(ctx, public); err != nil {
			b.logger.Warn("mirror publish failed", "poller", public.Poller, "error", err)
		}
	}
}

// tasks converts the configured sources to scheduler tasks.
func (b *Board) tasks() []poller.Task {
	var tasks []poller.Task

	if src := b.notifications; src != nil {
		tasks = append(tasks, b.task(PollerNotifications, *src, defaultNotificationInterval, CountExtractor,
			func(v int) {
				state := NotificationState{Count: v}
				for _, t := range b.targets {
					RenderNotifications(t, b.countElement, state)
				}
			}))
	}

	if src := b.signal; src != nil {
		tasks = append(tasks, b.task(PollerSignal, *src, defaultSignalInterval, StrengthExtractor,
			func(v int) {
				state := SignalState{Strength: v}
				for _, t := range b.targets {
					n := RenderSignal(t, b.indicators, state)
					b.logger.Debug("signal rendered", "strength", v, "active", ActiveIndicators(v, n), "indicators", n)
				}
			}))
	}

	return tasks
}

func (b *Board) task(name string, src Source, interval time.Duration, extract IntExtractor, apply func(int)) poller.Task {
	if src.interval > 0 {
		interval = src.interval
	}
	if src.extractor != nil {
		extract = src.extractor
	}
	return poller.Task{
		Name:     name,
		URL:      src.url,
		Method:   src.method,
		Headers:  copyMap(src.headers),
		Timeout:  src.timeout,
		Interval: interval,
		Extract:  poller.Extractor(extract),
		Apply:    apply,
	}
}

func (b *Board) layout() server.Layout {
	return server.Layout{
		Title:     b.title,
		CountID:   b.countElement,
		Container: b.indicators.Container,
		Member:    b.indicators.Member,
		Class:     b.indicators.Class,
		Bars:      b.bars,
	}
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// Notifications returns the notification source and whether it is configured.
func (b *Board) Notifications() (Source, bool) {
	if b.notifications == nil {
		return Source{}, false
	}
	return *b.notifications, true
}

// Signal returns the signal source and whether it is configured.
func (b *Board) Signal() (Source, bool) {
	if b.signal == nil {
		return Source{}, false
	}
	return *b.signal, true
}

// toPollResult converts an internal scheduler result to the public type.
func toPollResult(r poller.Result) PollResult {
	out := PollResult{
		Poller:     r.Task,
		URL:        r.URL,
		Seq:        r.Seq,
		Value:      r.Value,
		Latency:    r.Latency,
		CheckedAt:  r.CheckedAt,
		StatusCode: r.StatusCode,
		Stale:      r.Stale,
	}
	if r.Error != nil {
		out.Value = 0
		out.Err = toPollFailure(r)
	}
	return out
}

func toPollFailure(r poller.Result) *PollFailure {
	pf := &PollFailure{
		Poller:     r.Task,
		URL:        r.URL,
		Kind:       FailureTransport,
		StatusCode: r.StatusCode,
		Err:        r.Error,
	}
	var f *poller.Failure
	if errors.As(r.Error, &f) {
		pf.Kind = FailureKind(f.Kind)
		pf.Err = f.Err
	}
	return pf
}

// invokeCallbackSafe calls a poll callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(PollResult), result PollResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("poll callback panicked",
				"panic", r,
				"poller", result.Poller,
			)
		}
	}()
	cb(result)
}
