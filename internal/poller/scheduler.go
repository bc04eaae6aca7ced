package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// FailureKind classifies why an invocation produced no rendered value.
type FailureKind string

const (
	// FailureTransport covers request errors, timeouts and non-2xx responses.
	FailureTransport FailureKind = "transport"

	// FailureParse covers bodies the task's extractor rejected.
	FailureParse FailureKind = "parse"

	// FailureRender covers a panic raised while applying a value.
	FailureRender FailureKind = "render"
)

// Failure is the error carried by a failed [Result].
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Extractor reads the polled integer out of a response body.
type Extractor func(body []byte) (int, error)

// Task describes one repeating poller.
type Task struct {
	// Name identifies the task in results and logs. Must be unique.
	Name string

	// URL is the resource to poll.
	URL string

	// Method is the HTTP method. Empty defaults to GET.
	Method string

	// Headers are sent with every request.
	Headers map[string]string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// Interval is the period between invocations. A task with a zero
	// interval runs once.
	Interval time.Duration

	// Extract turns a response body into the task's value.
	Extract Extractor

	// Apply renders a value. Calls for one task are serialized. May be nil.
	Apply func(value int)
}

// Result holds the outcome of one task invocation.
type Result struct {
	// Task is the name of the task that produced the result.
	Task string

	// URL is the polled resource.
	URL string

	// Seq is the invocation's sequence number, starting at 1 per task.
	Seq uint64

	// Value is the extracted value. Meaningless when Error is set.
	Value int

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// CheckedAt is when the invocation finished.
	CheckedAt time.Time

	// StatusCode is the HTTP status, zero if no response was received.
	StatusCode int

	// Stale is set when a later invocation had already been applied, so
	// this value was discarded without rendering.
	Stale bool

	// Error is a *Failure, or nil on success.
	Error error
}

// taskState tracks sequencing for one task.
type taskState struct {
	next atomic.Uint64

	mu      sync.Mutex
	applied uint64
}

// Scheduler runs each [Task] as its own repeating loop under one
// cancellable handle.
//
// Every task is invoked immediately on [Scheduler.Start] and then once per
// interval. Each invocation runs in its own goroutine, so a slow request
// never delays the next tick and invocations of one task may overlap. Values
// are applied only if no later-numbered invocation of the same task has
// been applied already; late arrivals are reported as stale.
//
// All lifecycle methods are safe for concurrent use.
type Scheduler struct {
	tasks   []Task
	states  map[string]*taskState
	client  *Client
	results chan Result
	logger  *slog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewScheduler creates a [Scheduler] for tasks. Task names must be unique.
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop] or by cancelling the context given to Start.
func NewScheduler(tasks []Task, logger *slog.Logger) *Scheduler {
	states := make(map[string]*taskState, len(tasks))
	for _, t := range tasks {
		states[t.Name] = &taskState{}
	}
	return &Scheduler{
		tasks:   tasks,
		states:  states,
		client:  NewClient(),
		results: make(chan Result, 4*len(tasks)+1),
		logger:  logger,
	}
}

// Results returns the channel that receives every invocation's [Result].
//
// The channel is closed once the scheduler has stopped and all in-flight
// invocations have finished. Consumers must drain it.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Start launches one loop per task and returns immediately.
//
// If ctx is nil, context.Background() is used. Start is idempotent, and a
// no-op after Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(len(s.tasks))
	for _, t := range s.tasks {
		go s.loop(pollCtx, t, s.states[t.Name])
	}
	s.mu.Unlock()

	// close results once every loop and invocation is done
	go func() {
		<-pollCtx.Done()
		s.wg.Wait()
		s.closeOnce.Do(func() { close(s.results) })
	}()
}

// Stop cancels all loops and waits for in-flight invocations.
//
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.client.Close()

	s.closeOnce.Do(func() { close(s.results) })
}

// loop invokes t immediately and then on every tick until ctx is done.
func (s *Scheduler) loop(ctx context.Context, t Task, st *taskState) {
	defer s.wg.Done()

	s.spawn(ctx, t, st)

	if t.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawn(ctx, t, st)
		}
	}
}

// spawn runs one invocation in its own goroutine. The caller's wg slot
// keeps the counter positive while we add.
func (s *Scheduler) spawn(ctx context.Context, t Task, st *taskState) {
	seq := st.next.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.emit(ctx, s.invoke(ctx, t, st, seq))
	}()
}

// invoke polls t and, on success, applies the value unless it is stale.
func (s *Scheduler) invoke(ctx context.Context, t Task, st *taskState, seq uint64) Result {
	value, resp, err := s.poll(ctx, t)

	result := Result{
		Task:       t.Name,
		URL:        t.URL,
		Seq:        seq,
		Value:      value,
		Latency:    resp.Latency,
		StatusCode: resp.StatusCode,
		Error:      err,
	}

	if err == nil {
		result.Stale, result.Error = s.apply(t, st, seq, value)
	}

	result.CheckedAt = time.Now()
	return result
}

// poll fetches t and extracts its value. It has no rendering side effects.
// The returned error is nil or a *Failure.
func (s *Scheduler) poll(ctx context.Context, t Task) (int, Response, error) {
	resp := s.client.Fetch(ctx, Request{
		Method:  t.Method,
		URL:     t.URL,
		Headers: t.Headers,
		Timeout: t.Timeout,
	})

	if resp.Error != nil {
		return 0, resp, &Failure{Kind: FailureTransport, StatusCode: resp.StatusCode, Err: resp.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, resp, &Failure{
			Kind:       FailureTransport,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	if t.Extract == nil {
		return 0, resp, &Failure{Kind: FailureParse, StatusCode: resp.StatusCode, Err: errors.New("no extractor configured")}
	}

	var value int
	var extractErr error
	if err := s.recovered("extractor", t.Name, func() {
		value, extractErr = t.Extract(resp.Body)
	}); err != nil {
		extractErr = err
	}
	if extractErr != nil {
		return 0, resp, &Failure{Kind: FailureParse, StatusCode: resp.StatusCode, Err: extractErr}
	}

	return value, resp, nil
}

// apply renders value under the task's lock unless a later invocation has
// already been applied.
func (s *Scheduler) apply(t Task, st *taskState, seq uint64, value int) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if seq < st.applied {
		return true, nil
	}
	if t.Apply != nil {
		if err := s.recovered("render", t.Name, func() { t.Apply(value) }); err != nil {
			return false, &Failure{Kind: FailureRender, Err: err}
		}
	}
	st.applied = seq
	return false, nil
}

// recovered runs fn, converting a panic into an error. The stack trace is
// logged with a correlation ID that the returned error carries.
func (s *Scheduler) recovered(stage, task string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error(stage+" panic",
				"correlation_id", correlationID,
				"poller", task,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%s panic (correlation_id: %s)", stage, correlationID)
		}
	}()
	fn()
	return nil
}

// emit delivers r unless the scheduler is shutting down.
func (s *Scheduler) emit(ctx context.Context, r Result) {
	if ctx.Err() != nil {
		return
	}
	select {
	case s.results <- r:
	case <-ctx.Done():
	}
}
