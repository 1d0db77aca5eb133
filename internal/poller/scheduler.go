package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/sensorboard/sensor"
)

// Human-readable failure prefixes shown on the status line.
const (
	reasonUnreachable = "Невъзможна връзка с ESP32: "
	reasonHTTPStatus  = "Грешка при HTTP заявка: "
	reasonParse       = "Грешка при обработка на отговора"
)

// Extractor turns a response body into sensor fields.
//
// This is the poller-internal version of the public extractor type, avoiding
// a dependency on the root package.
type Extractor func(body string) sensor.Fields

// Target describes the node to poll.
type Target struct {
	// URL is the page to fetch on every tick.
	URL string

	// Extractor parses the page. If nil, every field is a placeholder.
	Extractor Extractor
}

// Scheduler runs the tick loop against a single [Target].
//
// Ticks are fixed-rate and serialized: the first tick fires immediately, the
// fetch and parse run on the scheduler goroutine, and ticks that come due
// while a fetch is still in flight are dropped by the underlying
// [time.Ticker]. Each tick emits exactly one [sensor.Outcome] on the results
// channel.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	target   Target
	interval time.Duration
	client   *Client
	results  chan sensor.Outcome
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	seq      atomic.Uint64

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewScheduler creates a new polling [Scheduler].
//
// Parameters:
//   - target: the node URL and extractor
//   - interval: time between ticks
//   - client: HTTP client carrying the connect and read timeouts
//   - logger: logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler(target Target, interval time.Duration, client *Client, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		target:   target,
		interval: interval,
		client:   client,
		results:  make(chan sensor.Outcome, 1),
		logger:   logger,
	}
}

// Results returns a receive-only channel that emits one outcome per tick.
//
// The channel is closed when the scheduler stops.
func (s *Scheduler) Results() <-chan sensor.Outcome {
	return s.results
}

// Start begins the tick loop in a background goroutine.
//
// Start is non-blocking. The first tick runs immediately, then one tick per
// interval until [Scheduler.Stop] is called or the context is cancelled.
// Start is idempotent; if Stop was called before Start, Start is a no-op.
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
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		if !s.emit(pollCtx, s.Poll(pollCtx)) {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				if !s.emit(pollCtx, s.Poll(pollCtx)) {
					return
				}
			}
		}
	}()
}

// emit delivers an outcome, giving up if the context ends first.
func (s *Scheduler) emit(ctx context.Context, o sensor.Outcome) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.results <- o:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop halts the scheduler and waits for the loop to exit.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op. The results channel is closed on return.
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

	if s.client != nil {
		s.client.Close()
	}

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// Poll runs one tick synchronously: fetch, then parse.
//
// A transport error or non-2xx status yields a failure outcome; any 2xx
// response yields a reading, with placeholders for fields not found.
func (s *Scheduler) Poll(ctx context.Context) sensor.Outcome {
	tickID := uuid.NewString()
	seq := s.seq.Add(1)

	resp := s.client.Fetch(ctx, s.target.URL)
	now := time.Now()

	var out sensor.Outcome
	switch {
	case resp.Error != nil:
		out = sensor.Failed(sensor.FetchFailure{
			Reason:     reasonUnreachable + resp.Error.Error(),
			StatusCode: resp.StatusCode,
			Timestamp:  now,
		})
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		out = sensor.Failed(sensor.FetchFailure{
			Reason:     fmt.Sprintf("%s%d", reasonHTTPStatus, resp.StatusCode),
			StatusCode: resp.StatusCode,
			Timestamp:  now,
		})
	default:
		fields, err := s.safeExtract(string(resp.Body))
		if err != nil {
			out = sensor.Failed(sensor.FetchFailure{
				Reason:     err.Error(),
				StatusCode: resp.StatusCode,
				Timestamp:  now,
			})
		} else {
			out = sensor.Succeeded(sensor.NewReading(fields, now))
		}
	}

	out.TickID = tickID
	out.Seq = seq
	out.Latency = resp.Latency
	return out
}

// safeExtract calls the extractor with panic recovery.
// If the extractor panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (s *Scheduler) safeExtract(body string) (fields sensor.Fields, err error) {
	if s.target.Extractor == nil {
		return sensor.EmptyFields(), nil
	}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			s.logger.Error("extractor panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			fields = sensor.Fields{}
			err = fmt.Errorf("%s (correlation_id: %s)", reasonParse, correlationID)
		}
	}()
	return s.target.Extractor(body), nil
}
