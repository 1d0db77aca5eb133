package poller

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/sensorboard/sensor"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient() *Client {
	return NewClient(time.Second, time.Second)
}

// fixedExtractor returns the same fields for every body.
func fixedExtractor(f sensor.Fields) Extractor {
	return func(string) sensor.Fields { return f }
}

// newNode starts a test server that serves body with status code.
func newNode(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// refusedURL returns a URL nobody is listening on.
func refusedURL() string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()
	return url
}

// TestScheduler_StopBeforeStart verifies that calling Stop() on a scheduler
// that was never started does not panic and is a safe no-op.
func TestScheduler_StopBeforeStart(t *testing.T) {
	scheduler := NewScheduler(Target{URL: refusedURL()}, time.Minute, testClient(), testLogger())

	scheduler.Stop()
}

// TestScheduler_StopTwice verifies that Stop() is idempotent.
func TestScheduler_StopTwice(t *testing.T) {
	scheduler := NewScheduler(Target{URL: refusedURL()}, time.Minute, testClient(), testLogger())
	scheduler.Start(context.Background())

	scheduler.Stop()
	scheduler.Stop()
}

// TestScheduler_StopAfterStart verifies the normal lifecycle: Start followed
// by Stop results in clean shutdown with the results channel closed.
func TestScheduler_StopAfterStart(t *testing.T) {
	scheduler := NewScheduler(Target{URL: refusedURL()}, time.Minute, testClient(), testLogger())
	scheduler.Start(context.Background())

	go func() {
		for range scheduler.Results() {
		}
	}()

	time.Sleep(50 * time.Millisecond)

	scheduler.Stop()

	select {
	case _, ok := <-scheduler.Results():
		if ok {
			t.Error("expected results channel to be closed after Stop()")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for results channel to close")
	}
}

// TestScheduler_ConcurrentStartStop verifies that calling Start() and Stop()
// concurrently does not cause a race condition or panic.
func TestScheduler_ConcurrentStartStop(t *testing.T) {
	url := refusedURL()

	for i := 0; i < 100; i++ {
		scheduler := NewScheduler(Target{URL: url}, time.Minute, testClient(), testLogger())

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			scheduler.Start(context.Background())
		}()

		go func() {
			defer wg.Done()
			scheduler.Stop()
		}()

		wg.Wait()

		for range scheduler.Results() {
		}
	}
}

// TestScheduler_StartTwice verifies that Start() is idempotent and calling
// it multiple times does not spawn multiple tick loops.
func TestScheduler_StartTwice(t *testing.T) {
	node := newNode(t, http.StatusOK, "page")
	scheduler := NewScheduler(Target{URL: node.URL}, time.Hour, testClient(), testLogger())

	scheduler.Start(context.Background())
	scheduler.Start(context.Background())

	select {
	case o := <-scheduler.Results():
		if o.Seq != 1 {
			t.Errorf("first Seq = %d, want 1", o.Seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for first tick")
	}

	// a second loop would have produced another immediate tick
	select {
	case o, ok := <-scheduler.Results():
		if ok {
			t.Errorf("unexpected second outcome with Seq %d", o.Seq)
		}
	case <-time.After(100 * time.Millisecond):
	}

	scheduler.Stop()
}

// TestScheduler_ContextCancellation verifies that cancelling the parent context
// stops the scheduler gracefully.
func TestScheduler_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewScheduler(Target{URL: refusedURL()}, time.Minute, testClient(), testLogger())
	scheduler.Start(ctx)

	go func() {
		for range scheduler.Results() {
		}
	}()

	cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Stop() did not complete after parent context cancellation")
	}
}

// TestScheduler_OneOutcomePerTick verifies that ticks arrive in order with
// consecutive sequence numbers.
func TestScheduler_OneOutcomePerTick(t *testing.T) {
	node := newNode(t, http.StatusOK, "page")
	scheduler := NewScheduler(Target{URL: node.URL}, 20*time.Millisecond, testClient(), testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	for want := uint64(1); want <= 5; want++ {
		select {
		case o := <-scheduler.Results():
			if o.Seq != want {
				t.Fatalf("Seq = %d, want %d", o.Seq, want)
			}
			if o.TickID == "" {
				t.Error("TickID is empty")
			}
			if (o.Reading == nil) == (o.Failure == nil) {
				t.Fatalf("tick %d: exactly one of Reading and Failure must be set", want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for tick %d", want)
		}
	}
}

// TestScheduler_SerializedTicks verifies that a fetch slower than the interval
// never overlaps with the next one.
func TestScheduler_SerializedTicks(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(40 * time.Millisecond)
		inFlight.Add(-1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	scheduler := NewScheduler(Target{URL: server.URL}, 5*time.Millisecond, testClient(), testLogger())
	scheduler.Start(context.Background())

	var count int
	timeout := time.After(300 * time.Millisecond)
loop:
	for {
		select {
		case <-scheduler.Results():
			count++
		case <-timeout:
			break loop
		}
	}
	scheduler.Stop()

	if maxInFlight.Load() != 1 {
		t.Errorf("max concurrent fetches = %d, want 1", maxInFlight.Load())
	}
	if count == 0 {
		t.Error("no ticks completed")
	}
}

func TestScheduler_Poll_Success(t *testing.T) {
	node := newNode(t, http.StatusOK, "page")
	want := sensor.Fields{
		Temperature: "23.5",
		Humidity:    "41",
		GasLevel:    "120",
		Category:    sensor.CategoryNormal,
		StatusText:  "Нормално",
	}

	var gotBody string
	extractor := func(body string) sensor.Fields {
		gotBody = body
		return want
	}

	scheduler := NewScheduler(Target{URL: node.URL, Extractor: extractor}, time.Hour, testClient(), testLogger())
	o := scheduler.Poll(context.Background())

	if o.Failure != nil {
		t.Fatalf("Failure = %+v, want nil", o.Failure)
	}
	if o.Reading == nil {
		t.Fatal("Reading = nil")
	}
	if o.Reading.Fields != want {
		t.Errorf("Fields = %+v, want %+v", o.Reading.Fields, want)
	}
	if o.Reading.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
	if gotBody != "page" {
		t.Errorf("extractor body = %q, want %q", gotBody, "page")
	}
}

func TestScheduler_Poll_ConnectionRefused(t *testing.T) {
	scheduler := NewScheduler(Target{URL: refusedURL(), Extractor: fixedExtractor(sensor.EmptyFields())},
		time.Hour, testClient(), testLogger())

	o := scheduler.Poll(context.Background())

	if o.Reading != nil {
		t.Fatalf("Reading = %+v, want nil", o.Reading)
	}
	if o.Failure == nil {
		t.Fatal("Failure = nil")
	}
	if !strings.HasPrefix(o.Failure.Reason, "Невъзможна връзка с ESP32: ") {
		t.Errorf("Reason = %q", o.Failure.Reason)
	}
}

func TestScheduler_Poll_NonSuccessStatus(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusMovedPermanently} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer node.Close()

			extractorCalled := false
			extractor := func(string) sensor.Fields {
				extractorCalled = true
				return sensor.EmptyFields()
			}

			scheduler := NewScheduler(Target{URL: node.URL, Extractor: extractor}, time.Hour, testClient(), testLogger())
			o := scheduler.Poll(context.Background())

			if o.Failure == nil {
				t.Fatal("Failure = nil")
			}
			if o.Failure.StatusCode != code {
				t.Errorf("StatusCode = %d, want %d", o.Failure.StatusCode, code)
			}
			if !strings.HasPrefix(o.Failure.Reason, "Грешка при HTTP заявка: ") {
				t.Errorf("Reason = %q", o.Failure.Reason)
			}
			if extractorCalled {
				t.Error("extractor must not run on non-2xx responses")
			}
		})
	}
}

func TestScheduler_Poll_NilExtractor(t *testing.T) {
	node := newNode(t, http.StatusOK, "page")
	scheduler := NewScheduler(Target{URL: node.URL}, time.Hour, testClient(), testLogger())

	o := scheduler.Poll(context.Background())
	if o.Reading == nil {
		t.Fatal("Reading = nil")
	}
	if o.Reading.Fields != sensor.EmptyFields() {
		t.Errorf("Fields = %+v, want placeholders", o.Reading.Fields)
	}
}

// TestScheduler_ExtractorPanicRecovery verifies that a panicking extractor
// does not crash the scheduler and yields a failure outcome instead.
func TestScheduler_ExtractorPanicRecovery(t *testing.T) {
	node := newNode(t, http.StatusOK, "page")

	panicExtractor := func(string) sensor.Fields {
		panic("extractor panic: simulated failure")
	}

	scheduler := NewScheduler(Target{URL: node.URL, Extractor: panicExtractor}, time.Hour, testClient(), testLogger())
	scheduler.Start(context.Background())

	var o sensor.Outcome
	select {
	case o = <-scheduler.Results():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for poll result")
	}

	scheduler.Stop()

	if o.Failure == nil {
		t.Fatal("Failure = nil, want recovered panic")
	}
	if !strings.Contains(o.Failure.Reason, "correlation_id:") {
		t.Errorf("Reason = %q, want correlation id", o.Failure.Reason)
	}
	if strings.Contains(o.Failure.Reason, "simulated failure") {
		t.Errorf("Reason leaks panic value: %q", o.Failure.Reason)
	}
}
