package sensorboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/sensorboard/sensor"
)

// newNode starts a fake sensor node serving nodePage.
func newNode(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, nodePage)
		}
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

// recorder collects presented outcomes.
type recorder struct {
	mu       sync.Mutex
	outcomes []sensor.Outcome
	seen     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 100)}
}

func (r *recorder) Present(o sensor.Outcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.seen:
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for outcome %d of %d", i+1, n)
		}
	}
}

func (r *recorder) all() []sensor.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sensor.Outcome(nil), r.outcomes...)
}

// runBoard starts sb and returns a stop function that waits for Start to return.
func runBoard(t *testing.T, sb *SensorBoard) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sb.Start(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Start() returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Start() did not return after context cancellation")
		}
	}
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	node := newNode(t, nil)

	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(100*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sb.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	sb, err := New(WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- sb.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return with already-cancelled context")
	}
	if len(sb.History()) != 0 {
		t.Error("no tick should run with a cancelled context")
	}
}

func TestStart_FirstTickIsImmediate(t *testing.T) {
	node := newNode(t, nil)
	rec := newRecorder()

	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(time.Hour),
		WithPresenter(rec),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	defer stop()

	rec.wait(t, 1)

	o := rec.all()[0]
	if o.IsFailure() {
		t.Fatalf("expected reading, got failure %q", o.Failure.Reason)
	}
	if o.Reading.Temperature != "23.5" || o.Category() != sensor.CategoryNormal {
		t.Errorf("unexpected reading %+v", o.Reading)
	}
}

func TestStart_EveryTickAppendsOneRow(t *testing.T) {
	node := newNode(t, nil)
	rec := newRecorder()

	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(20*time.Millisecond),
		WithPresenter(rec),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	rec.wait(t, 5)
	stop()

	presented := rec.all()
	hist := sb.History()
	if len(hist) != len(presented) {
		t.Fatalf("history has %d entries, presented %d", len(hist), len(presented))
	}
	for i, o := range hist {
		if o.Seq != uint64(i+1) {
			t.Errorf("entry %d has seq %d", i, o.Seq)
		}
		if o.TickID != presented[i].TickID {
			t.Errorf("entry %d presented out of order", i)
		}
	}
}

func TestStart_HistoryRecordedBeforePresent(t *testing.T) {
	node := newNode(t, nil)

	var sb *SensorBoard
	var mismatch atomic.Int32
	var calls atomic.Int32
	presenter := PresenterFunc(func(o sensor.Outcome) {
		calls.Add(1)
		h := sb.History()
		if len(h) == 0 || h[len(h)-1].TickID != o.TickID {
			mismatch.Add(1)
		}
	})

	var err error
	sb, err = New(
		WithAddress(node.URL),
		WithRefreshInterval(20*time.Millisecond),
		WithPresenter(presenter),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	time.Sleep(150 * time.Millisecond)
	stop()

	if calls.Load() == 0 {
		t.Fatal("presenter never called")
	}
	if mismatch.Load() != 0 {
		t.Errorf("%d presents saw an outcome not yet in history", mismatch.Load())
	}
}

func TestStart_FailureThenRecovery(t *testing.T) {
	var requests atomic.Int32
	node := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, nodePage)
	})
	rec := newRecorder()

	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(20*time.Millisecond),
		WithPresenter(rec),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	rec.wait(t, 3)
	stop()

	hist := sb.History()
	if hist[0].IsFailure() || hist[2].IsFailure() {
		t.Error("ticks 1 and 3 should be readings")
	}
	if !hist[1].IsFailure() {
		t.Fatal("tick 2 should be a failure")
	}

	row := hist[1].Row()
	if row.Status != "Грешка: Грешка при HTTP заявка: 500" {
		t.Errorf("failure row status = %q", row.Status)
	}
	if row.Temperature != "Грешка" || row.Humidity != "Грешка" || row.GasLevel != "Грешка" {
		t.Errorf("failure row values = %+v", row)
	}
	if hist[1].Display().Color != sensor.ErrorColor {
		t.Error("failure should render in the error color")
	}
	if hist[2].Display().Color != sensor.DarkGreen {
		t.Error("recovery should render in the normal color")
	}
}

func TestStart_UnreachableNode(t *testing.T) {
	node := newNode(t, nil)
	addr := node.URL
	node.Close()

	rec := newRecorder()
	sb, err := New(
		WithAddress(addr),
		WithRefreshInterval(time.Hour),
		WithTimeouts(200*time.Millisecond, 200*time.Millisecond),
		WithPresenter(rec),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	rec.wait(t, 1)
	stop()

	o := rec.all()[0]
	if !o.IsFailure() {
		t.Fatal("expected failure for unreachable node")
	}
	if !strings.HasPrefix(o.Failure.Reason, "Невъзможна връзка с ESP32: ") {
		t.Errorf("Reason = %q", o.Failure.Reason)
	}
}

func TestWithOutcomeCallback_PanicRecovered(t *testing.T) {
	node := newNode(t, nil)
	rec := newRecorder()
	var after atomic.Int32

	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(20*time.Millisecond),
		WithOutcomeCallback(func(sensor.Outcome) { panic("boom") }),
		WithOutcomeCallback(func(sensor.Outcome) { after.Add(1) }),
		WithPresenter(rec),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	rec.wait(t, 3)
	stop()

	if after.Load() < 2 {
		t.Errorf("later callback ran %d times, want at least 2", after.Load())
	}
}

func TestWithOutcomeCallback_ReceivesOutcome(t *testing.T) {
	node := newNode(t, nil)

	got := make(chan sensor.Outcome, 10)
	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(time.Hour),
		WithOutcomeCallback(func(o sensor.Outcome) { got <- o }),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	defer stop()

	select {
	case o := <-got:
		if o.TickID == "" {
			t.Error("TickID should be set")
		}
		if o.Reading == nil || o.Reading.StatusText != "Нормално" {
			t.Errorf("unexpected outcome %+v", o)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestWithOutcomeCallback_CannotRewriteHistory(t *testing.T) {
	node := newNode(t, nil)
	rec := newRecorder()

	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(time.Hour),
		WithOutcomeCallback(func(o sensor.Outcome) { o.Reading.Temperature = "999" }),
		WithPresenter(rec),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	rec.wait(t, 1)
	stop()

	history := sb.History()
	if len(history) != 1 {
		t.Fatalf("History() = %d rows, want 1", len(history))
	}
	if got := history[0].Reading.Temperature; got != "23.5" {
		t.Errorf("recorded Temperature = %q, want 23.5", got)
	}

	history[0].Reading.GasLevel = "tampered"
	if got := sb.History()[0].Reading.GasLevel; got == "tampered" {
		t.Error("mutating a History() snapshot changed the recorded row")
	}
}

func TestStart_WebMirror(t *testing.T) {
	node := newNode(t, nil)
	rec := newRecorder()

	port := freePort(t)
	sb, err := New(
		WithAddress(node.URL),
		WithRefreshInterval(time.Hour),
		WithWebPort(port),
		WithPresenter(rec),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, sb)
	defer stop()
	rec.wait(t, 1)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/history", port))
	if err != nil {
		t.Fatalf("GET /api/history: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"temperature":"23.5"`) {
		t.Errorf("history body = %s", body)
	}
}

func TestProbe(t *testing.T) {
	node := newNode(t, nil)

	sb, err := New(WithAddress(node.URL), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	o := sb.Probe(context.Background())
	if o.IsFailure() {
		t.Fatalf("Probe() failure: %s", o.Failure.Reason)
	}
	if o.Reading.GasLevel != "120" {
		t.Errorf("GasLevel = %q, want 120", o.Reading.GasLevel)
	}
	if len(sb.History()) != 0 {
		t.Error("Probe() must not record history")
	}
}
