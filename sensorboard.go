package sensorboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/sensorboard/dashboard"
	"github.com/jpalmerr/sensorboard/internal/history"
	"github.com/jpalmerr/sensorboard/internal/metrics"
	"github.com/jpalmerr/sensorboard/internal/poller"
	"github.com/jpalmerr/sensorboard/internal/publish"
	"github.com/jpalmerr/sensorboard/internal/server"
	"github.com/jpalmerr/sensorboard/sensor"
)

const (
	// DefaultAddress is the sensor node's address on the ESP32 hotspot network.
	DefaultAddress = "172.20.10.3"

	// DefaultRefreshInterval is the time between ticks.
	DefaultRefreshInterval = 5 * time.Second

	// DefaultConnectTimeout bounds dialing the node.
	DefaultConnectTimeout = 3000 * time.Millisecond

	// DefaultReadTimeout bounds waiting for the node's response.
	DefaultReadTimeout = 3000 * time.Millisecond

	defaultMQTTTopic    = "sensorboard/readings"
	defaultMQTTClientID = "sensorboard"
)

// SensorBoard is the main orchestrator: it polls the sensor node, records
// every outcome in the history and hands it to the presenters.
//
// SensorBoard is created using [New] with functional options and started
// with [SensorBoard.Start]. The typical lifecycle is:
//
//	sb, err := sensorboard.New(sensorboard.WithPresenter(p))
//	if err != nil {
//	    slog.Error("failed to create sensorboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sb.Start(ctx) // blocks until context cancelled
type SensorBoard struct {
	address          string
	url              string
	refreshInterval  time.Duration
	connectTimeout   time.Duration
	readTimeout      time.Duration
	extractor        Extractor
	title            string
	webPort          int
	mqtt             *MQTTConfig
	presenters       []Presenter
	outcomeCallbacks []func(sensor.Outcome)
	logger           *slog.Logger

	history *history.MemoryLog
	metrics *metrics.Metrics
}

// New creates a new [SensorBoard] instance with the given options.
//
// Every option has a default:
//   - Address: 172.20.10.3
//   - Refresh interval: 5 seconds
//   - Connect and read timeouts: 3 seconds each
//   - Extractor: [DefaultExtractor]
//   - Web mirror and MQTT: disabled
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*SensorBoard, error) {
	cfg := &sbConfig{
		address:         DefaultAddress,
		refreshInterval: DefaultRefreshInterval,
		connectTimeout:  DefaultConnectTimeout,
		readTimeout:     DefaultReadTimeout,
		extractor:       DefaultExtractor,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	target, err := NodeURL(cfg.address)
	if err != nil {
		return nil, err
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SensorBoard{
		address:          cfg.address,
		url:              target,
		refreshInterval:  cfg.refreshInterval,
		connectTimeout:   cfg.connectTimeout,
		readTimeout:      cfg.readTimeout,
		extractor:        cfg.extractor,
		title:            cfg.title,
		webPort:          cfg.webPort,
		mqtt:             cfg.mqtt,
		presenters:       cfg.presenters,
		outcomeCallbacks: cfg.outcomeCallbacks,
		logger:           logger,
		history:          history.NewMemoryLog(),
		metrics:          metrics.New(),
	}, nil
}

// Start begins polling the node and blocks until the context is cancelled.
//
// During execution:
//
//   - The node is polled immediately, then once per refresh interval
//   - Every outcome is appended to the history, then presented
//   - The web mirror serves on the configured port, if enabled
//   - Outcomes are republished to MQTT, if enabled
//
// Returns nil on graceful shutdown. Returns an error if the web mirror or
// the MQTT connection fails to start.
func (sb *SensorBoard) Start(ctx context.Context) error {
	sb.logger.Info("sensorboard starting", "url", sb.url, "interval", sb.refreshInterval.String())

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	var pub *publish.Publisher
	if sb.mqtt != nil {
		p, err := publish.Connect(publish.Config{
			Broker:   sb.mqtt.Broker,
			Topic:    sb.mqtt.Topic,
			ClientID: sb.mqtt.ClientID,
		}, sb.logger)
		if err != nil {
			return fmt.Errorf("failed to start mqtt publisher: %w", err)
		}
		pub = p
		defer pub.Close()
	}

	if sb.webPort > 0 {
		httpServer := server.NewServer(sb.history, sb.webPort, dashboard.Assets, sb.title, sb.refreshInterval, sb.metrics.Handler(), sb.logger)
		if err := httpServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		sb.logger.Info("web mirror available", "url", fmt.Sprintf("http://localhost:%d", sb.webPort))
	}

	scheduler := sb.newScheduler()
	scheduler.Start(ctx)

	// track the results consumer goroutine to ensure clean shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for o := range scheduler.Results() {
			sb.handle(o, pub)
		}
	}()

	<-ctx.Done()
	scheduler.Stop() // closes results channel
	wg.Wait()        // wait for all results to be processed
	sb.logger.Info("sensorboard stopped", "ticks", sb.history.Len())
	return nil
}

// Probe runs exactly one tick and returns its outcome. The outcome is not
// recorded in the history or shown to presenters.
func (sb *SensorBoard) Probe(ctx context.Context) sensor.Outcome {
	scheduler := sb.newScheduler()
	defer scheduler.Stop()
	return scheduler.Poll(ctx)
}

func (sb *SensorBoard) newScheduler() *poller.Scheduler {
	target := poller.Target{
		URL:       sb.url,
		Extractor: poller.Extractor(sb.extractor),
	}
	client := poller.NewClient(sb.connectTimeout, sb.readTimeout)
	return poller.NewScheduler(target, sb.refreshInterval, client, sb.logger)
}

// handle processes one tick: history first, so presenters and callbacks
// always observe an outcome that is already recorded.
func (sb *SensorBoard) handle(o sensor.Outcome, pub *publish.Publisher) {
	n := sb.history.Append(o)
	sb.metrics.Observe(o, n)

	if pub != nil {
		pub.Present(o.Clone())
	}

	for _, p := range sb.presenters {
		invokeSafe("presenter", p.Present, o, sb.logger)
	}
	for _, cb := range sb.outcomeCallbacks {
		invokeSafe("outcome callback", cb, o, sb.logger)
	}

	// DEBUG level for success to reduce noise
	logAttrs := []any{
		"tick_id", o.TickID,
		"seq", o.Seq,
		"latency_ms", o.Latency.Milliseconds(),
		"history_rows", n,
	}
	if o.Failure != nil {
		sb.logger.Warn("tick failed", append(logAttrs,
			"reason", o.Failure.Reason,
			"status_code", o.Failure.StatusCode,
		)...)
		return
	}
	sb.logger.Debug("tick completed", append(logAttrs,
		"category", o.Category(),
		"temperature", o.Reading.Temperature,
		"humidity", o.Reading.Humidity,
		"gas_level", o.Reading.GasLevel,
	)...)
}

// History returns a snapshot of every outcome so far, oldest first.
func (sb *SensorBoard) History() []sensor.Outcome {
	return sb.history.Entries()
}

// Address returns the configured node address.
func (sb *SensorBoard) Address() string {
	return sb.address
}

// URL returns the page fetched on every tick.
func (sb *SensorBoard) URL() string {
	return sb.url
}

// RefreshInterval returns the configured time between ticks.
func (sb *SensorBoard) RefreshInterval() time.Duration {
	return sb.refreshInterval
}

// WebPort returns the web mirror port, or zero if disabled.
func (sb *SensorBoard) WebPort() int {
	return sb.webPort
}

// Title returns the configured web mirror title.
func (sb *SensorBoard) Title() string {
	return sb.title
}

// invokeSafe calls fn with panic recovery.
// Panics are logged but do not propagate.
func invokeSafe(kind string, fn func(sensor.Outcome), o sensor.Outcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(kind+" panicked",
				"panic", r,
				"tick_id", o.TickID,
			)
		}
	}()
	fn(o.Clone())
}

// NodeURL turns a configured address into the URL to poll. The address may
// be a bare host, a host and port, or an http URL.
func NodeURL(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.New("address cannot be empty")
	}

	raw := address
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	if u.Scheme != "http" {
		return "", fmt.Errorf("address %q must use http", address)
	}
	if u.Host == "" {
		return "", fmt.Errorf("address %q has no host", address)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
