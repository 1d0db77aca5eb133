package sensorboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/sensorboard/sensor"
)

// sbConfig holds mutable state during SensorBoard construction.
type sbConfig struct {
	address          string
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
}

// Option is a function that configures a [SensorBoard] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*sbConfig) error

// MQTTConfig enables republishing every outcome to an MQTT broker.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string

	// Topic receives one JSON message per tick. Defaults to "sensorboard/readings".
	Topic string

	// ClientID identifies the publisher. Defaults to "sensorboard".
	ClientID string
}

// WithAddress sets the sensor node to poll.
//
// The address may be a bare host ("172.20.10.3"), a host and port
// ("localhost:8081") or a full http URL. Defaults to 172.20.10.3.
//
// Returns an error if the address is empty or not an http URL.
func WithAddress(address string) Option {
	return func(cfg *sbConfig) error {
		if _, err := NodeURL(address); err != nil {
			return err
		}
		cfg.address = address
		return nil
	}
}

// WithRefreshInterval sets the time between ticks. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRefreshInterval(d time.Duration) Option {
	return func(cfg *sbConfig) error {
		if d <= 0 {
			return errors.New("refresh interval must be positive")
		}
		cfg.refreshInterval = d
		return nil
	}
}

// WithTimeouts sets the connect and read timeouts of each fetch. Both
// default to 3 seconds.
//
// Returns an error if either duration is zero or negative.
func WithTimeouts(connect, read time.Duration) Option {
	return func(cfg *sbConfig) error {
		if connect <= 0 {
			return errors.New("connect timeout must be positive")
		}
		if read <= 0 {
			return errors.New("read timeout must be positive")
		}
		cfg.connectTimeout = connect
		cfg.readTimeout = read
		return nil
	}
}

// WithExtractor replaces [DefaultExtractor].
//
// Returns an error if the extractor is nil.
func WithExtractor(e Extractor) Option {
	return func(cfg *sbConfig) error {
		if e == nil {
			return errors.New("extractor cannot be nil")
		}
		cfg.extractor = e
		return nil
	}
}

// WithTitle sets the title shown by the web mirror.
//
// If not specified, defaults to "SensorBoard".
func WithTitle(title string) Option {
	return func(cfg *sbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the SensorBoard instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithPresenter adds a [Presenter] that receives every outcome after it has
// been appended to the history.
//
// Presenters run in registration order on the consumer goroutine. A
// presenter that owns a UI must marshal the update onto its own thread.
// Nil presenters are silently ignored.
func WithPresenter(p Presenter) Option {
	return func(cfg *sbConfig) error {
		if p == nil {
			return nil
		}
		cfg.presenters = append(cfg.presenters, p)
		return nil
	}
}

// WithOutcomeCallback registers a function to be called on every tick.
//
// Callbacks run after presenters, in registration order, on a single
// goroutine. They must be non-blocking. Panics are recovered and logged.
//
// Example:
//
//	sb, err := sensorboard.New(
//	    sensorboard.WithOutcomeCallback(func(o sensor.Outcome) {
//	        if o.Category() == sensor.CategoryCritical {
//	            log.Printf("ALERT: %s", o.Reading.StatusText)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithOutcomeCallback(cb func(sensor.Outcome)) Option {
	return func(cfg *sbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.outcomeCallbacks = append(cfg.outcomeCallbacks, cb)
		return nil
	}
}

// WithWebPort enables the read-only web mirror on the given port.
//
// Zero disables the mirror, which is the default.
//
// Returns an error if the port is outside 0-65535.
func WithWebPort(port int) Option {
	return func(cfg *sbConfig) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("web port must be between 0 and 65535, got %d", port)
		}
		cfg.webPort = port
		return nil
	}
}

// WithMQTT enables republishing of every outcome.
//
// Returns an error if the broker is empty.
func WithMQTT(m MQTTConfig) Option {
	return func(cfg *sbConfig) error {
		if m.Broker == "" {
			return errors.New("mqtt broker cannot be empty")
		}
		if m.Topic == "" {
			m.Topic = defaultMQTTTopic
		}
		if m.ClientID == "" {
			m.ClientID = defaultMQTTClientID
		}
		cfg.mqtt = &m
		return nil
	}
}
