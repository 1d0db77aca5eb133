// Package publish republishes tick outcomes to an MQTT broker.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jpalmerr/sensorboard/sensor"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	disconnectWait = 250 // milliseconds
	qos            = 0
)

// Config describes the broker connection.
type Config struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string

	// Topic receives one message per tick.
	Topic string

	// ClientID identifies this publisher to the broker.
	ClientID string
}

// Message is the JSON payload published for every tick.
type Message struct {
	TickID      string          `json:"tick_id"`
	Seq         uint64          `json:"seq"`
	Timestamp   time.Time       `json:"timestamp"`
	Failed      bool            `json:"failed"`
	Temperature string          `json:"temperature,omitempty"`
	Humidity    string          `json:"humidity,omitempty"`
	GasLevel    string          `json:"gas_level,omitempty"`
	Category    sensor.Category `json:"category"`
	Status      string          `json:"status"`
	Color       sensor.Color    `json:"color"`
	Reason      string          `json:"reason,omitempty"`
}

// NewMessage converts an outcome to its published form.
func NewMessage(o sensor.Outcome) Message {
	msg := Message{
		TickID:    o.TickID,
		Seq:       o.Seq,
		Timestamp: o.Timestamp(),
		Category:  o.Category(),
	}

	if o.Failure != nil {
		msg.Failed = true
		msg.Reason = o.Failure.Reason
		msg.Status = o.Failure.Reason
		msg.Color = sensor.ErrorColor
		return msg
	}

	if o.Reading != nil {
		msg.Temperature = o.Reading.Temperature
		msg.Humidity = o.Reading.Humidity
		msg.GasLevel = o.Reading.GasLevel
		msg.Status = o.Reading.StatusText
		msg.Color = sensor.ColorFor(o.Reading.Category)
	}
	return msg
}

// Publisher sends outcomes to a single MQTT topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

// Connect dials the broker and returns a ready [Publisher].
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt topic is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", cfg.Broker, "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	logger.Info("connected to mqtt broker", "broker", cfg.Broker, "topic", cfg.Topic)
	return New(client, cfg.Topic, logger), nil
}

// New wraps an already connected client.
func New(client mqtt.Client, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, logger: logger}
}

// Present publishes one outcome. Publish errors are logged, never returned:
// a broker outage must not stall the tick loop.
func (p *Publisher) Present(o sensor.Outcome) {
	payload, err := json.Marshal(NewMessage(o))
	if err != nil {
		p.logger.Error("failed to marshal outcome", "tick_id", o.TickID, "error", err)
		return
	}

	token := p.client.Publish(p.topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warn("mqtt publish timed out", "topic", p.topic, "tick_id", o.TickID)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warn("mqtt publish failed", "topic", p.topic, "tick_id", o.TickID, "error", err)
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(disconnectWait)
}
