package config

import (
	"log/slog"

	"github.com/jpalmerr/sensorboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is passed through unchanged; presenters are added by the caller.
func BuildOptions(cfg *Config, logger *slog.Logger) []sensorboard.Option {
	opts := []sensorboard.Option{
		sensorboard.WithAddress(cfg.Address),
		sensorboard.WithRefreshInterval(cfg.RefreshInterval.Duration()),
		sensorboard.WithTitle(cfg.Title),
		sensorboard.WithWebPort(cfg.WebPort),
	}

	if logger != nil {
		opts = append(opts, sensorboard.WithLogger(logger))
	}

	if cfg.MQTT.Enabled() {
		opts = append(opts, sensorboard.WithMQTT(sensorboard.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		}))
	}

	return opts
}
