// Package config provides YAML configuration parsing for SensorBoard.
//
// This package enables running SensorBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// Without a file, [Default] gives the compiled-in values.
//
// Example configuration:
//
//	address: ${ESP32_ADDRESS:-172.20.10.3}
//	refresh_interval: 5s
//
//	title: Склад 3
//	log_level: info
//	log_file: sensorboard.log
//	web_port: 8090
//
//	mqtt:
//	  broker: tcp://localhost:1883
//	  topic: sensorboard/readings
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/internal/logging"
)

// minRefreshInterval is the minimum allowed refresh interval.
// This prevents hammering the node, which serves one client at a time.
const minRefreshInterval = 1 * time.Second

// DefaultLogFile receives log lines while the terminal UI owns the screen.
const DefaultLogFile = "sensorboard.log"

// Config is the root configuration structure for SensorBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Address is the sensor node's host, host:port or http URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	// Defaults to 172.20.10.3.
	Address string `yaml:"address"`

	// RefreshInterval is the time between ticks.
	// Accepts duration strings like "5s", "1m". Defaults to 5s.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// Title is the web mirror title. Defaults to "SensorBoard" if not set.
	Title string `yaml:"title"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// LogFile receives logs in terminal UI mode. Defaults to sensorboard.log.
	LogFile string `yaml:"log_file"`

	// WebPort enables the read-only web mirror. Zero disables it.
	WebPort int `yaml:"web_port"`

	// MQTT enables republishing readings when Broker is set.
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig configures the optional MQTT republisher.
type MQTTConfig struct {
	// Broker is the broker URL (tcp://, ssl://, ws:// or wss://).
	// Supports environment variable substitution.
	Broker string `yaml:"broker"`

	// Topic receives one JSON message per tick.
	Topic string `yaml:"topic"`

	// ClientID identifies the publisher to the broker.
	ClientID string `yaml:"client_id"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Address, Title, LogFile and the MQTT
// settings. Defaults are applied to every unset field.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = sensorboard.DefaultAddress
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = Duration(sensorboard.DefaultRefreshInterval)
	}
	if c.LogLevel == "" {
		c.LogLevel = logging.DefaultLevel
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.MQTT.Enabled() && c.MQTT.Topic == "" {
		c.MQTT.Topic = "sensorboard/readings"
	}
}

func (c *Config) expand() error {
	fields := []struct {
		name string
		val  *string
	}{
		{"address", &c.Address},
		{"title", &c.Title},
		{"log_file", &c.LogFile},
		{"mqtt.broker", &c.MQTT.Broker},
		{"mqtt.topic", &c.MQTT.Topic},
		{"mqtt.client_id", &c.MQTT.ClientID},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.val)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.val = expanded
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := sensorboard.NodeURL(c.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}

	if c.RefreshInterval.Duration() < minRefreshInterval {
		return fmt.Errorf("refresh_interval must be at least %s, got %s", minRefreshInterval, c.RefreshInterval.Duration())
	}

	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port must be between 0 and 65535, got %d", c.WebPort)
	}

	if c.MQTT.Enabled() {
		u, err := url.Parse(c.MQTT.Broker)
		if err != nil {
			return fmt.Errorf("mqtt.broker: invalid url: %w", err)
		}
		switch u.Scheme {
		case "tcp", "mqtt", "ssl", "tls", "ws", "wss":
		default:
			return fmt.Errorf("mqtt.broker scheme must be tcp, ssl, ws or wss, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("mqtt.broker %q has no host", c.MQTT.Broker)
		}
	} else if c.MQTT.Topic != "" || c.MQTT.ClientID != "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is configured")
	}

	return nil
}
