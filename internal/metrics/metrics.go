// Package metrics exposes tick outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/sensorboard/sensor"
)

// Outcome label values for ticks_total.
const (
	outcomeReading = "reading"
	outcomeFailure = "failure"
)

// Metrics holds the SensorBoard collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	ticksTotal    *prometheus.CounterVec
	categoryTotal *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	temperature   prometheus.Gauge
	humidity      prometheus.Gauge
	gasLevel      prometheus.Gauge
	historyRows   prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorboard_ticks_total",
			Help: "Total ticks by outcome (reading or failure).",
		}, []string{"outcome"}),
		categoryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorboard_status_total",
			Help: "Total readings by reported status category.",
		}, []string{"category"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensorboard_fetch_duration_seconds",
			Help:    "Histogram of sensor node HTTP request durations.",
			Buckets: prometheus.DefBuckets,
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorboard_temperature_celsius",
			Help: "Last extracted temperature.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorboard_humidity_percent",
			Help: "Last extracted relative humidity.",
		}),
		gasLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorboard_gas_level",
			Help: "Last extracted MQ-2 gas/smoke ADC reading (0-4095).",
		}),
		historyRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorboard_history_rows",
			Help: "Number of rows in the in-memory history.",
		}),
	}

	m.registry.MustRegister(
		m.ticksTotal,
		m.categoryTotal,
		m.fetchDuration,
		m.temperature,
		m.humidity,
		m.gasLevel,
		m.historyRows,
	)

	return m
}

// Observe records one tick outcome and the history length after appending it.
// Gauges keep their previous value when a field holds a placeholder.
func (m *Metrics) Observe(o sensor.Outcome, historyLen int) {
	if m == nil {
		return
	}

	m.fetchDuration.Observe(o.Latency.Seconds())
	m.historyRows.Set(float64(historyLen))

	if o.Reading == nil {
		m.ticksTotal.WithLabelValues(outcomeFailure).Inc()
		return
	}

	m.ticksTotal.WithLabelValues(outcomeReading).Inc()
	m.categoryTotal.WithLabelValues(o.Reading.Category.String()).Inc()
	setIfNumeric(m.temperature, o.Reading.Temperature)
	setIfNumeric(m.humidity, o.Reading.Humidity)
	setIfNumeric(m.gasLevel, o.Reading.GasLevel)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func setIfNumeric(g prometheus.Gauge, value string) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}
	g.Set(v)
}
