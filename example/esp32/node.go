// Package esp32 simulates the web page served by the ESP32 fire-alarm
// sensor node, for demos and manual testing.
package esp32

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Gas thresholds used by the node firmware to pick the status span.
const (
	WarningGasLevel  = 1800
	CriticalGasLevel = 3000
	maxGasLevel      = 4095
)

const pageTemplate = `<!DOCTYPE html>
<html><head><meta charset='UTF-8'><meta http-equiv='refresh' content='5'>
<title>ESP32 Пожароизвестяване</title>
<style>.status-normal{color:green}.status-warning{color:orange}.status-critical{color:red;font-weight:bold}</style>
</head><body>
<h1>Пожароизвестителна система</h1>
<p><b>Температура:</b> %.1f &deg;C</p>
<p><b>Влажност:</b> %.1f %%</p>
<p><b>Газ/Дим (MQ-2):</b> %d</p>
<p><span class='%s'>%s</span></p>
</body></html>`

// Node holds the simulated sensor state. Readings drift on every request.
type Node struct {
	mu          sync.Mutex
	rng         *rand.Rand
	temperature float64
	humidity    float64
	gas         int
	failRate    float64
	logger      *slog.Logger
}

// NewNode creates a node with plausible indoor readings. failRate is the
// fraction of requests answered with 503.
func NewNode(failRate float64, logger *slog.Logger) *Node {
	return &Node{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		temperature: 22.5,
		humidity:    45,
		gas:         600,
		failRate:    failRate,
		logger:      logger,
	}
}

// ServeHTTP renders the node page.
func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// simulate the microcontroller's response time
	time.Sleep(time.Duration(20+n.intn(120)) * time.Millisecond)

	n.mu.Lock()
	if n.rng.Float64() < n.failRate {
		n.mu.Unlock()
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}
	n.step()
	temp, hum, gas := n.temperature, n.humidity, n.gas
	n.mu.Unlock()

	class, text := Status(gas)
	n.logger.Debug("served reading", "temperature", temp, "humidity", hum, "gas", gas, "status", class)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, pageTemplate, temp, hum, gas, class, text)
}

// Status returns the CSS class and message the firmware shows for a gas level.
func Status(gas int) (class, text string) {
	switch {
	case gas >= CriticalGasLevel:
		return "status-critical", "ОПАСНОСТ! Открит дим или газ!"
	case gas >= WarningGasLevel:
		return "status-warning", "Внимание! Повишено ниво на газ."
	default:
		return "status-normal", "Всичко е наред."
	}
}

// step advances the random walk. Caller holds mu.
func (n *Node) step() {
	n.temperature = clamp(n.temperature+n.rng.NormFloat64()*0.3, 15, 60)
	n.humidity = clamp(n.humidity+n.rng.NormFloat64()*0.8, 10, 95)

	// occasional smoke bursts, otherwise drift back toward clean air
	if n.rng.Float64() < 0.05 {
		n.gas += 800 + n.rng.Intn(1500)
	} else {
		n.gas += n.rng.Intn(120) - 80
	}
	n.gas = int(clamp(float64(n.gas), 200, maxGasLevel))
}

func (n *Node) intn(max int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rng.Intn(max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
