package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/example/esp32"
	"github.com/jpalmerr/sensorboard/sensor"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// start a simulated node (see esp32/node.go)
	go func() {
		srv := &http.Server{
			Addr:              ":9998",
			Handler:           esp32.NewNode(0.05, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("mock node error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	sb, err := sensorboard.New(
		sensorboard.WithAddress("localhost:9998"),
		sensorboard.WithRefreshInterval(2*time.Second),
		sensorboard.WithWebPort(8090),
		sensorboard.WithTitle("SensorBoard Demo"),
		sensorboard.WithLogger(logger),
		// print every history row
		sensorboard.WithPresenter(sensorboard.PresenterFunc(func(o sensor.Outcome) {
			r := o.Row()
			fmt.Printf("%s  %6s °C  %5s %%  %4s  %s\n", r.Time, r.Temperature, r.Humidity, r.GasLevel, r.Status)
		})),
		// alert on critical readings
		sensorboard.WithOutcomeCallback(func(o sensor.Outcome) {
			if o.Category() == sensor.CategoryCritical {
				logger.Warn("ALERT: smoke or gas detected", "gas_level", o.Reading.GasLevel)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create sensorboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   SensorBoard Demo                                    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Mock ESP32 node on http://localhost:9998            ║")
	fmt.Println("  ║   Web mirror on      http://localhost:8090            ║")
	fmt.Println("  ║   Metrics on         http://localhost:8090/metrics    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sb.Start(ctx); err != nil {
		slog.Error("sensorboard error", "error", err)
		os.Exit(1)
	}
}
