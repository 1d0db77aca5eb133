// Standalone mock ESP32 sensor node for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mocknode
//
// Then in another terminal:
//
//	go run ./cmd/sensorboard run -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/sensorboard/example/esp32"
)

func main() {
	addr := flag.String("addr", ":9998", "listen address")
	failRate := flag.Float64("fail-rate", 0.05, "fraction of requests answered with 503")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fmt.Printf("Mock ESP32 node starting on %s\n", *addr)
	fmt.Println("Gas level drifts with occasional smoke bursts: normal → warning → critical")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           esp32.NewNode(*failRate, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
