package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/config"
	"github.com/jpalmerr/sensorboard/internal/logging"
	"github.com/jpalmerr/sensorboard/internal/tui"
	"github.com/jpalmerr/sensorboard/sensor"
)

const (
	shutdownTimeout = 10 * time.Second
)

// runCmd shows the live dashboard.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show the live sensor dashboard",
	Long: `Poll the sensor node and show the live dashboard.

On a terminal, the dashboard takes over the screen and logs go to the
configured log file. Press q or Ctrl+C to quit.

When stdout is not a terminal (or with --headless), every poll is printed
as a log line on stderr instead.

Example:
  sensorboard run
  sensorboard run -c sensorboard.yaml
  sensorboard run --headless > /dev/null`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
	runCmd.Flags().Bool("headless", false, "print polls as log lines instead of the terminal UI")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	headless, _ := cmd.Flags().GetBool("headless")
	if !headless && tui.IsTerminal() {
		return runTUI(ctx, cfg)
	}
	return runHeadless(ctx, cfg)
}

// runTUI shows the dashboard; the screen belongs to the UI, so logs go to a file.
func runTUI(ctx context.Context, cfg *config.Config) error {
	f, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	logger, err := logging.New(f, cfg.LogLevel, logging.FormatLogfmt)
	if err != nil {
		return err
	}

	if err := tui.Run(ctx, config.BuildOptions(cfg, logger)...); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(os.Stderr, cfg.LogLevel, logging.FormatText)
	if err != nil {
		return err
	}

	opts := append(config.BuildOptions(cfg, logger), sensorboard.WithPresenter(logPresenter(logger)))
	sb, err := sensorboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create SensorBoard: %w", err)
	}

	logger.Info("polling sensor node",
		"url", sb.URL(),
		"refresh_interval", sb.RefreshInterval().String(),
	)

	// start polling - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- sb.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("sensorboard error: %w", err)
		}
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("sensorboard error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// logPresenter prints every history row as one log line.
func logPresenter(logger *slog.Logger) sensorboard.Presenter {
	return sensorboard.PresenterFunc(func(o sensor.Outcome) {
		row := o.Row()
		logger.Info("reading",
			"time", row.Time,
			"temperature", row.Temperature,
			"humidity", row.Humidity,
			"gas_level", row.GasLevel,
			"status", row.Status,
			"category", row.Category,
		)
	})
}
