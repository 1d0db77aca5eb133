package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/config"
	"github.com/jpalmerr/sensorboard/internal/logging"
	"github.com/jpalmerr/sensorboard/sensor"
)

// errProbeFailed makes the command exit non-zero after printing the failure.
var errProbeFailed = errors.New("probe failed")

// probeCmd polls the node once.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Poll the sensor node once and print the result",
	Long: `Poll the sensor node exactly once and print the current values and
the history row the dashboard would show.

Exit codes:
  0 - The node answered and the page was parsed
  1 - The node was unreachable or answered with an error status

Example:
  sensorboard probe
  sensorboard probe -c sensorboard.yaml`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, logging.FormatText)
	if err != nil {
		return err
	}

	sb, err := sensorboard.New(config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create SensorBoard: %w", err)
	}

	o := sb.Probe(context.Background())
	printOutcome(cmd.OutOrStdout(), sb.URL(), o)

	if o.IsFailure() {
		return errProbeFailed
	}
	return nil
}

func printOutcome(w io.Writer, url string, o sensor.Outcome) {
	d := o.Display()
	fmt.Fprintf(w, "%s (%dms)\n", url, o.Latency.Milliseconds())
	fmt.Fprintf(w, "  %s\n", d.Temperature)
	fmt.Fprintf(w, "  %s\n", d.Humidity)
	fmt.Fprintf(w, "  %s\n", d.GasLevel)
	fmt.Fprintf(w, "  %s [%s]\n", d.Status, o.Category())
}
