package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/config"
)

// validateCmd validates a config file without polling.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a SensorBoard configuration file without polling the node.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sensorboard validate -c sensorboard.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	target, _ := sensorboard.NodeURL(cfg.Address)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Node:             %s\n", target)
	fmt.Fprintf(out, "  Refresh interval: %s\n", cfg.RefreshInterval.Duration())
	fmt.Fprintf(out, "  Log:              %s (%s)\n", cfg.LogFile, cfg.LogLevel)
	if cfg.WebPort > 0 {
		fmt.Fprintf(out, "  Web mirror:       http://localhost:%d\n", cfg.WebPort)
	} else {
		fmt.Fprintf(out, "  Web mirror:       disabled\n")
	}
	if cfg.MQTT.Enabled() {
		fmt.Fprintf(out, "  MQTT:             %s -> %s\n", cfg.MQTT.Broker, cfg.MQTT.Topic)
	} else {
		fmt.Fprintf(out, "  MQTT:             disabled\n")
	}

	return nil
}
