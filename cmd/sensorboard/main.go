// Package main is the entry point for the sensorboard CLI.
//
// SensorBoard can be run either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	sensorboard run [-c config.yaml]      # Show the live dashboard
//	sensorboard probe [-c config.yaml]    # Poll the node once and print the result
//	sensorboard validate -c config.yaml   # Validate configuration
//	sensorboard version                   # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard/config"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "sensorboard",
	Short: "Live dashboard for an ESP32 fire-alarm sensor node",
	Long: `SensorBoard polls an ESP32 fire-alarm sensor node and shows its
temperature, humidity, MQ-2 gas/smoke level and status, with a timestamped
history of every poll.

Quick start:
  1. Join the node's network (default address 172.20.10.3)
  2. Run: sensorboard run

Example config:
  address: 172.20.10.3
  refresh_interval: 5s
  web_port: 8090`,
	SilenceUsage: true,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sensorboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sensorboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the file named by the --config flag, or returns the
// defaults when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
