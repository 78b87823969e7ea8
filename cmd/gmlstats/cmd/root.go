package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gmlstats/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// exitCode is the process exit code of a command that finished without error.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "gmlstats",
	Short: "CityGML statistics",
	Long: `A command line tool that streams CityGML documents of any size and reports
what they contain.

Features:
  - Feature, geometry and appearance counts per type
  - LODs, appearance themes and generic attributes
  - Spatial extent from bounding shapes or computed from geometries
  - Application domain extensions via supplementary XML schemas
  - Per-file and summary reports in JSON or YAML`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command and exits with the command's exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Path to configuration file (optional)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the optional configuration file and applies the overrides.
func loadConfig(overrides config.Overrides) (*config.Config, error) {
	cfg, err := config.LoadOptional(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides.LogLevel = logLevel
	overrides.LogFormat = logFormat
	cfg.ApplyOverrides(overrides)
	return cfg, nil
}
