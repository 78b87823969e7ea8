package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/gmlstats/internal/config"
	"github.com/dbsmedya/gmlstats/internal/input"
	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/runner"
	"github.com/dbsmedya/gmlstats/internal/schema"
	"github.com/dbsmedya/gmlstats/internal/store"
)

var validateSchemas []string

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate configuration and load supplementary schemas",
	Long: `Validate checks the configuration and loads every supplementary XML schema
without analyzing any file.

Checks performed:
  - Configuration syntax and value ranges
  - Supplementary schemas can be read and parsed
  - Input patterns resolve to at least one file
  - Run history store connectivity and last recorded run (if enabled)

The classified modules are printed as a table.

Example:
  gmlstats validate --config gmlstats.yaml --schema noise_ade.xsd`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringSliceVarP(&validateSchemas, "schema", "s", nil,
		"Supplementary XML schema file or URL for application domain extensions")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Overrides{Files: args, Schemas: validateSchemas})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(out, "Config file: %s\n", displayConfigFile())

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}
	fmt.Fprintf(out, "✅ Configuration is valid\n\n")

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	hasErrors := false

	cls := runner.NewClassifier(false, log.WithComponent("schema"))
	for _, location := range cfg.Stats.Schemas {
		if err := cls.AddSource(ctx, location); err != nil {
			fmt.Fprintf(out, "❌ Schema %s: %v\n", location, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(out, "✅ Schema %s loaded\n", location)
	}

	if len(cfg.Input.Files) > 0 {
		files, err := input.NewFinder(afero.NewOsFs(), cfg.Output.Suffix, log).Find(cfg.Input.Files)
		if err != nil {
			fmt.Fprintf(out, "❌ Input: %v\n", err)
			hasErrors = true
		} else {
			fmt.Fprintf(out, "✅ Input files: %d\n", len(files))
		}
	}

	if cfg.Store.Enabled {
		history, err := openHistory(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(out, "❌ Store: %v\n", err)
			hasErrors = true
		} else {
			fmt.Fprintf(out, "✅ Store %s:%d/%s reachable\n", cfg.Store.Host, cfg.Store.Port, cfg.Store.Database)
			run, err := history.LastRun(ctx)
			if err != nil {
				fmt.Fprintf(out, "❌ Store: %v\n", err)
				hasErrors = true
			} else {
				fmt.Fprintf(out, "   Last run: %s\n", describeRun(run))
			}
			_ = history.Close()
		}
	}

	printModules(cmd, cls.Modules())

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintln(out, "=== Validation Complete ===")
	return nil
}

func printModules(cmd *cobra.Command, modules []*schema.Module) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n--- Modules: %d ---\n", len(modules))

	width := 0
	for _, m := range modules {
		if len(m.Prefix) > width {
			width = len(m.Prefix)
		}
	}
	for _, m := range modules {
		var notes []string
		if m.Version != "" {
			notes = append(notes, "CityGML "+m.Version)
		}
		if m.Builtin {
			notes = append(notes, "built-in")
		} else {
			notes = append(notes, fmt.Sprintf("%s, %d elements", m.Location, m.Elements()))
		}
		fmt.Fprintf(out, "  %-*s  %s (%s)\n", width, m.Prefix, m.Namespace, strings.Join(notes, ", "))
	}
	fmt.Fprintln(out)
}

// describeRun renders a recorded run as one line.
func describeRun(run *store.Run) string {
	if run == nil {
		return "none recorded"
	}
	line := fmt.Sprintf("#%d %s, %d file(s), started %s",
		run.ID, run.Status, run.FileCount, run.StartedAt.Format(time.RFC3339))
	if run.Error != "" {
		line += ": " + run.Error
	}
	return line
}

func displayConfigFile() string {
	if f := GetConfigFile(); f != "" {
		return f
	}
	return "(defaults)"
}
