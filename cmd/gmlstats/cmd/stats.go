package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gmlstats/internal/config"
	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/runner"
	"github.com/dbsmedya/gmlstats/internal/store"
)

var (
	statsComputeExtent       bool
	statsOnlyTopLevel        bool
	statsObjectHierarchy     bool
	statsIDs                 []string
	statsFailOnMissingSchema bool
	statsSchemas             []string
	statsNoJSONReport        bool
	statsSummaryReport       string
	statsFormat              string
	statsEncoding            string
	statsNoPrint             bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [files...]",
	Short: "Generate statistics about the content of CityGML files",
	Long: `Stats streams each input file once and counts its features, geometries and
appearances. Files, directories and glob patterns are accepted; directories are
scanned recursively for .gml, .xml and .citygml files.

A report is written next to every input file unless --no-json-report is given.
Files are processed one after the other and the first file that cannot be read
aborts the run.

Exit codes:
  0  all files analyzed, or no input file found
  3  statistics might be incomplete because XML schemas are missing
  1  the run failed or a report could not be written

Example:
  gmlstats stats --compute-extent --summary-report summary.json data/*.gml`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVarP(&statsComputeExtent, "compute-extent", "c", false,
		"Compute the extent from all geometries instead of using bounding shapes")
	statsCmd.Flags().BoolVarP(&statsOnlyTopLevel, "only-top-level", "t", false,
		"Only count top-level features")
	statsCmd.Flags().BoolVarP(&statsObjectHierarchy, "object-hierarchy", "H", false,
		"Report the hierarchy of nested features")
	statsCmd.Flags().StringSliceVar(&statsIDs, "id", nil,
		"Only analyze features with these gml:id values and everything nested in them")
	statsCmd.Flags().BoolVarP(&statsFailOnMissingSchema, "fail-on-missing-schema", "f", false,
		"Fail if an element cannot be classified because its XML schema is missing")
	statsCmd.Flags().StringSliceVarP(&statsSchemas, "schema", "s", nil,
		"Supplementary XML schema file or URL for application domain extensions")
	statsCmd.Flags().BoolVar(&statsNoJSONReport, "no-json-report", false,
		"Do not write a report next to each input file")
	statsCmd.Flags().StringVarP(&statsSummaryReport, "summary-report", "r", "",
		"Write the summary of all input files to this path")
	statsCmd.Flags().StringVar(&statsFormat, "format", "",
		"Report format (json, yaml)")
	statsCmd.Flags().StringVar(&statsEncoding, "encoding", "",
		"Character encoding of the input files, overrides the XML declaration")
	statsCmd.Flags().BoolVar(&statsNoPrint, "no-print", false,
		"Do not print the summary to the console")

	rootCmd.AddCommand(statsCmd)
}

func statsOverrides(args []string) config.Overrides {
	return config.Overrides{
		Files:               args,
		Encoding:            statsEncoding,
		ComputeExtent:       statsComputeExtent,
		OnlyTopLevel:        statsOnlyTopLevel,
		ObjectHierarchy:     statsObjectHierarchy,
		IDs:                 statsIDs,
		FailOnMissingSchema: statsFailOnMissingSchema,
		Schemas:             statsSchemas,
		NoJSONReport:        statsNoJSONReport,
		SummaryReport:       statsSummaryReport,
		Format:              statsFormat,
		NoPrint:             statsNoPrint,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	exitCode = 0

	cfg, err := loadConfig(statsOverrides(args))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := setupSignalHandler(cmd.Context(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - aborting current file", "signal", sig.String())
	})
	defer stop()

	opts := []runner.Option{runner.WithOutput(cmd.OutOrStdout(), true)}

	if cfg.Store.Enabled {
		history, err := openHistory(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer history.Close()
		opts = append(opts, runner.WithHistory(history))
	}

	result, err := runner.New(cfg, log, opts...).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Statistics run cancelled by user")
		}
		return fmt.Errorf("statistics run failed: %w", err)
	}

	exitCode = result.Outcome.ExitCode()
	return nil
}

func openHistory(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.History, error) {
	db, err := store.Connect(ctx, &cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to run history store: %w", err)
	}

	history, err := store.NewHistory(db, cfg.Store.TablePrefix, log.WithComponent("store"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := history.InitializeTables(ctx); err != nil {
		_ = history.Close()
		return nil, err
	}
	return history, nil
}
