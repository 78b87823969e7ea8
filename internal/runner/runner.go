// Package runner drives a statistics run: it discovers the input files,
// analyzes them one after the other, writes the reports and merges the
// per-file statistics into a summary.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/dbsmedya/gmlstats/internal/config"
	"github.com/dbsmedya/gmlstats/internal/input"
	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/report"
	"github.com/dbsmedya/gmlstats/internal/schema"
	"github.com/dbsmedya/gmlstats/internal/stats"
	"github.com/dbsmedya/gmlstats/internal/store"
)

const schemaFetchTimeout = time.Minute

// Outcome is the overall result of a run.
type Outcome int

const (
	// OutcomeOK means all files were analyzed with full schema coverage.
	OutcomeOK Outcome = iota
	// OutcomeWarnings means the statistics may be incomplete because
	// schemas were missing.
	OutcomeWarnings
	// OutcomeFailed means the run was aborted or a report could not be written.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeWarnings:
		return "warnings"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code for the outcome.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeOK:
		return 0
	case OutcomeWarnings:
		return 3
	default:
		return 1
	}
}

// Result summarizes a finished run.
type Result struct {
	Summary *stats.Statistics
	Outcome Outcome
	// Reports lists the report files written, per-file reports first.
	Reports  []string
	Duration time.Duration
}

// Runner executes statistics runs.
type Runner struct {
	cfg     *config.Config
	fs      afero.Fs
	out     io.Writer
	colors  bool
	history *store.History
	log     *logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithFs sets the filesystem input files are read from and reports are written to.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithOutput sets the writer the console summary is printed to.
func WithOutput(w io.Writer, colors bool) Option {
	return func(r *Runner) {
		r.out = w
		r.colors = colors
	}
}

// WithHistory records the run in the given store.
func WithHistory(h *store.History) Option {
	return func(r *Runner) {
		r.history = h
	}
}

// New creates a Runner for cfg.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Runner{
		cfg: cfg,
		fs:  afero.NewOsFs(),
		out: os.Stdout,
		log: log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewClassifier creates the schema classifier used for a run. Schema
// sources given as URLs are fetched with a bounded timeout.
func NewClassifier(strict bool, log *logger.Logger) *schema.Classifier {
	return schema.NewClassifier(
		schema.WithStrict(strict),
		schema.WithLogger(log),
		schema.WithHTTPClient(&http.Client{Timeout: schemaFetchTimeout}),
	)
}

// Run analyzes all input files. The configuration is validated before any
// file is opened. The first file that cannot be analyzed aborts the run and
// no summary is produced. A report that cannot be written is logged and
// fails the outcome, but the remaining files are still analyzed.
func (r *Runner) Run(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	result = &Result{Outcome: OutcomeFailed}

	if err := r.cfg.Validate(); err != nil {
		return result, err
	}

	cls := NewClassifier(r.cfg.Stats.FailOnMissingSchema, r.log.WithComponent("schema"))
	for _, location := range r.cfg.Stats.Schemas {
		if err := cls.AddSource(ctx, location); err != nil {
			return result, err
		}
		r.log.Infow("Loaded schema", "location", location)
	}

	finder := input.NewFinder(r.fs, r.cfg.Output.Suffix, r.log)
	files, err := finder.Find(r.cfg.Input.Files)
	if errors.Is(err, input.ErrNoInputFiles) {
		r.log.Warn("No input files found")
		result.Summary = stats.NewStatistics()
		result.Outcome = OutcomeOK
		result.Duration = time.Since(start)
		return result, nil
	}
	if err != nil {
		return result, err
	}

	// outputErr collects report write failures; they do not abort the run.
	var outputErr error

	var runID int64
	if r.history != nil {
		runID, err = r.history.StartRun(ctx, r.options().String())
		if err != nil {
			return result, err
		}
		defer func() {
			status, msg := store.RunStatusCompleted, ""
			switch {
			case err != nil:
				status, msg = store.RunStatusFailed, err.Error()
			case outputErr != nil:
				status, msg = store.RunStatusFailed, outputErr.Error()
			case result.Outcome == OutcomeWarnings:
				status = store.RunStatusWarnings
			}
			// The context may already be canceled; the final status is still recorded.
			if ferr := r.history.FinishRun(context.WithoutCancel(ctx), runID, status, len(files), msg); ferr != nil {
				r.log.Warnw("Failed to record run status", "run_id", runID, "error", ferr)
			}
		}()
	}

	analyzer := stats.NewAnalyzer(cls, r.options(), r.log)
	summary := stats.NewStatistics()

	r.log.Infow("Starting statistics run", "files", len(files), "strict", cls.Strict())

	for i, f := range files {
		r.log.Infow("Processing file", "file", f.Name(), "index", i+1, "total", len(files))

		s, err := analyzer.Analyze(ctx, f)
		if err != nil {
			return result, err
		}

		rep := report.FromStatistics(s)
		if r.cfg.Output.JSONReport {
			path := report.PathFor(f.Name(), r.cfg.Output.Suffix, r.cfg.Output.ReportExtension())
			r.log.Infow("Writing statistics report", "file", f.Name(), "report", path)
			if err := r.writeReport(path, rep); err != nil {
				outputErr = multierr.Append(outputErr, err)
			} else {
				result.Reports = append(result.Reports, path)
			}
		}

		if r.history != nil {
			if err := r.record(ctx, runID, f, s, rep); err != nil {
				return result, err
			}
		}

		summary.Merge(s)
	}

	result.Summary = summary
	result.Outcome = OutcomeOK
	if !summary.HasFeatures() {
		r.log.Warn("No city objects found in the input file(s)")
	}
	if summary.HasMissingSchemas() {
		r.log.Warn("The statistics might be incomplete due to missing XML schemas in the input file(s)")
		result.Outcome = OutcomeWarnings
	}

	summaryReport := report.FromStatistics(summary)
	if path := r.cfg.Output.SummaryReport; path != "" {
		r.log.Infow("Writing summary report", "report", path)
		if err := r.writeReport(path, summaryReport); err != nil {
			outputErr = multierr.Append(outputErr, err)
		} else {
			result.Reports = append(result.Reports, path)
		}
	}

	if r.cfg.Output.PrintSummary {
		report.NewPrinter(r.out, r.colors).Print(summaryReport)
	}

	if outputErr != nil {
		result.Outcome = OutcomeFailed
	}

	result.Duration = time.Since(start)
	r.log.Infow("Statistics run finished",
		"files", len(files),
		"outcome", result.Outcome.String(),
		"duration", result.Duration.String())
	return result, nil
}

// writeReport writes rep to path. A failure is logged at error level and
// returned for the caller to collect.
func (r *Runner) writeReport(path string, rep *report.Report) error {
	err := report.WriteFile(r.fs, path, rep, r.cfg.Output.Format)
	if err == nil {
		return nil
	}
	var werr *report.WriteError
	if errors.As(err, &werr) {
		r.log.Errorw("Failed to write report", "report", werr.Path, "error", werr.Err)
	} else {
		r.log.Errorw("Failed to write report", "report", path, "error", err)
	}
	return err
}

func (r *Runner) options() stats.Options {
	return stats.Options{
		ComputeExtent:   r.cfg.Stats.ComputeExtent,
		OnlyTopLevel:    r.cfg.Stats.OnlyTopLevel,
		ObjectHierarchy: r.cfg.Stats.ObjectHierarchy,
		IDs:             r.cfg.Stats.IDs,
		Encoding:        r.cfg.Input.Encoding,
		MaxDepth:        r.cfg.Input.MaxDepth,
	}
}

func (r *Runner) record(ctx context.Context, runID int64, f *input.File, s *stats.Statistics, rep *report.Report) error {
	digest, err := f.Digest()
	if err != nil {
		return fmt.Errorf("failed to compute digest of %s: %w", f.Name(), err)
	}
	size, err := f.Size()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Name(), err)
	}

	var buf bytes.Buffer
	if err := report.Encode(&buf, rep, report.FormatJSON); err != nil {
		return err
	}

	return r.history.RecordFile(ctx, runID, store.FileRecord{
		Path:           f.Name(),
		SHA256:         digest,
		Size:           size,
		Features:       rep.TotalFeatures(),
		Geometries:     rep.TotalGeometries(),
		Appearances:    rep.TotalAppearances(),
		MissingSchemas: len(s.MissingSchemas),
		Report:         buf.Bytes(),
	})
}
