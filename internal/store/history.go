package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/sqlutil"
)

// RunStatus is the state of a statistics run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusWarnings  RunStatus = "warnings"
	RunStatusFailed    RunStatus = "failed"
)

const createRunTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
	run_status VARCHAR(20) NOT NULL DEFAULT 'running',
	options VARCHAR(512) NOT NULL DEFAULT '',
	file_count INT NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	finished_at TIMESTAMP NULL,
	INDEX idx_status (run_status),
	INDEX idx_started (started_at)
) ENGINE=InnoDB;
`

const createFileTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	run_id BIGINT NOT NULL,
	file_path VARCHAR(1024) NOT NULL,
	sha256 CHAR(64) NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	features INT NOT NULL DEFAULT 0,
	geometries INT NOT NULL DEFAULT 0,
	appearances INT NOT NULL DEFAULT 0,
	missing_schemas INT NOT NULL DEFAULT 0,
	report JSON,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_run (run_id),
	INDEX idx_sha256 (sha256),
	FOREIGN KEY (run_id) REFERENCES %s(run_id) ON DELETE CASCADE
) ENGINE=InnoDB;
`

// Run is a recorded statistics run.
type Run struct {
	ID         int64
	Status     RunStatus
	Options    string
	FileCount  int
	Error      string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// FileRecord is the result of one analyzed file.
type FileRecord struct {
	Path           string
	SHA256         string
	Size           int64
	Features       int
	Geometries     int
	Appearances    int
	MissingSchemas int
	Report         []byte // encoded JSON report
}

// History records statistics runs and their per-file results.
type History struct {
	db        *sql.DB
	runTable  string
	fileTable string
	logger    *logger.Logger
}

// NewHistory creates a History using tables named with the given prefix.
func NewHistory(db *sql.DB, tablePrefix string, log *logger.Logger) (*History, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	runTable, err := sqlutil.TableName(tablePrefix, "run")
	if err != nil {
		return nil, err
	}
	fileTable, err := sqlutil.TableName(tablePrefix, "file")
	if err != nil {
		return nil, err
	}

	return &History{
		db:        db,
		runTable:  runTable,
		fileTable: fileTable,
		logger:    log,
	}, nil
}

// InitializeTables creates the history tables if they don't exist.
func (h *History) InitializeTables(ctx context.Context) error {
	h.logger.Debug("Initializing run history tables")

	if _, err := h.db.ExecContext(ctx, fmt.Sprintf(createRunTableSQL, h.runTable)); err != nil {
		return fmt.Errorf("failed to create run table: %w", err)
	}
	if _, err := h.db.ExecContext(ctx, fmt.Sprintf(createFileTableSQL, h.fileTable, h.runTable)); err != nil {
		return fmt.Errorf("failed to create file table: %w", err)
	}

	h.logger.Debug("Run history tables initialized")
	return nil
}

// StartRun records a new run and returns its identifier.
func (h *History) StartRun(ctx context.Context, options string) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (run_status, options) VALUES (?, ?)", h.runTable),
		RunStatusRunning, options,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	h.logger.Debugw("Run started", "run_id", id)
	return id, nil
}

// RecordFile stores the result of one analyzed file of a run.
func (h *History) RecordFile(ctx context.Context, runID int64, rec FileRecord) error {
	var report interface{}
	if len(rec.Report) > 0 {
		report = string(rec.Report)
	}

	_, err := h.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s
			(run_id, file_path, sha256, size_bytes, features, geometries, appearances, missing_schemas, report)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, h.fileTable),
		runID, rec.Path, rec.SHA256, rec.Size, rec.Features, rec.Geometries, rec.Appearances, rec.MissingSchemas, report,
	)
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", rec.Path, err)
	}
	return nil
}

// FinishRun sets the final status of a run.
func (h *History) FinishRun(ctx context.Context, runID int64, status RunStatus, fileCount int, errMsg string) error {
	var msg interface{}
	if errMsg != "" {
		msg = errMsg
	}

	_, err := h.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET run_status = ?, file_count = ?, error_message = ?, finished_at = CURRENT_TIMESTAMP WHERE run_id = ?", h.runTable),
		status, fileCount, msg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}

	h.logger.Debugw("Run finished", "run_id", runID, "status", string(status))
	return nil
}

// LastRun returns the most recently started run, or nil if none exists.
func (h *History) LastRun(ctx context.Context) (*Run, error) {
	var run Run
	var errMsg sql.NullString
	err := h.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT run_id, run_status, options, file_count, error_message, started_at, finished_at FROM %s ORDER BY run_id DESC LIMIT 1", h.runTable),
	).Scan(&run.ID, &run.Status, &run.Options, &run.FileCount, &errMsg, &run.StartedAt, &run.FinishedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}
	run.Error = errMsg.String
	return &run, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}
