// Package db persists violation events and validation runs in SQLite.
//
// Persistence is a sink attached by the binaries: the monitor and harness
// never depend on it, and a store failure degrades to a log line rather
// than stalling the sample loop.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fleetsense-data/behavior.report/internal/monitor"
	"github.com/fleetsense-data/behavior.report/internal/validate"
)

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the database at path. Run MigrateUp
// before first use.
func NewDB(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// modernc sqlite serialises writes itself; one writer connection keeps
	// "database is locked" out of the sample loop.
	handle.SetMaxOpenConns(1)
	return &DB{handle}, nil
}

// RecordViolation appends one violation event.
func (db *DB) RecordViolation(ev monitor.ViolationEvent) error {
	_, err := db.Exec(`
		INSERT INTO violations (id, timestamp_ms, type, value, threshold, quality, was_calibrated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.TimestampMs, string(ev.Type), ev.Value, ev.Threshold, ev.Quality, ev.WasCalibrated,
	)
	if err != nil {
		return fmt.Errorf("record violation: %w", err)
	}
	return nil
}

// Violations returns the most recent events, newest first.
func (db *DB) Violations(limit int) ([]monitor.ViolationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT id, timestamp_ms, type, value, threshold, quality, was_calibrated
		FROM violations ORDER BY timestamp_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	var events []monitor.ViolationEvent
	for rows.Next() {
		var ev monitor.ViolationEvent
		var typ string
		if err := rows.Scan(&ev.ID, &ev.TimestampMs, &typ, &ev.Value, &ev.Threshold, &ev.Quality, &ev.WasCalibrated); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		ev.Type = monitor.ViolationType(typ)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecordValidationRun stores one coordinator run: its reports are kept as a
// JSON document, with the headline metrics broken out into columns for
// querying across runs.
func (db *DB) RecordValidationRun(runID string, reports []validate.ComparisonReport) error {
	doc, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}

	best := ""
	bestAccuracy := 0.0
	for _, r := range reports {
		if r.Metrics.Accuracy >= bestAccuracy {
			bestAccuracy = r.Metrics.Accuracy
			best = r.ConfigurationName
		}
	}

	_, err = db.Exec(`
		INSERT INTO validation_runs (run_id, created_at_ms, configurations, best_configuration, best_accuracy, reports)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UnixMilli(), len(reports), best, bestAccuracy, string(doc),
	)
	if err != nil {
		return fmt.Errorf("record validation run: %w", err)
	}
	return nil
}

// ValidationRun loads the stored reports for one run ID.
func (db *DB) ValidationRun(runID string) ([]validate.ComparisonReport, error) {
	var doc string
	err := db.QueryRow(`SELECT reports FROM validation_runs WHERE run_id = ?`, runID).Scan(&doc)
	if err != nil {
		return nil, fmt.Errorf("load validation run %s: %w", runID, err)
	}
	var reports []validate.ComparisonReport
	if err := json.Unmarshal([]byte(doc), &reports); err != nil {
		return nil, fmt.Errorf("unmarshal reports: %w", err)
	}
	return reports, nil
}

// ValidationRunSummary is one row of the run listing.
type ValidationRunSummary struct {
	RunID             string  `json:"run_id"`
	CreatedAtMs       int64   `json:"created_at_ms"`
	Configurations    int     `json:"configurations"`
	BestConfiguration string  `json:"best_configuration"`
	BestAccuracy      float64 `json:"best_accuracy"`
}

// ValidationRuns lists stored runs, newest first.
func (db *DB) ValidationRuns(limit int) ([]ValidationRunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, created_at_ms, configurations, best_configuration, best_accuracy
		FROM validation_runs ORDER BY created_at_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query validation runs: %w", err)
	}
	defer rows.Close()

	var runs []ValidationRunSummary
	for rows.Next() {
		var r ValidationRunSummary
		if err := rows.Scan(&r.RunID, &r.CreatedAtMs, &r.Configurations, &r.BestConfiguration, &r.BestAccuracy); err != nil {
			return nil, fmt.Errorf("scan validation run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
