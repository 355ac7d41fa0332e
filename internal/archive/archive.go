// Package archive keeps a history of scrape runs in a DuckDB database so
// past runs can be inspected after their reports are gone.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "github.com/duckdb/duckdb-go/v2"

	"drivebank/internal/pipeline"
)

// schemaDDL holds the DuckDB schema definition.
//
//go:embed schema.sql
var schemaDDL string

// SchemaDDL returns the schema DDL used for initializing run archives.
func SchemaDDL() string {
	return schemaDDL
}

// Open opens the archive database at path and applies the schema. An empty
// path opens an in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the schema DDL to the provided database connection.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("archive: db is nil")
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply archive schema: %w", err)
	}
	return nil
}

// RecordRun stores one finished run and its skips.
func RecordRun(ctx context.Context, db *sql.DB, report pipeline.Report) error {
	if db == nil {
		return errors.New("archive: db is nil")
	}
	if report.RunID == "" {
		return errors.New("archive: report has no run id")
	}
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, chapters, questions, added, updated, images, skips)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt,
		report.FinishedAt,
		report.Summary.Chapters,
		report.Summary.Questions,
		report.Summary.Added,
		report.Summary.Updated,
		report.Summary.Images,
		report.Summary.Skips,
	); err != nil {
		return fmt.Errorf("record run %s: %w", report.RunID, err)
	}
	for _, skip := range report.Skips {
		if _, err := db.ExecContext(
			ctx,
			`INSERT INTO run_skips (skip_id, run_id, chapter, page, reason)
			 VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(),
			report.RunID,
			skip.Chapter,
			skip.Page,
			skip.Reason,
		); err != nil {
			return fmt.Errorf("record skip for run %s: %w", report.RunID, err)
		}
	}
	return nil
}

// RunRecord is one archived run, newest first in ListRuns output.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    pipeline.Summary
}

// ListRuns returns archived runs ordered by start time, newest first.
func ListRuns(ctx context.Context, db *sql.DB) ([]RunRecord, error) {
	if db == nil {
		return nil, errors.New("archive: db is nil")
	}
	rows, err := db.QueryContext(
		ctx,
		`SELECT run_id, started_at, finished_at, chapters, questions, added, updated, images, skips
		 FROM runs ORDER BY started_at DESC, run_id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.StartedAt,
			&rec.FinishedAt,
			&rec.Summary.Chapters,
			&rec.Summary.Questions,
			&rec.Summary.Added,
			&rec.Summary.Updated,
			&rec.Summary.Images,
			&rec.Summary.Skips,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// ListSkips returns the skips recorded for one run.
func ListSkips(ctx context.Context, db *sql.DB, runID string) ([]pipeline.Skip, error) {
	if db == nil {
		return nil, errors.New("archive: db is nil")
	}
	rows, err := db.QueryContext(
		ctx,
		`SELECT chapter, page, reason FROM run_skips WHERE run_id = ? ORDER BY chapter, page`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list skips: %w", err)
	}
	defer rows.Close()

	var skips []pipeline.Skip
	for rows.Next() {
		var skip pipeline.Skip
		if err := rows.Scan(&skip.Chapter, &skip.Page, &skip.Reason); err != nil {
			return nil, fmt.Errorf("scan skip: %w", err)
		}
		skips = append(skips, skip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list skips: %w", err)
	}
	return skips, nil
}
