package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Outcome is the result of one test case.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded execution of a document.
type Run struct {
	ID          string
	Seq         int64
	Document    string
	ContentHash string
	Format      string
	StartedAt   time.Time
	FinishedAt  time.Time

	// Counts are derived from Cases when the run is recorded.
	CaseCount int
	Passed    int
	Failed    int
	Skipped   int

	// Cases is only populated by GetRun and RecordRun.
	Cases []CaseResult
}

// CaseResult is the outcome of the test case at Index.
type CaseResult struct {
	Index   int
	Name    string
	Outcome Outcome
}

// ListOptions filters ListRuns.
type ListOptions struct {
	// Document restricts the listing to one document path.
	Document string

	// Limit caps the number of runs returned. Zero means no limit.
	Limit int
}

// RecordRun stores a run and its case results in one transaction.
// ID, Seq, the timestamps and the counts are filled in and the stored run is
// returned.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.Document == "" {
		return Run{}, errors.New("record run: document is required")
	}
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = s.clock.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	run.CaseCount, run.Passed, run.Failed, run.Skipped = len(run.Cases), 0, 0, 0
	for _, c := range run.Cases {
		switch c.Outcome {
		case OutcomePass:
			run.Passed++
		case OutcomeFail:
			run.Failed++
		case OutcomeSkip:
			run.Skipped++
		default:
			return Run{}, fmt.Errorf("record run: case %d: invalid outcome %q", c.Index, c.Outcome)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, document, content_hash, format, started_at, finished_at, case_count, passed, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Document,
		run.ContentHash,
		run.Format,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.CaseCount,
		run.Passed,
		run.Failed,
		run.Skipped,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for _, c := range run.Cases {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO case_results (run_id, idx, name, outcome)
			VALUES (?, ?, ?, ?)
		`, run.ID, c.Index, c.Name, string(c.Outcome))
		if err != nil {
			return Run{}, fmt.Errorf("record run: case %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// ListRuns returns recorded runs, newest first. Cases are not loaded.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	query := `
		SELECT id, seq, document, content_hash, format, started_at, finished_at,
		       case_count, passed, failed, skipped
		FROM runs`
	var args []any
	if opts.Document != "" {
		query += ` WHERE document = ?`
		args = append(args, opts.Document)
	}
	query += ` ORDER BY seq DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its case results in index order.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, document, content_hash, format, started_at, finished_at,
		       case_count, passed, failed, skipped
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, name, outcome
		FROM case_results
		WHERE run_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query case results: %w", err)
	}
	defer rows.Close()

	run.Cases = []CaseResult{}
	for rows.Next() {
		var c CaseResult
		var outcome string
		if err := rows.Scan(&c.Index, &c.Name, &outcome); err != nil {
			return Run{}, fmt.Errorf("scan case result: %w", err)
		}
		c.Outcome = Outcome(outcome)
		run.Cases = append(run.Cases, c)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate case results: %w", err)
	}
	return run, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		started, finished string
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Document,
		&run.ContentHash,
		&run.Format,
		&started,
		&finished,
		&run.CaseCount,
		&run.Passed,
		&run.Failed,
		&run.Skipped,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
