package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockDash/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets `ingest status` read while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id             TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER,
			status         TEXT NOT NULL,
			universe       INTEGER,
			processed      INTEGER,
			failed         INTEGER,
			failed_globals INTEGER,
			resumed_pass   TEXT,
			resumed_index  INTEGER,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS outcomes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			pass        TEXT,
			ticker      TEXT,
			category    TEXT NOT NULL,
			skipped     INTEGER NOT NULL DEFAULT 0,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(rep *model.RunReport, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summarize(rep, runErr)
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var finished any
	if !s.FinishedAt.IsZero() {
		finished = s.FinishedAt.Unix()
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs
		(id, started_at, finished_at, status, universe, processed, failed, failed_globals,
		 resumed_pass, resumed_index, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.StartedAt.Unix(), finished, string(s.Status), s.Universe, s.Processed,
		s.Failed, s.FailedGlobals, s.ResumedPass, s.ResumedIndex, s.Error,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM outcomes WHERE run_id = ?`, s.ID); err != nil {
		return fmt.Errorf("clear outcomes: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO outcomes
		(run_id, pass, ticker, category, skipped, error, duration_ms)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	outcomes := append(rep.Outcomes(), rep.Globals...)
	for _, o := range outcomes {
		var msg any
		if o.Err != nil {
			msg = o.Err.Error()
		}
		if _, err := stmt.Exec(s.ID, o.Pass, o.Ticker, string(o.Category), o.Skipped, msg, o.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LastRun() (*RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		s        RunSummary
		status   string
		started  int64
		finished sql.NullInt64
		errMsg   sql.NullString
		pass     sql.NullString
	)
	err := r.db.QueryRow(`SELECT id, started_at, finished_at, status, universe, processed, failed,
		failed_globals, resumed_pass, resumed_index, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(
		&s.ID, &started, &finished, &status, &s.Universe, &s.Processed, &s.Failed,
		&s.FailedGlobals, &pass, &s.ResumedIndex, &errMsg,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	s.Status = model.RunStatus(status)
	s.StartedAt = time.Unix(started, 0)
	if finished.Valid {
		s.FinishedAt = time.Unix(finished.Int64, 0)
	}
	s.ResumedPass = pass.String
	s.Error = errMsg.String
	return &s, nil
}

// FailedOutcomes returns the failed (ticker, category) units of a run.
func (r *SQLiteRecorder) FailedOutcomes(runID string) ([]model.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT pass, ticker, category, error FROM outcomes
		WHERE run_id = ? AND error IS NOT NULL ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Outcome
	for rows.Next() {
		var (
			o   model.Outcome
			cat string
			msg string
		)
		if err := rows.Scan(&o.Pass, &o.Ticker, &cat, &msg); err != nil {
			return nil, err
		}
		o.Category = model.Category(cat)
		o.Err = errors.New(msg)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
