package registry

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one execution of the training pipeline.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Dataset        string
	Rows           int
	TrainRows      int
	ValidationRows int
	TestRows       int
	SMOTEApplied   bool
	SMOTENeighbors int
	Winner         string // empty when no model was persisted
	ValidationF1   float64
	TestAccuracy   float64
	TestF1         float64
	ModelPath      string
	Candidates     []CandidateScore
}

type CandidateScore struct {
	Name               string
	ValidationF1       float64
	ValidationAccuracy float64
	Duration           time.Duration
}

// Registry keeps training history in a SQLite file.
type Registry struct {
	db *sql.DB
	mu sync.Mutex
}

// Timestamps are Unix nanoseconds so ORDER BY follows time order.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	started_at_ns   INTEGER NOT NULL,
	finished_at_ns  INTEGER NOT NULL,
	dataset         TEXT NOT NULL,
	rows            INTEGER NOT NULL,
	train_rows      INTEGER NOT NULL,
	validation_rows INTEGER NOT NULL,
	test_rows       INTEGER NOT NULL,
	smote_applied   INTEGER NOT NULL,
	smote_k         INTEGER NOT NULL,
	winner          TEXT NOT NULL,
	validation_f1   REAL NOT NULL,
	test_accuracy   REAL NOT NULL,
	test_f1         REAL NOT NULL,
	model_path      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS candidates (
	run_id              TEXT NOT NULL REFERENCES runs(id),
	position            INTEGER NOT NULL,
	name                TEXT NOT NULL,
	validation_f1       REAL NOT NULL,
	validation_accuracy REAL NOT NULL,
	duration_ms         INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);`

func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init registry schema: %w", err)
	}

	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// RecordRun stores the run and its candidates in one transaction. A missing
// ID is filled with a new UUID.
func (r *Registry) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at_ns, finished_at_ns, dataset, rows, train_rows,
			validation_rows, test_rows, smote_applied, smote_k, winner,
			validation_f1, test_accuracy, test_f1, model_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UnixNano(),
		run.FinishedAt.UnixNano(),
		run.Dataset, run.Rows, run.TrainRows, run.ValidationRows, run.TestRows,
		run.SMOTEApplied, run.SMOTENeighbors, run.Winner,
		run.ValidationF1, run.TestAccuracy, run.TestF1, run.ModelPath,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates (run_id, position, name, validation_f1, validation_accuracy, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, c := range run.Candidates {
		if _, err := stmt.ExecContext(ctx, run.ID, i, c.Name, c.ValidationF1, c.ValidationAccuracy, c.Duration.Milliseconds()); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert candidate %s: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first.
func (r *Registry) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at_ns, finished_at_ns, dataset, rows, train_rows, validation_rows,
			test_rows, smote_applied, smote_k, winner, validation_f1, test_accuracy,
			test_f1, model_path
		FROM runs ORDER BY started_at_ns DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Dataset, &run.Rows,
			&run.TrainRows, &run.ValidationRows, &run.TestRows, &run.SMOTEApplied,
			&run.SMOTENeighbors, &run.Winner, &run.ValidationF1, &run.TestAccuracy,
			&run.TestF1, &run.ModelPath); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(0, started).UTC()
		run.FinishedAt = time.Unix(0, finished).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		candidates, err := r.candidates(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Candidates = candidates
	}

	return runs, nil
}

func (r *Registry) candidates(ctx context.Context, runID string) ([]CandidateScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, validation_f1, validation_accuracy, duration_ms
		FROM candidates WHERE run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CandidateScore
	for rows.Next() {
		var (
			c  CandidateScore
			ms int64
		)
		if err := rows.Scan(&c.Name, &c.ValidationF1, &c.ValidationAccuracy, &ms); err != nil {
			return nil, err
		}
		c.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, c)
	}
	return out, rows.Err()
}
