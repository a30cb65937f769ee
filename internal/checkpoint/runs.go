package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus records how a run ended.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of the extract stage.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Status     RunStatus `json:"status"`
	Images     int       `json:"images"`
	Messages   int       `json:"messages"`
}

// BeginRun records a new run appending to transcript and returns it.
func (s *Store) BeginRun(ctx context.Context, transcript string) (Run, error) {
	run := Run{ID: uuid.NewString(), StartedAt: time.Now().UTC(), Status: RunRunning}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (id, transcript, started_at, status) VALUES (?, ?, ?, ?)`,
			run.ID, transcript, formatTime(run.StartedAt), string(run.Status),
		)
		return err
	})
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the end of a run with its status.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus) error {
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
			formatTime(time.Now()), string(status), id,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// Runs lists the runs that appended to transcript, newest first.
func (s *Store) Runs(ctx context.Context, transcript string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, images, messages FROM runs WHERE transcript = ? ORDER BY started_at DESC`,
		transcript)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			status            string
			started, finished sql.NullString
		)
		if err := rows.Scan(&run.ID, &started, &finished, &status, &run.Images, &run.Messages); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = RunStatus(status)
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
