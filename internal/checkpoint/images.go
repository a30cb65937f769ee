package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// State mirrors the classifier's carried state.
type State struct {
	CurrentTimestamp string
	Seq              int
}

// Summary describes the checkpoint contents for one transcript.
type Summary struct {
	Images    int
	Messages  int
	State     State
	HasState  bool
	UpdatedAt time.Time
	LastImage string
}

// MarkImage records the screenshot at image as processed into transcript by
// runID and stores state, atomically. Both paths should be absolute.
func (s *Store) MarkImage(ctx context.Context, runID, transcript, image string, messages int, state State) error {
	now := formatTime(time.Now())
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processed_images (transcript, path, name, run_id, messages, processed_at) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(transcript, path) DO UPDATE SET run_id = excluded.run_id, messages = excluded.messages, processed_at = excluded.processed_at`,
			transcript, image, filepath.Base(image), runID, messages, now,
		); err != nil {
			return fmt.Errorf("record image %s: %w", image, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO classifier_state (transcript, carried_timestamp, seq, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(transcript) DO UPDATE SET carried_timestamp = excluded.carried_timestamp, seq = excluded.seq, updated_at = excluded.updated_at`,
			transcript, state.CurrentTimestamp, state.Seq, now,
		); err != nil {
			return fmt.Errorf("record classifier state: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE runs SET images = images + 1, messages = messages + ? WHERE id = ?`,
			messages, runID,
		); err != nil {
			return fmt.Errorf("update run %s: %w", runID, err)
		}
		return tx.Commit()
	})
}

// Processed returns the image paths already recorded for transcript.
func (s *Store) Processed(ctx context.Context, transcript string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM processed_images WHERE transcript = ?`, transcript)
	if err != nil {
		return nil, fmt.Errorf("query processed images: %w", err)
	}
	defer rows.Close()

	done := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan processed image: %w", err)
		}
		done[path] = struct{}{}
	}
	return done, rows.Err()
}

// LoadState returns the classifier state stored for transcript. ok is false
// when nothing has been extracted into it yet.
func (s *Store) LoadState(ctx context.Context, transcript string) (State, bool, error) {
	var state State
	err := s.db.QueryRowContext(ctx,
		`SELECT carried_timestamp, seq FROM classifier_state WHERE transcript = ?`, transcript,
	).Scan(&state.CurrentTimestamp, &state.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("load classifier state: %w", err)
	}
	return state, true, nil
}

// Summarize reports totals, the carried state and the most recent image for
// transcript.
func (s *Store) Summarize(ctx context.Context, transcript string) (Summary, error) {
	var summary Summary
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(messages), 0) FROM processed_images WHERE transcript = ?`, transcript,
	).Scan(&summary.Images, &summary.Messages); err != nil {
		return Summary{}, fmt.Errorf("count processed images: %w", err)
	}

	var updated sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT carried_timestamp, seq, updated_at FROM classifier_state WHERE transcript = ?`, transcript,
	).Scan(&summary.State.CurrentTimestamp, &summary.State.Seq, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Summary{}, fmt.Errorf("load classifier state: %w", err)
	default:
		summary.HasState = true
		summary.UpdatedAt = parseTime(updated)
	}

	var last sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT name FROM processed_images WHERE transcript = ? ORDER BY processed_at DESC, path DESC LIMIT 1`, transcript,
	).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("load last image: %w", err)
	}
	summary.LastImage = last.String
	return summary, nil
}

// Reset clears the progress recorded for transcript so the next run starts
// from the first image. Other transcripts are untouched.
func (s *Store) Reset(ctx context.Context, transcript string) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		for _, stmt := range []string{
			`DELETE FROM processed_images WHERE transcript = ?`,
			`DELETE FROM classifier_state WHERE transcript = ?`,
			`DELETE FROM runs WHERE transcript = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, transcript); err != nil {
				return fmt.Errorf("reset checkpoint: %w", err)
			}
		}
		return tx.Commit()
	})
}
