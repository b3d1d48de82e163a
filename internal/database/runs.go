package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/results/internal/core"
)

// DefaultRunListLimit caps ListImportRuns when no limit is given.
const DefaultRunListLimit = 50

const (
	startRunSQL = `
INSERT INTO import_runs (id, object, format, phase, started_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

	finishRunSQL = `
INSERT INTO import_runs (id, object, format, phase, total_rows, applied, skipped, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    format      = EXCLUDED.format,
    phase       = EXCLUDED.phase,
    total_rows  = EXCLUDED.total_rows,
    applied     = EXCLUDED.applied,
    skipped     = EXCLUDED.skipped,
    error       = EXCLUDED.error,
    finished_at = EXCLUDED.finished_at`

	listRunsSQL = `
SELECT id::text, object, format, phase, total_rows, applied, skipped, error, started_at, finished_at
FROM import_runs
ORDER BY started_at DESC
LIMIT $1`

	pruneRunsSQL = `DELETE FROM import_runs WHERE started_at < $1`
)

var (
	_ core.RunRecorder = (*Store)(nil)
	_ core.RunPruner   = (*Store)(nil)
)

// StartRun records that a run has begun.
func (s *Store) StartRun(ctx context.Context, run core.ImportRun) error {
	_, err := s.db.Exec(ctx, startRunSQL, run.ID, run.Object, string(run.Format), string(run.Phase), run.StartedAt)
	if err != nil {
		return fmt.Errorf("start import run: %w", err)
	}
	return nil
}

// FinishRun records the terminal state of a run, creating the row if StartRun failed.
func (s *Store) FinishRun(ctx context.Context, run core.ImportRun) error {
	finished := pgtype.Timestamptz{}
	if run.FinishedAt != nil {
		finished = pgtype.Timestamptz{Time: *run.FinishedAt, Valid: true}
	}
	_, err := s.db.Exec(ctx, finishRunSQL,
		run.ID,
		run.Object,
		string(run.Format),
		string(run.Phase),
		run.TotalRows,
		run.Applied,
		run.Skipped,
		run.Error,
		run.StartedAt,
		finished,
	)
	if err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	return nil
}

// ListImportRuns returns the most recent runs, newest first.
func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	if limit <= 0 {
		limit = DefaultRunListLimit
	}
	rows, err := s.db.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	runs := []core.ImportRun{}
	for rows.Next() {
		var (
			run           core.ImportRun
			format, phase string
			finished      pgtype.Timestamptz
		)
		if err := rows.Scan(&run.ID, &run.Object, &format, &phase,
			&run.TotalRows, &run.Applied, &run.Skipped, &run.Error,
			&run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		run.Format = core.Format(format)
		run.Phase = core.ImportPhase(phase)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	return runs, nil
}

// PruneImportRuns deletes runs started before the cutoff.
func (s *Store) PruneImportRuns(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, pruneRunsSQL, before)
	if err != nil {
		return 0, fmt.Errorf("prune import runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
