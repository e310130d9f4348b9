package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateRun opens a pipeline-run record in the running state.
func (s *Store) CreateRun(ctx context.Context) (*PipelineRun, error) {
	run := &PipelineRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    RunRunning,
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO pipeline_runs (id, started_at, status) VALUES (?, ?, ?)`,
		run.ID,
		timestamp(run.StartedAt),
		string(run.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// CompleteRun transitions a running run to completed and records its stats.
func (s *Store) CompleteRun(ctx context.Context, id string, stats RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal run stats: %w", err)
	}
	return s.finishRun(ctx, id, RunCompleted, string(statsJSON), "")
}

// FailRun transitions a running run to failed and records the error message.
func (s *Store) FailRun(ctx context.Context, id string, errMsg string) error {
	return s.finishRun(ctx, id, RunFailed, "", errMsg)
}

// finishRun guards the single status transition: only a run still in the
// running state can be completed or failed.
func (s *Store) finishRun(ctx context.Context, id string, status RunStatus, statsJSON, errMsg string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE pipeline_runs SET status = ?, completed_at = ?, stats_json = ?, error = ?
         WHERE id = ? AND status = ?`,
		string(status),
		timestamp(time.Now()),
		nullableString(statsJSON),
		nullableString(errMsg),
		id,
		string(RunRunning),
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s is not running: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun fetches a single pipeline run, returning nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*PipelineRun, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, started_at, completed_at, status, stats_json, error
         FROM pipeline_runs WHERE id = ?`,
		id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns pipeline runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*PipelineRun, error) {
	query := `SELECT id, started_at, completed_at, status, stats_json, error
        FROM pipeline_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*PipelineRun, error) {
	var (
		id           string
		startedRaw   string
		completedRaw sql.NullString
		statusStr    string
		statsRaw     sql.NullString
		errMsg       sql.NullString
	)
	if err := scanner.Scan(&id, &startedRaw, &completedRaw, &statusStr, &statsRaw, &errMsg); err != nil {
		return nil, err
	}

	run := &PipelineRun{
		ID:     id,
		Status: RunStatus(statusStr),
		Error:  errMsg.String,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			run.CompletedAt = &completed
		}
	}
	if statsRaw.Valid && statsRaw.String != "" {
		var stats RunStats
		if err := json.Unmarshal([]byte(statsRaw.String), &stats); err != nil {
			return nil, fmt.Errorf("decode stats for run %s: %w", id, err)
		}
		run.Stats = &stats
	}
	return run, nil
}
