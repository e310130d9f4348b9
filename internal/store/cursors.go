package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetCursor fetches the incremental-fetch cursor for a source, returning
// nil when the source has never recorded one.
func (s *Store) GetCursor(ctx context.Context, sourceName string) (*SourceCursor, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT source_name, cursor_value, last_run_at FROM source_cursors WHERE source_name = ?`,
		sourceName,
	)

	var (
		name       string
		value      sql.NullString
		lastRunRaw sql.NullString
	)
	err := row.Scan(&name, &value, &lastRunRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor %s: %w", sourceName, err)
	}

	cursor := &SourceCursor{SourceName: name, CursorValue: value.String}
	if lastRunRaw.Valid {
		if lastRun, err := parseTimeString(lastRunRaw.String); err == nil {
			cursor.LastRunAt = lastRun
		}
	}
	return cursor, nil
}

// PutCursor upserts the cursor for a source and stamps last_run_at.
func (s *Store) PutCursor(ctx context.Context, sourceName, cursorValue string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO source_cursors (source_name, cursor_value, last_run_at) VALUES (?, ?, ?)
         ON CONFLICT (source_name) DO UPDATE SET cursor_value = excluded.cursor_value, last_run_at = excluded.last_run_at`,
		sourceName,
		nullableString(cursorValue),
		timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("put cursor %s: %w", sourceName, err)
	}
	return nil
}
