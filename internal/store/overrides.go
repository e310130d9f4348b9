package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertOverride appends a rating disagreement to the override log.
func (s *Store) InsertOverride(ctx context.Context, override *RatingOverride) (*RatingOverride, error) {
	if override == nil {
		return nil, errors.New("override is nil")
	}
	id := override.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := override.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO rating_overrides (id, listing_id, ai_rating, user_rating, user_note, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		override.ListingID,
		override.AIRating,
		override.UserRating,
		nullableString(override.UserNote),
		timestamp(createdAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert override: %w", err)
	}

	stored := *override
	stored.ID = id
	stored.CreatedAt = createdAt
	return &stored, nil
}

// ListOverrides returns all overrides ordered oldest first; this ordering is
// the calibration loop's input sequence.
func (s *Store) ListOverrides(ctx context.Context) ([]*RatingOverride, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, listing_id, ai_rating, user_rating, user_note, created_at
         FROM rating_overrides ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*RatingOverride
	for rows.Next() {
		var (
			override   RatingOverride
			userNote   sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&override.ID, &override.ListingID, &override.AIRating, &override.UserRating, &userNote, &createdRaw); err != nil {
			return nil, err
		}
		override.UserNote = userNote.String
		if created, err := parseTimeString(createdRaw); err == nil {
			override.CreatedAt = created
		}
		overrides = append(overrides, &override)
	}
	return overrides, rows.Err()
}

// CountOverridesSince counts overrides created after the given time. A zero
// time counts every override, used when no calibration document exists yet.
func (s *Store) CountOverridesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	var err error
	if since.IsZero() {
		err = s.db.QueryRowContext(ensureContext(ctx),
			`SELECT COUNT(1) FROM rating_overrides`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ensureContext(ctx),
			`SELECT COUNT(1) FROM rating_overrides WHERE created_at > ?`,
			timestamp(since)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count overrides: %w", err)
	}
	return count, nil
}
