package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scout/internal/services"
)

const listingColumns = "id, source_name, source_id, source_url, title, description, images_json, discovered_at, ai_rating, ai_rating_reason, user_rating, user_rating_note, archived, enriched_at, fields_json, created_at, updated_at"

// InsertListing persists a new listing. A violation of the
// (source_name, source_id) uniqueness constraint is reported as
// ErrDuplicateKey so callers can reclassify the row as a duplicate.
func (s *Store) InsertListing(ctx context.Context, listing *Listing) (*Listing, error) {
	if listing == nil {
		return nil, errors.New("listing is nil")
	}
	now := time.Now().UTC()

	id := listing.ID
	if id == "" {
		id = uuid.NewString()
	}
	discoveredAt := listing.DiscoveredAt
	if discoveredAt.IsZero() {
		discoveredAt = now
	}

	imagesJSON, err := marshalImages(listing.Images)
	if err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}
	fieldsJSON, err := marshalFields(listing.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO listings (
            id, source_name, source_id, source_url, title, description,
            images_json, discovered_at, ai_rating, ai_rating_reason,
            user_rating, user_rating_note, archived, enriched_at,
            fields_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		listing.SourceName,
		listing.SourceID,
		nullableString(listing.SourceURL),
		nullableString(listing.Title),
		nullableString(listing.Description),
		nullableString(imagesJSON),
		timestamp(discoveredAt),
		nullableInt(listing.AIRating),
		nullableString(listing.AIRatingReason),
		nullableInt(listing.UserRating),
		nullableString(listing.UserRatingNote),
		boolToInt(listing.Archived),
		nullableTime(listing.EnrichedAt),
		nullableString(fieldsJSON),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		if isConstraintErr(err) {
			return nil, fmt.Errorf("insert listing %s/%s: %w", listing.SourceName, listing.SourceID, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	return s.GetListing(ctx, id)
}

// GetListing fetches a listing by identifier, returning nil when absent.
func (s *Store) GetListing(ctx context.Context, id string) (*Listing, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	listing, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

// ListingExists reports whether a listing with the given natural key exists.
func (s *Store) ListingExists(ctx context.Context, sourceName, sourceID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM listings WHERE source_name = ? AND source_id = ?`,
		sourceName,
		sourceID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check source key: %w", err)
	}
	return count > 0, nil
}

// ListListings returns listings matching the filter in the requested order.
func (s *Store) ListListings(ctx context.Context, opts ListOptions) ([]*Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`

	switch opts.Filter {
	case FilterNew, "":
		query += ` WHERE archived = 0 AND user_rating IS NULL`
	case FilterShortlist:
		query += ` WHERE archived = 0 AND user_rating >= 4`
	case FilterArchived:
		query += ` WHERE archived = 1`
	case FilterAll:
	default:
		return nil, fmt.Errorf("unknown listing filter %q", opts.Filter)
	}

	switch opts.Sort {
	case SortRating, "":
		query += ` ORDER BY ai_rating IS NULL, ai_rating DESC, discovered_at DESC`
	case SortNewest:
		query += ` ORDER BY discovered_at DESC`
	default:
		return nil, fmt.Errorf("unknown listing sort %q", opts.Sort)
	}

	args := make([]any, 0, 2)
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	return s.queryListings(ctx, query, args...)
}

// UnratedListings returns non-archived listings missing an AI rating,
// newest first.
func (s *Store) UnratedListings(ctx context.Context, limit int) ([]*Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings
        WHERE archived = 0 AND ai_rating IS NULL
        ORDER BY discovered_at DESC`
	if limit > 0 {
		return s.queryListings(ctx, query+` LIMIT ?`, limit)
	}
	return s.queryListings(ctx, query)
}

// UnenrichedListings returns non-archived listings that have never been
// successfully enriched, newest first.
func (s *Store) UnenrichedListings(ctx context.Context, limit int) ([]*Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings
        WHERE archived = 0 AND enriched_at IS NULL
        ORDER BY discovered_at DESC`
	if limit > 0 {
		return s.queryListings(ctx, query+` LIMIT ?`, limit)
	}
	return s.queryListings(ctx, query)
}

// UpdateAIRating sets the AI rating and reason for a listing.
func (s *Store) UpdateAIRating(ctx context.Context, id string, rating int, reason string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE listings SET ai_rating = ?, ai_rating_reason = ?, updated_at = ? WHERE id = ?`,
		rating,
		nullableString(reason),
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update ai rating: %w", err)
	}
	return requireRow(res, id)
}

// UpdateUserRating records an explicit user rating. The rating must be an
// integer between 1 and 5. Returns the updated listing.
func (s *Store) UpdateUserRating(ctx context.Context, id string, rating int, note string) (*Listing, error) {
	if rating < 1 || rating > 5 {
		return nil, services.Wrap(services.ErrValidation, "store", "update user rating",
			fmt.Sprintf("rating must be an integer between 1 and 5, got %d", rating), nil)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE listings SET user_rating = ?, user_rating_note = ?, updated_at = ? WHERE id = ?`,
		rating,
		nullableString(note),
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user rating: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return nil, err
	}
	return s.GetListing(ctx, id)
}

// MergeListingFields merges a partial patch into the listing's extension
// fields. The read-modify-write cycle is serialized per listing id so
// concurrent merges cannot drop each other's keys.
func (s *Store) MergeListingFields(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	unlock := s.fieldMu.lock(id)
	defer unlock()

	ctx = ensureContext(ctx)
	var fieldsRaw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT fields_json FROM listings WHERE id = ?`, id).Scan(&fieldsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("merge fields for %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read fields: %w", err)
	}

	fields := make(map[string]any)
	if fieldsRaw.Valid && fieldsRaw.String != "" {
		if err := json.Unmarshal([]byte(fieldsRaw.String), &fields); err != nil {
			return fmt.Errorf("decode fields for %s: %w", id, err)
		}
	}
	for key, value := range patch {
		fields[key] = value
	}

	merged, err := marshalFields(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE listings SET fields_json = ?, updated_at = ? WHERE id = ?`,
		merged,
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("write fields: %w", err)
	}
	return requireRow(res, id)
}

// MarkEnriched stamps the listing as enriched.
func (s *Store) MarkEnriched(ctx context.Context, id string) error {
	now := time.Now()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE listings SET enriched_at = ?, updated_at = ? WHERE id = ?`,
		timestamp(now),
		timestamp(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark enriched: %w", err)
	}
	return requireRow(res, id)
}

// ArchiveListing hides the listing from active views. Listings are never
// physically deleted.
func (s *Store) ArchiveListing(ctx context.Context, id string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE listings SET archived = 1, updated_at = ? WHERE id = ?`,
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("archive listing: %w", err)
	}
	return requireRow(res, id)
}

func (s *Store) queryListings(ctx context.Context, query string, args ...any) ([]*Listing, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []*Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanListing(scanner interface{ Scan(dest ...any) error }) (*Listing, error) {
	var (
		id             string
		sourceName     string
		sourceID       string
		sourceURL      sql.NullString
		title          sql.NullString
		description    sql.NullString
		imagesRaw      sql.NullString
		discoveredRaw  sql.NullString
		aiRating       sql.NullInt64
		aiRatingReason sql.NullString
		userRating     sql.NullInt64
		userRatingNote sql.NullString
		archived       sql.NullInt64
		enrichedRaw    sql.NullString
		fieldsRaw      sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceName,
		&sourceID,
		&sourceURL,
		&title,
		&description,
		&imagesRaw,
		&discoveredRaw,
		&aiRating,
		&aiRatingReason,
		&userRating,
		&userRatingNote,
		&archived,
		&enrichedRaw,
		&fieldsRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:             id,
		SourceName:     sourceName,
		SourceID:       sourceID,
		SourceURL:      sourceURL.String,
		Title:          title.String,
		Description:    description.String,
		AIRatingReason: aiRatingReason.String,
		UserRatingNote: userRatingNote.String,
		Archived:       archived.Valid && archived.Int64 != 0,
	}
	if aiRating.Valid {
		value := int(aiRating.Int64)
		listing.AIRating = &value
	}
	if userRating.Valid {
		value := int(userRating.Int64)
		listing.UserRating = &value
	}
	if imagesRaw.Valid && imagesRaw.String != "" {
		if err := json.Unmarshal([]byte(imagesRaw.String), &listing.Images); err != nil {
			return nil, fmt.Errorf("decode images for %s: %w", id, err)
		}
	}
	if fieldsRaw.Valid && fieldsRaw.String != "" {
		if err := json.Unmarshal([]byte(fieldsRaw.String), &listing.Fields); err != nil {
			return nil, fmt.Errorf("decode fields for %s: %w", id, err)
		}
	}
	if discovered, err := parseTimeString(discoveredRaw.String); err == nil {
		listing.DiscoveredAt = discovered
	}
	if enrichedRaw.Valid {
		if enriched, err := parseTimeString(enrichedRaw.String); err == nil {
			listing.EnrichedAt = &enriched
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		listing.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		listing.UpdatedAt = updated
	}
	return listing, nil
}

func marshalImages(images []string) (string, error) {
	if len(images) == 0 {
		return "", nil
	}
	data, err := json.Marshal(images)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// marshalFields serializes the extension map. encoding/json writes map keys
// in sorted order, which keeps the stored blob stable across merges.
func marshalFields(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
