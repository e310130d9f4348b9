package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetDocument fetches a singleton document by type, returning nil when the
// document has never been written.
func (s *Store) GetDocument(ctx context.Context, docType DocType) (*Document, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT doc_type, content, updated_at FROM documents WHERE doc_type = ?`,
		string(docType),
	)

	var (
		typeStr    string
		content    string
		updatedRaw string
	)
	err := row.Scan(&typeStr, &content, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docType, err)
	}

	doc := &Document{Type: DocType(typeStr), Content: content}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		doc.UpdatedAt = updated
	}
	return doc, nil
}

// PutDocument creates or fully overwrites the singleton document of the
// given type. Documents are not versioned.
func (s *Store) PutDocument(ctx context.Context, docType DocType, content string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO documents (doc_type, content, updated_at) VALUES (?, ?, ?)
         ON CONFLICT (doc_type) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		string(docType),
		content,
		timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("put document %s: %w", docType, err)
	}
	return nil
}
