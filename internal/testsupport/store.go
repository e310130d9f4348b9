package testsupport

import (
	"context"
	"fmt"
	"testing"

	"scout/internal/config"
	"scout/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewListing inserts a listing with a unique source id for tests.
func NewListing(t testing.TB, st *store.Store, sourceName, sourceID string) *store.Listing {
	t.Helper()

	listing, err := st.InsertListing(context.Background(), &store.Listing{
		SourceName:  sourceName,
		SourceID:    sourceID,
		SourceURL:   fmt.Sprintf("https://example.test/%s", sourceID),
		Title:       "Listing " + sourceID,
		Description: "test listing",
	})
	if err != nil {
		t.Fatalf("store.InsertListing: %v", err)
	}
	return listing
}
