package store_test

import (
	"context"
	"testing"
	"time"

	"scout/internal/store"
	"scout/internal/testsupport"
)

func TestDocumentsSingletonPerType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	doc, err := st.GetDocument(ctx, store.DocPreferenceProfile)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil for unwritten document, got %+v", doc)
	}

	if err := st.PutDocument(ctx, store.DocPreferenceProfile, "prefers quiet streets"); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	doc, err = st.GetDocument(ctx, store.DocPreferenceProfile)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc == nil || doc.Content != "prefers quiet streets" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	firstWrite := doc.UpdatedAt

	if err := st.PutDocument(ctx, store.DocPreferenceProfile, "prefers top floors"); err != nil {
		t.Fatalf("PutDocument overwrite: %v", err)
	}
	doc, err = st.GetDocument(ctx, store.DocPreferenceProfile)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Content != "prefers top floors" {
		t.Fatalf("overwrite not applied: %+v", doc)
	}
	if !doc.UpdatedAt.After(firstWrite) {
		t.Fatalf("updated_at not advanced: %v -> %v", firstWrite, doc.UpdatedAt)
	}

	// The calibration log is an independent singleton.
	other, err := st.GetDocument(ctx, store.DocCalibrationLog)
	if err != nil {
		t.Fatalf("GetDocument calibration: %v", err)
	}
	if other != nil {
		t.Fatalf("calibration log should be absent, got %+v", other)
	}
}

func TestOverridesAppendOnlyOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	listing := testsupport.NewListing(t, st, "testsource", "override-target")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := st.InsertOverride(ctx, &store.RatingOverride{
			ListingID:  listing.ID,
			AIRating:   5,
			UserRating: 2,
			UserNote:   "too dark",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertOverride %d: %v", i, err)
		}
	}

	overrides, err := st.ListOverrides(ctx)
	if err != nil {
		t.Fatalf("ListOverrides: %v", err)
	}
	if len(overrides) != 3 {
		t.Fatalf("expected 3 overrides, got %d", len(overrides))
	}
	for i := 1; i < len(overrides); i++ {
		if overrides[i].CreatedAt.Before(overrides[i-1].CreatedAt) {
			t.Fatalf("overrides out of order at %d", i)
		}
	}
	if overrides[0].ID == "" || overrides[0].AIRating != 5 || overrides[0].UserRating != 2 {
		t.Fatalf("unexpected override: %+v", overrides[0])
	}
}

func TestCountOverridesSince(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	listing := testsupport.NewListing(t, st, "testsource", "count-target")
	cutoff := time.Now().UTC()

	for i, createdAt := range []time.Time{
		cutoff.Add(-time.Hour),
		cutoff.Add(time.Minute),
		cutoff.Add(2 * time.Minute),
	} {
		_, err := st.InsertOverride(ctx, &store.RatingOverride{
			ListingID:  listing.ID,
			AIRating:   4,
			UserRating: 1,
			CreatedAt:  createdAt,
		})
		if err != nil {
			t.Fatalf("InsertOverride %d: %v", i, err)
		}
	}

	all, err := st.CountOverridesSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("CountOverridesSince zero: %v", err)
	}
	if all != 3 {
		t.Fatalf("expected all 3 overrides, got %d", all)
	}

	recent, err := st.CountOverridesSince(ctx, cutoff)
	if err != nil {
		t.Fatalf("CountOverridesSince cutoff: %v", err)
	}
	if recent != 2 {
		t.Fatalf("expected 2 recent overrides, got %d", recent)
	}
}
