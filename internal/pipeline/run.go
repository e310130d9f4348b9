package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scout/internal/logging"
	"scout/internal/pool"
	"scout/internal/services"
	"scout/internal/store"
)

// RunResult reports the outcome of one completed pipeline run.
type RunResult struct {
	RunID string
	Stats store.RunStats
}

// Run executes one full pipeline pass: discover, dedupe, hydrate, enrich,
// rate, store, then the self-heal passes over the stored backlog. Discovery
// failures and store write failures (other than duplicate-key) fail the run;
// per-listing collaborator failures are logged and skipped so one bad
// listing never sinks the batch.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	run, err := r.store.CreateRun(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "create_run", "recording run start", err)
	}
	logger := r.logger.With(logging.String(logging.FieldRunID, run.ID))
	logger.Info("pipeline run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source", r.cfg.Source.Name))
	started := time.Now()

	var stats store.RunStats
	profileDoc, err := r.store.GetDocument(ctx, store.DocPreferenceProfile)
	if err != nil {
		return r.failRun(ctx, logger, run.ID, err)
	}
	calDoc, err := r.store.GetDocument(ctx, store.DocCalibrationLog)
	if err != nil {
		return r.failRun(ctx, logger, run.ID, err)
	}
	profile := documentContent(profileDoc)
	calLog := documentContent(calDoc)

	result, err := r.discover(ctx, DiscoveryRequest{
		SourceName:        r.cfg.Source.Name,
		SearchPrompt:      r.cfg.Source.SearchPrompt,
		MaxResults:        r.cfg.Source.MaxResults,
		PreferenceProfile: profile,
	})
	if err != nil {
		return r.failRun(ctx, logger, run.ID,
			services.Wrap(services.ErrExternalTool, "discover", "search", "discovery failed", err))
	}
	stats.Discovered = len(result.Listings)
	logger.Debug("discovery stage complete",
		logging.String(logging.FieldStage, "discover"),
		logging.Int("candidates", len(result.Listings)),
		logging.Int("tool_calls", result.ToolCalls),
		logging.Int("steps", result.Steps))

	candidates := make([]*store.Listing, 0, len(result.Listings))
	for _, cand := range result.Listings {
		if cand == nil || cand.SourceName == "" || cand.SourceID == "" {
			stats.Dropped++
			logger.Warn("dropping candidate without source identity",
				logging.String("source", r.cfg.Source.Name))
			continue
		}
		candidates = append(candidates, cand)
	}

	fresh := make([]*store.Listing, 0, len(candidates))
	for _, cand := range candidates {
		exists, err := r.store.ListingExists(ctx, cand.SourceName, cand.SourceID)
		if err != nil {
			return r.failRun(ctx, logger, run.ID, err)
		}
		if exists {
			stats.Duplicates++
			continue
		}
		fresh = append(fresh, cand)
	}

	if r.hydrateEnabled() && len(fresh) > 0 {
		r.hydrateBatch(ctx, logger, fresh)
	}
	enriched := make([]bool, len(fresh))
	if r.enrichEnabled() && len(fresh) > 0 {
		r.enrichBatch(ctx, logger, fresh, profile, enriched, &stats)
	}
	if r.rate != nil && len(fresh) > 0 {
		r.rateBatch(ctx, logger, fresh, profile, calLog, &stats)
	}

	insertedIDs := make([]string, len(fresh))
	for i, listing := range fresh {
		stored, err := r.store.InsertListing(ctx, listing)
		if errors.Is(err, store.ErrDuplicateKey) {
			stats.Duplicates++
			logger.Debug("listing already stored",
				logging.String("source_id", listing.SourceID))
			continue
		}
		if err != nil {
			return r.failRun(ctx, logger, run.ID, err)
		}
		stats.New++
		insertedIDs[i] = stored.ID
	}
	for i, id := range insertedIDs {
		if id == "" || !enriched[i] {
			continue
		}
		if err := r.store.MarkEnriched(ctx, id); err != nil {
			logger.Warn("failed to mark listing enriched",
				logging.String(logging.FieldListingID, id), logging.Error(err))
		}
	}

	if r.enrichEnabled() {
		if err := r.backfillEnrichment(ctx, logger, profile, calLog, &stats); err != nil {
			return r.failRun(ctx, logger, run.ID, err)
		}
	}
	if r.rate != nil && profileDoc != nil {
		if err := r.backfillRatings(ctx, logger, profile, calLog, &stats); err != nil {
			return r.failRun(ctx, logger, run.ID, err)
		}
	}

	if err := r.store.CompleteRun(ctx, run.ID, stats); err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "complete_run", "recording run completion", err)
	}
	logger.Info("pipeline run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("discovered", stats.Discovered),
		logging.Int("duplicates", stats.Duplicates),
		logging.Int("new", stats.New),
		logging.Int("enriched", stats.Enriched),
		logging.Int("rated", stats.Rated),
		logging.Int("backfilled_enrichment", stats.BackfilledEnrichment),
		logging.Int("re_rated", stats.ReRated),
		logging.Duration("elapsed", time.Since(started)))
	return &RunResult{RunID: run.ID, Stats: stats}, nil
}

// hydrateBatch fills in missing detail for the new listings in place.
// Hydration failures leave the listing as discovered.
func (r *Runner) hydrateBatch(ctx context.Context, logger *slog.Logger, fresh []*store.Listing) {
	results := pool.Map(ctx, fresh, r.cfg.Pipeline.HydrateConcurrency,
		func(ctx context.Context, listing *store.Listing) (map[string]any, error) {
			return r.hydrate(ctx, listing)
		})
	for i, res := range results {
		if res.Err != nil {
			logger.Warn("hydration failed",
				logging.String(logging.FieldStage, "hydrate"),
				logging.String("source_id", fresh[i].SourceID),
				logging.Bool("retryable", services.IsRetryable(res.Err)),
				logging.Error(res.Err))
			continue
		}
		applyPatch(fresh[i], res.Value)
	}
}

// enrichBatch derives extra attributes for the new listings in place and
// records which ones succeeded so they can be marked enriched after insert.
func (r *Runner) enrichBatch(ctx context.Context, logger *slog.Logger, fresh []*store.Listing, profile string, enriched []bool, stats *store.RunStats) {
	results := pool.Map(ctx, fresh, r.cfg.Pipeline.EnrichConcurrency,
		func(ctx context.Context, listing *store.Listing) (map[string]any, error) {
			return r.enrich(ctx, listing, r.cfg.Pipeline.EnrichmentPrompt, profile)
		})
	for i, res := range results {
		if res.Err != nil {
			logger.Warn("enrichment failed",
				logging.String(logging.FieldStage, "enrich"),
				logging.String("source_id", fresh[i].SourceID),
				logging.Bool("retryable", services.IsRetryable(res.Err)),
				logging.Error(res.Err))
			continue
		}
		applyPatch(fresh[i], res.Value)
		enriched[i] = true
		stats.Enriched++
	}
}

// rateBatch scores the new listings in place before they are stored.
func (r *Runner) rateBatch(ctx context.Context, logger *slog.Logger, fresh []*store.Listing, profile, calLog string, stats *store.RunStats) {
	results := pool.Map(ctx, fresh, r.cfg.Pipeline.RateConcurrency,
		func(ctx context.Context, listing *store.Listing) (*Rating, error) {
			return r.rateOne(ctx, listing, profile, calLog)
		})
	for i, res := range results {
		if res.Err != nil {
			logger.Warn("rating failed",
				logging.String(logging.FieldStage, "rate"),
				logging.String("source_id", fresh[i].SourceID),
				logging.Bool("retryable", services.IsRetryable(res.Err)),
				logging.Error(res.Err))
			continue
		}
		score := res.Value.Score
		fresh[i].AIRating = &score
		fresh[i].AIRatingReason = res.Value.Reason
		stats.Rated++
	}
}

// backfillEnrichment sweeps every stored listing that still lacks
// enrichment, persists the derived attributes, and re-rates the listings it
// healed from a fresh read so the rating sees the merged fields.
func (r *Runner) backfillEnrichment(ctx context.Context, logger *slog.Logger, profile, calLog string, stats *store.RunStats) error {
	backlog, err := r.store.UnenrichedListings(ctx, 0)
	if err != nil {
		return err
	}
	if len(backlog) == 0 {
		return nil
	}
	logger.Info("enrichment backfill started",
		logging.String(logging.FieldEventType, "backfill_start"),
		logging.Int("pending", len(backlog)))

	results := pool.Map(ctx, backlog, r.cfg.Pipeline.EnrichConcurrency,
		func(ctx context.Context, listing *store.Listing) (map[string]any, error) {
			return r.enrich(ctx, listing, r.cfg.Pipeline.EnrichmentPrompt, profile)
		})
	healed := make([]string, 0, len(backlog))
	for i, res := range results {
		listing := backlog[i]
		if res.Err != nil {
			logger.Warn("enrichment backfill failed",
				logging.String(logging.FieldListingID, listing.ID),
				logging.Error(res.Err))
			continue
		}
		if len(res.Value) > 0 {
			if err := r.store.MergeListingFields(ctx, listing.ID, res.Value); err != nil {
				return err
			}
		}
		if err := r.store.MarkEnriched(ctx, listing.ID); err != nil {
			return err
		}
		stats.BackfilledEnrichment++
		healed = append(healed, listing.ID)
	}
	if r.rate == nil || len(healed) == 0 {
		return nil
	}

	// Re-read before re-rating: the rater must see the merged fields, not
	// the stale pre-backfill rows.
	current := make([]*store.Listing, 0, len(healed))
	for _, id := range healed {
		listing, err := r.store.GetListing(ctx, id)
		if err != nil {
			return err
		}
		if listing == nil {
			continue
		}
		current = append(current, listing)
	}
	rated := pool.Map(ctx, current, r.cfg.Pipeline.RateConcurrency,
		func(ctx context.Context, listing *store.Listing) (*Rating, error) {
			return r.rateOne(ctx, listing, profile, calLog)
		})
	for i, res := range rated {
		if res.Err != nil {
			logger.Warn("re-rating after backfill failed",
				logging.String(logging.FieldListingID, current[i].ID),
				logging.Error(res.Err))
			continue
		}
		if err := r.store.UpdateAIRating(ctx, current[i].ID, res.Value.Score, res.Value.Reason); err != nil {
			return err
		}
		stats.ReRated++
	}
	return nil
}

// backfillRatings sweeps every stored listing that has no AI rating yet.
func (r *Runner) backfillRatings(ctx context.Context, logger *slog.Logger, profile, calLog string, stats *store.RunStats) error {
	backlog, err := r.store.UnratedListings(ctx, 0)
	if err != nil {
		return err
	}
	if len(backlog) == 0 {
		return nil
	}
	results := pool.Map(ctx, backlog, r.cfg.Pipeline.RateConcurrency,
		func(ctx context.Context, listing *store.Listing) (*Rating, error) {
			return r.rateOne(ctx, listing, profile, calLog)
		})
	for i, res := range results {
		if res.Err != nil {
			logger.Warn("rating backfill failed",
				logging.String(logging.FieldListingID, backlog[i].ID),
				logging.Error(res.Err))
			continue
		}
		if err := r.store.UpdateAIRating(ctx, backlog[i].ID, res.Value.Score, res.Value.Reason); err != nil {
			return err
		}
		stats.Rated++
	}
	return nil
}

// rateOne calls the rater and rejects verdicts outside the 1-5 scale so a
// misbehaving rater cannot persist nonsense scores.
func (r *Runner) rateOne(ctx context.Context, listing *store.Listing, profile, calLog string) (*Rating, error) {
	rating, err := r.rate(ctx, listing, profile, calLog)
	if err != nil {
		return nil, err
	}
	if rating == nil || rating.Score < 1 || rating.Score > 5 {
		return nil, services.Wrap(services.ErrValidation, "rate", "verdict",
			fmt.Sprintf("rating outside 1-5 scale: %v", ratingScore(rating)), nil)
	}
	return rating, nil
}

func (r *Runner) failRun(ctx context.Context, logger *slog.Logger, runID string, runErr error) (*RunResult, error) {
	logger.Error("pipeline run failed",
		logging.String(logging.FieldEventType, "run_failed"),
		logging.Error(runErr))
	if err := r.store.FailRun(ctx, runID, runErr.Error()); err != nil {
		logger.Error("failed to record run failure", logging.Error(err))
	}
	return nil, runErr
}

// applyPatch merges a collaborator patch into an in-memory listing.
// Recognized base fields update the listing columns; everything else lands
// in the open extension map. Empty patch values never overwrite data the
// listing already has.
func applyPatch(listing *store.Listing, patch map[string]any) {
	for key, value := range patch {
		switch key {
		case "title":
			if s, ok := value.(string); ok && s != "" {
				listing.Title = s
			}
		case "description":
			if s, ok := value.(string); ok && s != "" {
				listing.Description = s
			}
		case "source_url":
			if s, ok := value.(string); ok && s != "" {
				listing.SourceURL = s
			}
		case "images":
			if imgs := toStringSlice(value); len(imgs) > 0 {
				listing.Images = imgs
			}
		default:
			if listing.Fields == nil {
				listing.Fields = make(map[string]any)
			}
			listing.Fields[key] = value
		}
	}
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func documentContent(doc *store.Document) string {
	if doc == nil {
		return ""
	}
	return doc.Content
}

func ratingScore(rating *Rating) any {
	if rating == nil {
		return nil
	}
	return rating.Score
}
