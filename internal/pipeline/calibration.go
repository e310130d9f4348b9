package pipeline

import (
	"context"
	"time"

	"scout/internal/logging"
	"scout/internal/services"
	"scout/internal/store"
)

// RateResult is the outcome of a user rating, including whether the rating
// pushed the override backlog over the calibration threshold.
type RateResult struct {
	Listing              *store.Listing
	CalibrationTriggered bool
}

// RateListing records an explicit user rating. When the user's verdict
// diverges from the AI rating, the disagreement is appended to the override
// history; once enough overrides accumulate since the calibration log was
// last rewritten, a background calibration refresh kicks off. Calibration
// problems never fail the rating itself.
func (r *Runner) RateListing(ctx context.Context, id string, rating int, note string) (*RateResult, error) {
	current, err := r.store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "rate_listing", "listing "+id, nil)
	}
	updated, err := r.store.UpdateUserRating(ctx, id, rating, note)
	if err != nil {
		return nil, err
	}

	triggered := false
	if current.AIRating != nil && *current.AIRating != rating {
		_, err := r.store.InsertOverride(ctx, &store.RatingOverride{
			ListingID:  id,
			AIRating:   *current.AIRating,
			UserRating: rating,
			UserNote:   note,
		})
		if err != nil {
			r.logger.Warn("failed to record rating override",
				logging.String(logging.FieldListingID, id), logging.Error(err))
			return &RateResult{Listing: updated}, nil
		}
		triggered = r.maybeStartCalibration(ctx)
	}
	return &RateResult{Listing: updated, CalibrationTriggered: triggered}, nil
}

// maybeStartCalibration launches a background calibration refresh when the
// override count since the last calibration crosses the threshold and no
// refresh is already in flight.
func (r *Runner) maybeStartCalibration(ctx context.Context) bool {
	if r.calibrate == nil {
		return false
	}
	since, err := r.calibratedAt(ctx)
	if err != nil {
		r.logger.Warn("failed to read calibration log", logging.Error(err))
		return false
	}
	count, err := r.store.CountOverridesSince(ctx, since)
	if err != nil {
		r.logger.Warn("failed to count rating overrides", logging.Error(err))
		return false
	}
	if count < r.cfg.Pipeline.CalibrationThreshold {
		return false
	}

	r.calMu.Lock()
	defer r.calMu.Unlock()
	if r.calRunning {
		return false
	}
	r.calRunning = true
	done := make(chan struct{})
	r.calDone = done
	go func() {
		// Detached from the triggering request on purpose: the refresh
		// outlives the rating call that started it.
		defer r.finishCalibration(done)
		if err := r.refreshCalibrationLog(context.Background()); err != nil {
			r.logger.Error("calibration refresh failed", logging.Error(err))
		}
	}()
	return true
}

// Calibrate forces a calibration refresh and waits for it to finish. If a
// background refresh is already running, it waits for that one instead of
// starting another.
func (r *Runner) Calibrate(ctx context.Context) error {
	if r.calibrate == nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "calibrate", "no calibration collaborator configured", nil)
	}
	r.calMu.Lock()
	if r.calRunning {
		done := r.calDone
		r.calMu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.calRunning = true
	done := make(chan struct{})
	r.calDone = done
	r.calMu.Unlock()
	defer r.finishCalibration(done)

	return r.refreshCalibrationLog(ctx)
}

func (r *Runner) finishCalibration(done chan struct{}) {
	r.calMu.Lock()
	r.calRunning = false
	r.calDone = nil
	r.calMu.Unlock()
	close(done)
}

// refreshCalibrationLog rewrites the calibration log from the full override
// history and stores the replacement document.
func (r *Runner) refreshCalibrationLog(ctx context.Context) error {
	overrides, err := r.store.ListOverrides(ctx)
	if err != nil {
		return err
	}
	calDoc, err := r.store.GetDocument(ctx, store.DocCalibrationLog)
	if err != nil {
		return err
	}
	profileDoc, err := r.store.GetDocument(ctx, store.DocPreferenceProfile)
	if err != nil {
		return err
	}

	r.logger.Info("calibration refresh started",
		logging.String(logging.FieldEventType, "calibration_start"),
		logging.Int("overrides", len(overrides)))
	newLog, err := r.calibrate(ctx, overrides, documentContent(calDoc), documentContent(profileDoc))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "calibrate", "rewrite", "calibration collaborator failed", err)
	}
	if err := r.store.PutDocument(ctx, store.DocCalibrationLog, newLog); err != nil {
		return err
	}
	r.logger.Info("calibration refresh completed",
		logging.String(logging.FieldEventType, "calibration_complete"))
	return nil
}

// calibratedAt returns when the calibration log was last rewritten, or the
// zero time when no log exists yet so every override counts.
func (r *Runner) calibratedAt(ctx context.Context) (time.Time, error) {
	doc, err := r.store.GetDocument(ctx, store.DocCalibrationLog)
	if err != nil {
		return time.Time{}, err
	}
	if doc == nil {
		return time.Time{}, nil
	}
	return doc.UpdatedAt, nil
}
