package pipeline

import (
	"log/slog"
	"sync"

	"scout/internal/config"
	"scout/internal/logging"
	"scout/internal/services"
	"scout/internal/store"
)

// Runner drives pipeline runs and the rating feedback loop against a single
// store. Safe for concurrent use; at most one calibration refresh is in
// flight at a time.
type Runner struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	discover  Discoverer
	hydrate   Hydrater
	enrich    Enricher
	rate      Rater
	calibrate Calibrator

	calMu      sync.Mutex
	calRunning bool
	calDone    chan struct{}
}

// NewRunner wires a Runner from its collaborators. Discover must be set.
func NewRunner(cfg *config.Config, st *store.Store, logger *slog.Logger, collab Collaborators) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new_runner", "config is required", nil)
	}
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new_runner", "store is required", nil)
	}
	if collab.Discover == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new_runner", "discover collaborator is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		store:     st,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		discover:  collab.Discover,
		hydrate:   collab.Hydrate,
		enrich:    collab.Enrich,
		rate:      collab.Rate,
		calibrate: collab.Calibrate,
	}, nil
}

func (r *Runner) hydrateEnabled() bool {
	return r.hydrate != nil && r.cfg.Pipeline.HydrateEnabled
}

func (r *Runner) enrichEnabled() bool {
	return r.enrich != nil && r.cfg.Pipeline.EnrichmentPrompt != ""
}
