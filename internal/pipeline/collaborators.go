package pipeline

import (
	"context"

	"scout/internal/store"
)

// DiscoveryRequest carries everything a discovery collaborator needs to
// search one source. PreferenceProfile may be empty when no profile has
// been captured yet.
type DiscoveryRequest struct {
	SourceName        string
	SearchPrompt      string
	MaxResults        int
	PreferenceProfile string
}

// DiscoveryResult is the raw harvest of one discovery call. Listings carry
// source identity and whatever base fields the source exposed; IDs are
// assigned at insert time. ToolCalls and Steps are informational counters
// for collaborators that drive an agentic search.
type DiscoveryResult struct {
	Listings  []*store.Listing
	ToolCalls int
	Steps     int
}

// Rating is one rater verdict.
type Rating struct {
	Score  int
	Reason string
}

// Discoverer searches the configured source and returns candidate listings.
// A discovery failure is structural: the whole run fails.
type Discoverer func(ctx context.Context, req DiscoveryRequest) (*DiscoveryResult, error)

// Hydrater fetches detail-page data for a single listing and returns a
// partial patch of base fields and domain attributes. Failures are
// per-listing: the listing proceeds with whatever it already has.
type Hydrater func(ctx context.Context, listing *store.Listing) (map[string]any, error)

// Enricher derives additional attributes for a listing according to the
// configured enrichment instructions, informed by the preference profile.
// Failures are per-listing; the self-heal pass retries unenriched listings
// on later runs.
type Enricher func(ctx context.Context, listing *store.Listing, prompt, profile string) (map[string]any, error)

// Rater scores a listing against the preference profile, informed by the
// accumulated calibration log. Failures are per-listing.
type Rater func(ctx context.Context, listing *store.Listing, profile, calibrationLog string) (*Rating, error)

// Calibrator rewrites the calibration log from the full override history.
// It receives the current log (empty when none exists) and the preference
// profile, and returns the replacement log text.
type Calibrator func(ctx context.Context, overrides []*store.RatingOverride, currentLog, profile string) (string, error)

// Collaborators bundles the stage functions a Runner is built from.
// Discover is required; the others are optional and their stages are
// skipped when nil.
type Collaborators struct {
	Discover  Discoverer
	Hydrate   Hydrater
	Enrich    Enricher
	Rate      Rater
	Calibrate Calibrator
}
