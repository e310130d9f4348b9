package store

import "time"

// Listing is a discovered domain entity with a stable source-provided
// identity. Base columns are fixed; domain-specific attributes (rent,
// bedrooms, ...) live in the open Fields map persisted as JSON.
type Listing struct {
	ID             string
	SourceName     string
	SourceID       string
	SourceURL      string
	Title          string
	Description    string
	Images         []string
	DiscoveredAt   time.Time
	AIRating       *int
	AIRatingReason string
	UserRating     *int
	UserRatingNote string
	Archived       bool
	EnrichedAt     *time.Time
	Fields         map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SourceKey pairs the natural key components of a listing.
type SourceKey struct {
	SourceName string
	SourceID   string
}

// Key returns the listing's natural key.
func (l *Listing) Key() SourceKey {
	return SourceKey{SourceName: l.SourceName, SourceID: l.SourceID}
}

// ListFilter selects which listings a query returns.
type ListFilter string

const (
	FilterNew       ListFilter = "new"       // not archived, no user rating yet
	FilterShortlist ListFilter = "shortlist" // not archived, user rating >= 4
	FilterArchived  ListFilter = "archived"
	FilterAll       ListFilter = "all"
)

// ListSort selects result ordering.
type ListSort string

const (
	SortRating ListSort = "rating" // AI rating descending, then newest
	SortNewest ListSort = "newest"
)

// ListOptions parameterizes ListListings.
type ListOptions struct {
	Filter ListFilter
	Sort   ListSort
	Limit  int
	Offset int
}

// DocType identifies a singleton document.
type DocType string

const (
	DocPreferenceProfile DocType = "preference_profile"
	DocCalibrationLog    DocType = "calibration_log"
)

// Document is a singleton text document keyed by type, overwritten in full
// on every update.
type Document struct {
	Type      DocType
	Content   string
	UpdatedAt time.Time
}

// RatingOverride records a disagreement between an AI-assigned and a
// user-assigned rating. Immutable once created.
type RatingOverride struct {
	ID         string
	ListingID  string
	AIRating   int
	UserRating int
	UserNote   string
	CreatedAt  time.Time
}

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunStats aggregates the counters a pipeline run reports.
type RunStats struct {
	Discovered           int `json:"discovered"`
	Duplicates           int `json:"duplicates"`
	New                  int `json:"new"`
	Dropped              int `json:"dropped"`
	Enriched             int `json:"enriched"`
	Rated                int `json:"rated"`
	BackfilledEnrichment int `json:"backfilled_enrichment"`
	ReRated              int `json:"re_rated"`
}

// PipelineRun is one orchestration run's bookkeeping record.
type PipelineRun struct {
	ID          string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      RunStatus
	Stats       *RunStats
	Error       string
}

// SourceCursor tracks incremental-fetch position per source. The store
// supports it but the orchestrator does not advance it yet.
type SourceCursor struct {
	SourceName  string
	CursorValue string
	LastRunAt   time.Time
}
