// Package pipeline orchestrates the discovery workflow: discover candidate
// listings, drop duplicates, hydrate and enrich the survivors, rate them
// against the preference profile, persist the batch, then sweep the stored
// backlog so earlier partial failures converge. It also owns the rating
// feedback loop that recalibrates the AI rater from user overrides.
//
// The stages talk to the outside world through collaborator functions
// injected at construction, so the orchestration logic carries no knowledge
// of any particular model provider.
package pipeline
