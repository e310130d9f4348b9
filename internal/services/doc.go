// Package services holds the shared error taxonomy for external
// collaborators (discovery, enrichment, rating, calibration). Errors are
// tagged with sentinel markers so callers classify with errors.Is instead
// of inspecting message text.
package services
