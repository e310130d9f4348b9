// Package store persists scout state in a single SQLite database: harvested
// listings with their open extension-field map, the singleton preference and
// calibration documents, the append-only rating-override and pipeline-run
// logs, and per-source cursors.
//
// The database runs in WAL mode so reads are not blocked by the writer.
// Schema changes are additive, forward-only migrations embedded in the
// binary and applied by version. Constraint violations surface as typed
// sentinels (ErrDuplicateKey) so callers never match on message text.
package store
