// Package logging configures structured slog output for scout.
//
// Components receive a *slog.Logger and attach their identity with
// NewComponentLogger. Console output is meant for interactive use; the
// JSON format is for log collectors and the on-disk scout.log file.
package logging
