package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/pipeline"
	"scout/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one discovery pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withRunner(func(cfg *config.Config, st *store.Store, runner *pipeline.Runner) error {
				lock := flock.New(cfg.LockPath())
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire run lock: %w", err)
				}
				if !locked {
					return fmt.Errorf("another scout run is already in progress (lock %s)", cfg.LockPath())
				}
				defer lock.Unlock()

				result, err := runner.Run(signalCtx)
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"run_id": result.RunID,
						"stats":  result.Stats,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s completed\n", result.RunID)
				fmt.Fprint(out, renderStats(result.Stats))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func renderStats(stats store.RunStats) string {
	rows := [][]string{
		{"discovered", fmt.Sprintf("%d", stats.Discovered)},
		{"duplicates", fmt.Sprintf("%d", stats.Duplicates)},
		{"new", fmt.Sprintf("%d", stats.New)},
		{"dropped", fmt.Sprintf("%d", stats.Dropped)},
		{"enriched", fmt.Sprintf("%d", stats.Enriched)},
		{"rated", fmt.Sprintf("%d", stats.Rated)},
		{"backfilled enrichment", fmt.Sprintf("%d", stats.BackfilledEnrichment)},
		{"re-rated", fmt.Sprintf("%d", stats.ReRated)},
	}
	return renderTable([]string{"STAT", "COUNT"}, rows, []columnAlignment{alignLeft, alignRight}) + "\n"
}
