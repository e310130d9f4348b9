package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List pipeline run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				runs, err := st.ListRuns(cmd.Context(), limitFlag)
				if err != nil {
					return err
				}

				if jsonOutput {
					views := make([]runView, 0, len(runs))
					for _, run := range runs {
						views = append(views, newRunView(run))
					}
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						string(run.Status),
						run.StartedAt.Local().Format("2006-01-02 15:04"),
						runDuration(run),
						runSummary(run),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "STATUS", "STARTED", "DURATION", "SUMMARY"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

type runView struct {
	ID          string          `json:"id"`
	Status      store.RunStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Stats       *store.RunStats `json:"stats,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func newRunView(run *store.PipelineRun) runView {
	return runView{
		ID:          run.ID,
		Status:      run.Status,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Stats:       run.Stats,
		Error:       run.Error,
	}
}

func runDuration(run *store.PipelineRun) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
}

func runSummary(run *store.PipelineRun) string {
	if run.Status == store.RunFailed {
		return truncate(run.Error, 60)
	}
	if run.Stats == nil {
		return "-"
	}
	return fmt.Sprintf("%d discovered, %d new, %d rated",
		run.Stats.Discovered, run.Stats.New, run.Stats.Rated)
}
