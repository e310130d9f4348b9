package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/pipeline"
	"scout/internal/store"
)

func newCalibrateCommand(ctx *commandContext) *cobra.Command {
	var showLog bool

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Rewrite the rating calibration log from the override history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQuietRunner(func(cfg *config.Config, st *store.Store, runner *pipeline.Runner) error {
				if err := runner.Calibrate(cmd.Context()); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Calibration log updated")
				if !showLog {
					return nil
				}
				doc, err := st.GetDocument(cmd.Context(), store.DocCalibrationLog)
				if err != nil {
					return err
				}
				if doc != nil {
					fmt.Fprintf(out, "\n%s\n", doc.Content)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showLog, "show", false, "Print the new calibration log")
	return cmd
}
