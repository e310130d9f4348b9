package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/store"
)

func newBacklogCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Show how many listings still need enrichment or rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				unenriched, err := st.UnenrichedListings(cmd.Context(), 0)
				if err != nil {
					return err
				}
				unrated, err := st.UnratedListings(cmd.Context(), 0)
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, map[string]int{
						"unenriched": len(unenriched),
						"unrated":    len(unrated),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Unenriched: %d\n", len(unenriched))
				fmt.Fprintf(out, "Unrated:    %d\n", len(unrated))
				if len(unenriched) > 0 || len(unrated) > 0 {
					fmt.Fprintln(out, "The next `scout run` will work through the backlog.")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
