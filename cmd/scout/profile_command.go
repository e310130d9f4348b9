package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/store"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the preference profile used to rate listings",
	}

	profileCmd.AddCommand(newProfileShowCommand(ctx))
	profileCmd.AddCommand(newProfileSetCommand(ctx))

	return profileCmd
}

func newProfileShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current preference profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				doc, err := st.GetDocument(cmd.Context(), store.DocPreferenceProfile)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if doc == nil {
					fmt.Fprintln(out, "No preference profile set; use `scout profile set` to create one.")
					return nil
				}
				fmt.Fprintln(out, doc.Content)
				return nil
			})
		},
	}
}

func newProfileSetCommand(ctx *commandContext) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "set [text]",
		Short: "Replace the preference profile",
		Long: `Replace the preference profile used by the rating stage.

The profile can be given as an argument, read from a file with --file, or
piped on stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := profileContent(cmd, args, fromFile)
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := st.PutDocument(cmd.Context(), store.DocPreferenceProfile, content); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Preference profile updated")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read the profile from a file")
	return cmd
}

func profileContent(cmd *cobra.Command, args []string, fromFile string) (string, error) {
	var content string
	switch {
	case fromFile != "":
		expanded, err := config.ExpandPath(fromFile)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return "", fmt.Errorf("read profile file: %w", err)
		}
		content = string(data)
	case len(args) == 1:
		content = args[0]
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read profile from stdin: %w", err)
		}
		content = string(data)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("preference profile is empty")
	}
	return content, nil
}
