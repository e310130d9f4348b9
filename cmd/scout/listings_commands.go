package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/pipeline"
	"scout/internal/services"
	"scout/internal/store"
)

func newListingsCommand(ctx *commandContext) *cobra.Command {
	listingsCmd := &cobra.Command{
		Use:   "listings",
		Short: "Browse, rate, and archive stored listings",
	}

	listingsCmd.AddCommand(newListingsListCommand(ctx))
	listingsCmd.AddCommand(newListingsShowCommand(ctx))
	listingsCmd.AddCommand(newListingsRateCommand(ctx))
	listingsCmd.AddCommand(newListingsArchiveCommand(ctx))

	return listingsCmd
}

func newListingsListCommand(ctx *commandContext) *cobra.Command {
	var filterFlag string
	var sortFlag string
	var limitFlag int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				listings, err := st.ListListings(cmd.Context(), store.ListOptions{
					Filter: store.ListFilter(filterFlag),
					Sort:   store.ListSort(sortFlag),
					Limit:  limitFlag,
				})
				if err != nil {
					return err
				}

				if jsonOutput {
					views := make([]listingView, 0, len(listings))
					for _, listing := range listings {
						views = append(views, newListingView(listing))
					}
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(listings) == 0 {
					fmt.Fprintln(out, "No listings found")
					return nil
				}
				rows := make([][]string, 0, len(listings))
				for _, listing := range listings {
					rows = append(rows, []string{
						listing.ID,
						ratingCell(listing.AIRating),
						ratingCell(listing.UserRating),
						truncate(listing.Title, 48),
						listing.DiscoveredAt.Local().Format("2006-01-02"),
					})
				}
				// Tab-separated when piped so the output stays greppable.
				if !isTerminal(out) {
					for _, row := range rows {
						fmt.Fprintln(out, strings.Join(row, "\t"))
					}
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "AI", "USER", "TITLE", "DISCOVERED"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", string(store.FilterNew), "Filter: new, shortlist, archived, all")
	cmd.Flags().StringVar(&sortFlag, "sort", string(store.SortRating), "Sort: rating, newest")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum listings to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newListingsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one listing in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				listing, err := st.GetListing(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if listing == nil {
					return services.Wrap(services.ErrNotFound, "cli", "show", "listing "+args[0], nil)
				}

				if jsonOutput {
					return writeJSON(cmd, newListingView(listing))
				}
				printListing(cmd, listing)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newListingsRateCommand(ctx *commandContext) *cobra.Command {
	var noteFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "rate <id> <1-5>",
		Short: "Record your rating for a listing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "rate",
					fmt.Sprintf("rating must be an integer between 1 and 5, got %q", args[1]), nil)
			}

			return ctx.withQuietRunner(func(cfg *config.Config, st *store.Store, runner *pipeline.Runner) error {
				result, err := runner.RateListing(cmd.Context(), args[0], rating, noteFlag)
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"listing":               newListingView(result.Listing),
						"calibration_triggered": result.CalibrationTriggered,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Rated %s: %d\n", result.Listing.ID, rating)
				if result.CalibrationTriggered {
					fmt.Fprintln(out, "Calibration refresh started in the background")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&noteFlag, "note", "", "Optional note explaining the rating")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newListingsArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a listing so it stops appearing in the default view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := st.ArchiveListing(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived %s\n", args[0])
				return nil
			})
		},
	}
}

// listingView is the JSON projection of a listing.
type listingView struct {
	ID             string         `json:"id"`
	SourceName     string         `json:"source_name"`
	SourceID       string         `json:"source_id"`
	SourceURL      string         `json:"source_url,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Images         []string       `json:"images,omitempty"`
	DiscoveredAt   time.Time      `json:"discovered_at"`
	AIRating       *int           `json:"ai_rating,omitempty"`
	AIRatingReason string         `json:"ai_rating_reason,omitempty"`
	UserRating     *int           `json:"user_rating,omitempty"`
	UserRatingNote string         `json:"user_rating_note,omitempty"`
	Archived       bool           `json:"archived"`
	EnrichedAt     *time.Time     `json:"enriched_at,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`
}

func newListingView(listing *store.Listing) listingView {
	return listingView{
		ID:             listing.ID,
		SourceName:     listing.SourceName,
		SourceID:       listing.SourceID,
		SourceURL:      listing.SourceURL,
		Title:          listing.Title,
		Description:    listing.Description,
		Images:         listing.Images,
		DiscoveredAt:   listing.DiscoveredAt,
		AIRating:       listing.AIRating,
		AIRatingReason: listing.AIRatingReason,
		UserRating:     listing.UserRating,
		UserRatingNote: listing.UserRatingNote,
		Archived:       listing.Archived,
		EnrichedAt:     listing.EnrichedAt,
		Fields:         listing.Fields,
	}
}

func printListing(cmd *cobra.Command, listing *store.Listing) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", listing.Title)
	fmt.Fprintf(out, "  ID:          %s\n", listing.ID)
	fmt.Fprintf(out, "  Source:      %s (%s)\n", listing.SourceName, listing.SourceID)
	if listing.SourceURL != "" {
		fmt.Fprintf(out, "  URL:         %s\n", listing.SourceURL)
	}
	fmt.Fprintf(out, "  Discovered:  %s\n", listing.DiscoveredAt.Local().Format(time.RFC1123))
	if listing.AIRating != nil {
		fmt.Fprintf(out, "  AI rating:   %d", *listing.AIRating)
		if listing.AIRatingReason != "" {
			fmt.Fprintf(out, " (%s)", listing.AIRatingReason)
		}
		fmt.Fprintln(out)
	}
	if listing.UserRating != nil {
		fmt.Fprintf(out, "  Your rating: %d", *listing.UserRating)
		if listing.UserRatingNote != "" {
			fmt.Fprintf(out, " (%s)", listing.UserRatingNote)
		}
		fmt.Fprintln(out)
	}
	if listing.Archived {
		fmt.Fprintln(out, "  Archived:    yes")
	}
	if listing.Description != "" {
		fmt.Fprintf(out, "\n%s\n", listing.Description)
	}
	if len(listing.Fields) > 0 {
		fmt.Fprintln(out)
		for _, key := range sortedKeys(listing.Fields) {
			fmt.Fprintf(out, "  %s: %v\n", key, listing.Fields[key])
		}
	}
	for _, image := range listing.Images {
		fmt.Fprintf(out, "  image: %s\n", image)
	}
}

func ratingCell(rating *int) string {
	if rating == nil {
		return "-"
	}
	return strconv.Itoa(*rating)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
