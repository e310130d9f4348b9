package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"scout/internal/store"
)

const discoverySystemPrompt = `You are a listing scout. Search for current listings matching the user's instructions.
Respond with a JSON array of candidates. Each candidate is an object with:
  "source_id": stable identifier of the listing on its source (required),
  "title": short human-readable title,
  "description": summary of the listing,
  "url": canonical listing URL,
  "images": array of image URLs,
  "fields": object of additional attributes (price, location, size, ...).
Return only listings you actually found. Respond with JSON and nothing else.`

const hydrateSystemPrompt = `You are a listing researcher. Given one listing, look up its detail page and fill in missing information.
Respond with a JSON object containing only the fields you could verify: "title", "description", "source_url", "images", plus any additional attributes.
Omit fields you could not verify. Respond with JSON and nothing else.`

const enrichSystemPrompt = `You are a listing analyst. Derive the requested attributes for the given listing.
Respond with a JSON object mapping attribute names to values. Respond with JSON and nothing else.`

const rateSystemPrompt = `You are a listing rater. Score how well the listing matches the user's preferences on a scale of 1 (poor match) to 5 (excellent match).
Respond with a JSON object: {"score": <1-5>, "reason": "<one or two sentences>"}. Respond with JSON and nothing else.`

const calibrateSystemPrompt = `You maintain a calibration log for a listing rater: a concise set of scoring adjustments learned from cases where the user disagreed with the rater.
Rewrite the log from the full override history. Keep it short and actionable, merging old lessons that still hold with new ones. Respond with the log text and nothing else.`

func buildDiscoveryPrompt(sourceName, searchPrompt string, maxResults int, profile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", sourceName)
	fmt.Fprintf(&b, "Instructions: %s\n", searchPrompt)
	if maxResults > 0 {
		fmt.Fprintf(&b, "Return at most %d candidates.\n", maxResults)
	}
	if profile != "" {
		fmt.Fprintf(&b, "\nUser preferences, for prioritizing what to return:\n%s\n", profile)
	}
	return b.String()
}

func buildHydratePrompt(listing *store.Listing) string {
	return "Listing to research:\n" + listingContext(listing)
}

func buildEnrichPrompt(listing *store.Listing, prompt, profile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attributes to derive: %s\n\n", prompt)
	if profile != "" {
		fmt.Fprintf(&b, "User preferences, for context:\n%s\n\n", profile)
	}
	b.WriteString("Listing:\n")
	b.WriteString(listingContext(listing))
	return b.String()
}

func buildRatePrompt(listing *store.Listing, profile, calibrationLog string) string {
	var b strings.Builder
	if profile != "" {
		fmt.Fprintf(&b, "User preferences:\n%s\n\n", profile)
	} else {
		b.WriteString("No preference profile is available; rate on general desirability.\n\n")
	}
	if calibrationLog != "" {
		fmt.Fprintf(&b, "Scoring adjustments from past disagreements:\n%s\n\n", calibrationLog)
	}
	b.WriteString("Listing to rate:\n")
	b.WriteString(listingContext(listing))
	return b.String()
}

func buildCalibratePrompt(overrides []*store.RatingOverride, currentLog, profile string) string {
	var b strings.Builder
	if profile != "" {
		fmt.Fprintf(&b, "User preferences:\n%s\n\n", profile)
	}
	if currentLog != "" {
		fmt.Fprintf(&b, "Current calibration log:\n%s\n\n", currentLog)
	} else {
		b.WriteString("There is no calibration log yet.\n\n")
	}
	b.WriteString("Override history, oldest first:\n")
	for _, o := range overrides {
		fmt.Fprintf(&b, "- listing %s: rater said %d, user said %d", o.ListingID, o.AIRating, o.UserRating)
		if o.UserNote != "" {
			fmt.Fprintf(&b, " (%q)", o.UserNote)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// listingContext renders a listing as a compact JSON blob for prompts.
func listingContext(listing *store.Listing) string {
	ctx := map[string]any{
		"source_name": listing.SourceName,
		"source_id":   listing.SourceID,
		"title":       listing.Title,
	}
	if listing.Description != "" {
		ctx["description"] = listing.Description
	}
	if listing.SourceURL != "" {
		ctx["url"] = listing.SourceURL
	}
	if len(listing.Fields) > 0 {
		ctx["fields"] = listing.Fields
	}
	encoded, err := json.Marshal(ctx)
	if err != nil {
		return fmt.Sprintf("%s %s: %s", listing.SourceName, listing.SourceID, listing.Title)
	}
	return string(encoded)
}
