package assistant

import (
	"context"
	"strings"

	"scout/internal/logging"
	"scout/internal/pipeline"
	"scout/internal/services"
	"scout/internal/store"
)

// candidatePayload is the wire shape of one discovered listing.
type candidatePayload struct {
	SourceID    string         `json:"source_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	Images      []string       `json:"images"`
	Fields      map[string]any `json:"fields"`
}

// ratingPayload is the wire shape of one rater verdict.
type ratingPayload struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Collaborators assembles the pipeline collaborator set backed by this
// client. Hydrate and Enrich are always populated; the pipeline decides
// whether their stages run based on configuration.
func (c *Client) Collaborators() pipeline.Collaborators {
	return pipeline.Collaborators{
		Discover:  c.Discover,
		Hydrate:   c.Hydrate,
		Enrich:    c.Enrich,
		Rate:      c.Rate,
		Calibrate: c.Calibrate,
	}
}

// Discover searches the source with the discovery model and converts the
// returned candidates into listings.
func (c *Client) Discover(ctx context.Context, req pipeline.DiscoveryRequest) (*pipeline.DiscoveryResult, error) {
	prompt := buildDiscoveryPrompt(req.SourceName, req.SearchPrompt, req.MaxResults, req.PreferenceProfile)
	response, err := c.complete(ctx, c.discoveryModel, discoverySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	payloads, err := parseResponse[[]candidatePayload](response)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "assistant", "discover", "parsing candidates", err)
	}

	listings := make([]*store.Listing, 0, len(payloads))
	for _, p := range payloads {
		listings = append(listings, &store.Listing{
			SourceName:  req.SourceName,
			SourceID:    p.SourceID,
			SourceURL:   p.URL,
			Title:       p.Title,
			Description: p.Description,
			Images:      p.Images,
			Fields:      p.Fields,
		})
	}
	c.logger.Info("discovery finished",
		logging.String("source", req.SourceName),
		logging.Int("candidates", len(listings)))
	return &pipeline.DiscoveryResult{Listings: listings}, nil
}

// Hydrate asks the model to fill in missing detail for one listing.
func (c *Client) Hydrate(ctx context.Context, listing *store.Listing) (map[string]any, error) {
	response, err := c.complete(ctx, c.model, hydrateSystemPrompt, buildHydratePrompt(listing))
	if err != nil {
		return nil, err
	}
	patch, err := parseResponse[map[string]any](response)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "assistant", "hydrate", "parsing patch", err)
	}
	return patch, nil
}

// Enrich derives the configured attributes for one listing.
func (c *Client) Enrich(ctx context.Context, listing *store.Listing, prompt, profile string) (map[string]any, error) {
	response, err := c.complete(ctx, c.model, enrichSystemPrompt, buildEnrichPrompt(listing, prompt, profile))
	if err != nil {
		return nil, err
	}
	patch, err := parseResponse[map[string]any](response)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "assistant", "enrich", "parsing attributes", err)
	}
	return patch, nil
}

// Rate scores one listing against the preference profile.
func (c *Client) Rate(ctx context.Context, listing *store.Listing, profile, calibrationLog string) (*pipeline.Rating, error) {
	response, err := c.complete(ctx, c.model, rateSystemPrompt, buildRatePrompt(listing, profile, calibrationLog))
	if err != nil {
		return nil, err
	}
	payload, err := parseResponse[ratingPayload](response)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "assistant", "rate", "parsing verdict", err)
	}
	return &pipeline.Rating{Score: payload.Score, Reason: payload.Reason}, nil
}

// Calibrate rewrites the calibration log from the override history.
func (c *Client) Calibrate(ctx context.Context, overrides []*store.RatingOverride, currentLog, profile string) (string, error) {
	response, err := c.complete(ctx, c.model, calibrateSystemPrompt, buildCalibratePrompt(overrides, currentLog, profile))
	if err != nil {
		return "", err
	}
	newLog := strings.TrimSpace(response)
	if newLog == "" {
		return "", services.Wrap(services.ErrExternalTool, "assistant", "calibrate", "model returned an empty log", nil)
	}
	return newLog, nil
}
