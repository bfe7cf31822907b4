package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aquamind/aquamind/agent/internal/config"
	"github.com/aquamind/aquamind/pkg/types"
)

// analyzerResponse is the toxicity analyzer's JSON payload.
type analyzerResponse struct {
	Toxicity           float64 `json:"toxicity"`
	Confidence         float64 `json:"confidence"`
	PredictionAccuracy float64 `json:"prediction_accuracy"`
}

type analyzerScraper struct {
	src    config.Source
	client *http.Client
}

// Scrape fetches the analyzer's JSON endpoint and builds a toxicity-only
// snapshot. Level and trend are left empty here; the trend engine derives
// them from consecutive samples before the snapshot ships.
func (s *analyzerScraper) Scrape(ctx context.Context) (*types.PlantReadings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.src.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("analyzer scrape %q: build request: %w", s.src.ID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer scrape %q: http get: %w", s.src.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer scrape %q: unexpected status %d", s.src.ID, resp.StatusCode)
	}

	var body analyzerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("analyzer scrape %q: decode json: %w", s.src.ID, err)
	}
	if body.Toxicity < 0 || body.Toxicity > 10 {
		return nil, fmt.Errorf("analyzer scrape %q: toxicity %.2f out of range [0, 10]",
			s.src.ID, body.Toxicity)
	}

	return &types.PlantReadings{
		SourceID:  s.src.ID,
		Timestamp: time.Now().UTC(),
		Toxicity: &types.ToxicityReading{
			Value:              body.Toxicity,
			Confidence:         body.Confidence,
			PredictionAccuracy: body.PredictionAccuracy,
		},
	}, nil
}
