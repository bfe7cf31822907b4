package sensors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aquamind/aquamind/agent/internal/config"
)

func analyzerServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzerScraper_Scrape(t *testing.T) {
	srv := analyzerServer(t, http.StatusOK,
		`{"toxicity": 2.4, "confidence": 0.88, "prediction_accuracy": 91.5}`)

	s := &analyzerScraper{
		src:    config.Source{ID: "analyzer", Type: "analyzer", Endpoint: srv.URL},
		client: srv.Client(),
	}

	snap, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if snap.SourceID != "analyzer" {
		t.Errorf("SourceID: got %q, want analyzer", snap.SourceID)
	}
	if snap.Toxicity == nil {
		t.Fatal("Toxicity section: missing")
	}
	if snap.Toxicity.Value != 2.4 {
		t.Errorf("Value: got %v, want 2.4", snap.Toxicity.Value)
	}
	if snap.Toxicity.Confidence != 0.88 {
		t.Errorf("Confidence: got %v, want 0.88", snap.Toxicity.Confidence)
	}
	if snap.Toxicity.PredictionAccuracy != 91.5 {
		t.Errorf("PredictionAccuracy: got %v, want 91.5", snap.Toxicity.PredictionAccuracy)
	}
	// Level and trend belong to the trend engine, not the scraper.
	if snap.Toxicity.Level != "" {
		t.Errorf("Level: got %q, want empty", snap.Toxicity.Level)
	}
	if snap.Toxicity.Trend != "" {
		t.Errorf("Trend: got %q, want empty", snap.Toxicity.Trend)
	}
}

func TestAnalyzerScraper_ToxicityOutOfRange(t *testing.T) {
	srv := analyzerServer(t, http.StatusOK, `{"toxicity": 12.0, "confidence": 0.9}`)
	s := &analyzerScraper{src: config.Source{ID: "an", Endpoint: srv.URL}, client: srv.Client()}

	if _, err := s.Scrape(context.Background()); err == nil {
		t.Fatal("Scrape() expected error for toxicity 12.0")
	}
}

func TestAnalyzerScraper_BadStatus(t *testing.T) {
	srv := analyzerServer(t, http.StatusServiceUnavailable, `{}`)
	s := &analyzerScraper{src: config.Source{ID: "an", Endpoint: srv.URL}, client: srv.Client()}

	if _, err := s.Scrape(context.Background()); err == nil {
		t.Fatal("Scrape() expected error for status 503")
	}
}

func TestAnalyzerScraper_InvalidJSON(t *testing.T) {
	srv := analyzerServer(t, http.StatusOK, `{toxicity: nope`)
	s := &analyzerScraper{src: config.Source{ID: "an", Endpoint: srv.URL}, client: srv.Client()}

	if _, err := s.Scrape(context.Background()); err == nil {
		t.Fatal("Scrape() expected error for invalid json")
	}
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(config.Source{ID: "x", Type: "modbus", Endpoint: "http://x"})
	if err == nil {
		t.Fatal("New: expected error for unsupported type")
	}
}
