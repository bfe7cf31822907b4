// Package receiver accepts readings snapshots shipped by aquamind-agent
// instances over HTTP.
package receiver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aquamind/aquamind/pkg/types"
	"github.com/aquamind/aquamind/server/internal/alerts"
	"github.com/aquamind/aquamind/server/internal/store"
)

// Receiver validates each incoming PlantReadings snapshot, stores it, and
// feeds it to the alert engine.
type Receiver struct {
	store  *store.Store
	alerts *alerts.Engine
}

// New creates a Receiver that writes accepted snapshots to st and evaluates
// them against eng. eng may be nil when alerting is disabled.
func New(st *store.Store, eng *alerts.Engine) *Receiver {
	return &Receiver{store: st, alerts: eng}
}

// ServeHTTP handles POST /ingest/v1/readings.
// Authentication is enforced by middleware before this is called.
func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var snap types.PlantReadings
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if snap.SourceID == "" {
		http.Error(w, "source_id is required", http.StatusBadRequest)
		return
	}
	if snap.Empty() {
		http.Error(w, "snapshot carries no instrument sections", http.StatusBadRequest)
		return
	}
	if snap.Toxicity != nil {
		if !snap.Toxicity.Level.Valid() || !snap.Toxicity.Trend.Valid() {
			http.Error(w, "invalid toxicity level or trend", http.StatusBadRequest)
			return
		}
	}

	rc.store.Put(&snap)
	if rc.alerts != nil {
		rc.alerts.Evaluate(&snap)
	}

	slog.Debug("receiver: readings stored",
		"source_id", snap.SourceID,
		"has_toxicity", snap.Toxicity != nil,
		"has_turntable", snap.Turntable != nil,
		"has_mbr", snap.MBR != nil,
		"has_carbon", snap.Carbon != nil,
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
