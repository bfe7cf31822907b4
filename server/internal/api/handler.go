package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aquamind/aquamind/server/internal/alerts"
	"github.com/aquamind/aquamind/server/internal/knowledge"
	"github.com/aquamind/aquamind/server/internal/learning"
	"github.com/aquamind/aquamind/server/internal/orchestrator"
	"github.com/aquamind/aquamind/server/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads plant state from the readings store and drives the decision
// engine through the orchestrator.
type Handler struct {
	store   *store.Store
	orch    *orchestrator.Orchestrator
	learner *learning.Learner
	alerts  *alerts.Engine
	kb      *knowledge.Store
	mux     *http.ServeMux
}

// New creates a Handler wired to its collaborators and registers all routes.
// eng may be nil when alerting is disabled.
func New(st *store.Store, orch *orchestrator.Orchestrator, learner *learning.Learner, eng *alerts.Engine, kb *knowledge.Store) http.Handler {
	h := &Handler{store: st, orch: orch, learner: learner, alerts: eng, kb: kb, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/readings", h.listReadings)
	h.mux.HandleFunc("/api/v1/readings/", h.getReadings) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/state", h.state)
	h.mux.HandleFunc("/api/v1/diagnostics", h.diagnostics)
	h.mux.HandleFunc("/api/v1/requests", h.request)
	h.mux.HandleFunc("/api/v1/feedback", h.feedback)
	h.mux.HandleFunc("/api/v1/learning", h.learning)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/plc/variables", h.plcVariables)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — overall plant health plus engine counters.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Health is a read, not a request: the scorer runs directly so polls do
	// not count toward SystemState.
	report := h.orch.Diagnose()
	state := h.orch.State()

	resp := HealthResponse{
		OverallHealth: string(report.OverallHealth),
		OverallScore:  report.OverallScore,
		SourceCount:   len(h.store.List()),
		RequestCount:  state.RequestCount,
	}
	if h.alerts != nil {
		resp.AlertCount = len(h.alerts.Active())
	}
	if !state.LastDecisionAt.IsZero() {
		resp.LastDecisionAt = state.LastDecisionAt.UTC().Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// listReadings returns GET /api/v1/readings — all live sources.
func (h *Handler) listReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	out := make([]ReadingsResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toReadingsResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// getReadings returns GET /api/v1/readings/{id} — a single live source.
func (h *Handler) getReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/readings/")
	if id == "" {
		// Redirect bare /api/v1/readings/ to list handler.
		h.listReadings(w, r)
		return
	}

	e, ok := h.store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "source not found")
		return
	}
	// Exclude stale entries — treat them as not found.
	if time.Since(e.UpdatedAt) > h.store.TTL() {
		jsonErr(w, http.StatusNotFound, "source not found")
		return
	}

	jsonResp(w, http.StatusOK, toReadingsResponse(e))
}

// state returns GET /api/v1/state — the orchestrator's system state.
func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.orch.State())
}

// diagnostics returns GET /api/v1/diagnostics — a fresh diagnostic report.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.orch.Diagnose())
}

// request handles POST /api/v1/requests — one full request cycle through the
// decision engine.
func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body RequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Request) == "" {
		jsonErr(w, http.StatusBadRequest, "request text is required")
		return
	}

	jsonResp(w, http.StatusOK, h.orch.Handle(r.Context(), body.Request))
}

// feedback handles POST /api/v1/feedback — records one feedback sample.
func (h *Handler) feedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if body.Agent == "" || body.Action == "" {
		jsonErr(w, http.StatusBadRequest, "agent and action are required")
		return
	}

	eff := learning.Effectiveness(body.ExpectedValue, body.ActualValue, learning.DefaultTolerance)
	if body.Effectiveness != nil {
		eff = *body.Effectiveness
	}
	if eff < 0 || eff > 1 {
		jsonErr(w, http.StatusBadRequest, "effectiveness must be within [0, 1]")
		return
	}

	h.learner.RecordFeedback(learning.Feedback{
		Agent:          body.Agent,
		Action:         body.Action,
		ExpectedResult: body.ExpectedResult,
		ActualResult:   body.ActualResult,
		Effectiveness:  eff,
		Parameters:     body.Parameters,
	})
	jsonResp(w, http.StatusOK, FeedbackResponse{OK: true, Effectiveness: eff})
}

// learning returns GET /api/v1/learning — the learner's analysis and records.
func (h *Handler) learning(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, LearningResponse{
		Analysis: h.learner.Analysis(),
		Records:  h.learner.Records(),
	})
}

// listAlerts returns GET /api/v1/alerts — firing plus recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// plcVariables returns GET /api/v1/plc/variables — the PLC tag sheet.
func (h *Handler) plcVariables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.kb.PLCVariables())
}

// snapshot returns GET /api/v1/snapshot — full JSON dump of plant state.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store, h.orch))
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toReadingsResponse maps a store.Entry to its JSON representation.
func toReadingsResponse(e *store.Entry) ReadingsResponse {
	r := e.Readings
	return ReadingsResponse{
		SourceID:  r.SourceID,
		Toxicity:  r.Toxicity,
		Turntable: r.Turntable,
		MBR:       r.MBR,
		Carbon:    r.Carbon,
		LastSeen:  e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// BuildSnapshot assembles the full plant snapshot served by /api/v1/snapshot
// and broadcast over WebSocket.
func BuildSnapshot(st *store.Store, orch *orchestrator.Orchestrator) SnapshotResponse {
	entries := st.List()
	readings := make([]ReadingsResponse, 0, len(entries))
	for _, e := range entries {
		readings = append(readings, toReadingsResponse(e))
	}
	return SnapshotResponse{
		State:       orch.State(),
		Readings:    readings,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
