package api

import (
	"github.com/aquamind/aquamind/pkg/types"
	"github.com/aquamind/aquamind/server/internal/learning"
	"github.com/aquamind/aquamind/server/internal/orchestrator"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	OverallHealth  string  `json:"overall_health"`
	OverallScore   float64 `json:"overall_score"`
	SourceCount    int     `json:"source_count"`
	AlertCount     int     `json:"alert_count"`
	RequestCount   int     `json:"request_count"`
	LastDecisionAt string  `json:"last_decision_at,omitempty"` // RFC3339
}

// ReadingsResponse is one source entry in GET /api/v1/readings or
// GET /api/v1/readings/{id}.
type ReadingsResponse struct {
	SourceID  string                  `json:"source_id"`
	Toxicity  *types.ToxicityReading  `json:"toxicity,omitempty"`
	Turntable *types.TurntableReading `json:"turntable,omitempty"`
	MBR       *types.MBRReading       `json:"mbr,omitempty"`
	Carbon    *types.CarbonReading    `json:"carbon,omitempty"`
	LastSeen  string                  `json:"last_seen"` // RFC3339
}

// RequestBody is the payload for POST /api/v1/requests.
type RequestBody struct {
	Request string `json:"request"`
}

// FeedbackRequest is the payload for POST /api/v1/feedback. Effectiveness
// may be supplied directly; when omitted it is computed from the expected
// and actual values.
type FeedbackRequest struct {
	Agent          string             `json:"agent"`
	Action         string             `json:"action"`
	ExpectedValue  float64            `json:"expected_value"`
	ActualValue    float64            `json:"actual_value"`
	Effectiveness  *float64           `json:"effectiveness,omitempty"`
	ExpectedResult string             `json:"expected_result,omitempty"`
	ActualResult   string             `json:"actual_result,omitempty"`
	Parameters     map[string]float64 `json:"parameters,omitempty"`
}

// FeedbackResponse confirms a recorded feedback sample.
type FeedbackResponse struct {
	OK            bool    `json:"ok"`
	Effectiveness float64 `json:"effectiveness"`
}

// LearningResponse is the payload for GET /api/v1/learning.
type LearningResponse struct {
	Analysis learning.Analysis          `json:"analysis"`
	Records  map[string]learning.Record `json:"records"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the WebSocket
// broadcast envelope body.
type SnapshotResponse struct {
	State       orchestrator.SystemState `json:"state"`
	Readings    []ReadingsResponse       `json:"readings"`
	GeneratedAt string                   `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
