// Package api implements the HTTP REST API for aquamind-server.
//
// New(store, orch, learner, alerts, kb) returns an http.Handler that serves:
//
//	GET  /api/v1/health         — overall plant health, score, engine counters
//	GET  /api/v1/readings       — all live sources ([]ReadingsResponse)
//	GET  /api/v1/readings/{id}  — single source; 404 if unknown or stale
//	GET  /api/v1/state          — orchestrator system state
//	GET  /api/v1/diagnostics    — fresh diagnostic report across subsystems
//	POST /api/v1/requests       — one request cycle through the decision engine
//	POST /api/v1/feedback       — record an operator feedback sample
//	GET  /api/v1/learning       — learning analysis and scenario records
//	GET  /api/v1/alerts         — active alerts (empty when alerting disabled)
//	GET  /api/v1/plc/variables  — the PLC tag sheet from the knowledge base
//	GET  /api/v1/snapshot       — full JSON dump: state + all live readings
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for unsupported methods
//   - Read live entries from the store (stale entries excluded from lists)
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
