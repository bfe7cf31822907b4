// Package orchestrator drives the request cycle: classify the request,
// invoke the controllers, scorer, and learner it implies, dispatch resulting
// commands to the PLC, and fold the outcome into the shared SystemState.
//
// The Orchestrator is the sole owner of SystemState. Collaborator failures
// (missing readings, dispatch errors) degrade the response to a partial one
// with explicit unavailable markers instead of failing the whole request.
package orchestrator
