// Package fault defines the error taxonomy shared across the control server.
//
// Every error surfaced past a package boundary carries a Kind plus context
// (subsystem, operation, offending value) so callers can render a user-facing
// message without leaking internals:
//
//   - KindValidation   — out-of-range or unknown identifiers; rejected before
//     any computation, no partial state change.
//   - KindComputation  — guarded numeric edge cases (e.g. expected==0 in the
//     effectiveness formula); handled by explicit branches, never raised.
//   - KindCollaborator — sensor/actuator/knowledge lookup failure; the
//     orchestrator degrades the affected subsystem to "unavailable".
//   - KindConcurrency  — reserved; prevented structurally by serializing
//     learning-record updates, so it never occurs in practice.
package fault
