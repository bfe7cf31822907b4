// Package control implements the deterministic subsystem controllers that
// map plant readings to actuator setpoints.
//
// Three controllers are provided, one per subsystem:
//
//	DecideTurntable    — adsorption turntable frequency/standby control
//	DecideMBR          — membrane bioreactor flux/aeration/cleaning control
//	DecideRegeneration — carbon regeneration furnace mode control
//
// Each is a pure function of its input, the knowledge store, and an explicit
// timestamp: identical inputs produce identical decisions except for the
// timestamp. Inputs are validated before any computation; unknown enum values
// and out-of-range readings are rejected with a fault.Validation error.
//
// Decision is a tagged variant (exactly one payload pointer is non-nil for
// its Kind) and Decision.PLCCommand() is the single serialization boundary
// that renders a decision as a PLC command document.
package control
