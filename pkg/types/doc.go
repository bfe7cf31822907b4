// Package types defines shared Go types used by both the plant agent and the
// control server. These are the canonical in-memory representations of plant
// process readings and double as the JSON wire contract on the agent→server
// ingest leg.
package types
