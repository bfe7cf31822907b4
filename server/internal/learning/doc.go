// Package learning tracks the observed effectiveness of past control
// decisions and recommends parameters for future ones.
//
// Feedback samples land in a bounded FIFO history and update a per-scenario
// learning record (scenario = agent + action) with an incremental-mean
// success rate. Once a scenario's success rate clears 0.7, its best-known
// parameters are recommended instead of the static baseline.
package learning
