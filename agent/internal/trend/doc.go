// Package trend derives the toxicity level and trend from consecutive
// analyzer samples.
//
// The analyzer reports only the continuous toxicity value; the server's
// controllers need the categorical level (low/medium/high) and the short-term
// trend (rising/stable/falling). Engine.Annotate fills both in before a
// snapshot ships. Trend is computed from the relative delta against the
// previous sample for the same source: more than +5% is rising, less than
// -5% is falling, everything in between is stable. The first sample for a
// source is always stable.
package trend
