// Package sensors polls plant instruments and normalizes their output into
// types.PlantReadings snapshots.
//
// Two instrument types are supported:
//
//   - plcgateway — a Prometheus /metrics endpoint exposed by the PLC gateway,
//     parsed with expfmt. The aquamind_* gauge families map to the turntable,
//     MBR, and carbon sections; families absent from a scrape leave their
//     section nil.
//   - analyzer — the toxicity analyzer's JSON endpoint
//     ({"toxicity": x, "confidence": y}). The resulting toxicity section
//     carries value and confidence only; level and trend are filled in by
//     the trend engine before shipping.
//
// New(src) builds the right scraper for a config.Source, with per-source
// auth (mtls, apikey, bearer, basic) and TLS options applied to every request.
package sensors
