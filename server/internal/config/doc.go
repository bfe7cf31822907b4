// Package config loads the server-side configuration from the `server:` section
// of config.yaml (the `agent:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort       — port for ingest, REST API, and WebSocket hub (default 8080)
//   - Auth.Mode      — "apikey" or "none"
//   - Auth.KeyEnv    — environment variable holding the expected API key
//   - Auth.Header    — HTTP header name (default "x-api-key")
//   - Readings.TTL   — how long a source's readings remain live (default 5m)
//   - Knowledge.Path — optional YAML overlay for the compiled-in knowledge base
//   - Learning.HistorySize — feedback FIFO bound (default 100)
//   - PLC.Broker     — MQTT broker URL; empty disables actuation
//   - Alerts         — alert rules and webhook delivery targets
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
