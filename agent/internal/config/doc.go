// Package config loads and validates the agent configuration from the
// `agent:` section of config.yaml (the `server:` key is ignored by the agent
// binary), and hot-reloads it on file changes.
//
// Config fields:
//   - ServerEndpoint — base URL of aquamind-server (e.g. "http://aquamind:8080")
//   - ScrapeInterval — how often each instrument source is polled (default 30s)
//   - BufferSize     — snapshots buffered while the server is unreachable (default 1000)
//   - Sources        — instrument endpoints: plcgateway (Prometheus metrics)
//     or analyzer (JSON toxicity endpoint), each with its own auth and TLS
//   - ServerAuth     — how the agent authenticates to aquamind-server
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads on write/create events via fsnotify;
// a failed reload keeps the previous config active.
package config
