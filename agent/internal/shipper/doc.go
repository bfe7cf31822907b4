// Package shipper sends PlantReadings snapshots to aquamind-server via
// HTTP POST (/ingest/v1/readings).
//
// Shipper.Ship() is non-blocking: snapshots are placed in an in-memory
// channel (default capacity 1000). When the buffer is full the oldest entry
// is evicted so the latest plant data is always preserved.
//
// Shipper.Run() drains the buffer in a loop, retrying with truncated
// exponential backoff (1s→60s, ±25% jitter) on connection or send errors.
// Permanent rejections (400, 401, 403, 422) discard the snapshot immediately
// rather than retrying.
//
// Auth: API key via a configurable HTTP header; none for local development.
package shipper
