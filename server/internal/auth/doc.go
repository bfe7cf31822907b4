// Package auth provides API-key authentication middleware for the ingest
// endpoint and the REST API.
//
// Middleware(mode, header, key, next) wraps next; when mode is "apikey" and a
// key is configured, requests whose header value does not match are rejected
// with 401. Any other mode passes requests through unchanged.
package auth
