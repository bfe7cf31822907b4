// Package store holds the latest plant readings per source with TTL-based
// eviction of sources that stop reporting.
package store
