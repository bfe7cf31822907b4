// Package intent classifies free-text operator requests into a closed set
// of task categories by ordered keyword matching.
package intent
