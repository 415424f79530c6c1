// Package server bridges the orchestrator to browser clients over HTTP and
// WebSocket.
package server

import "time"

// Server configuration constants
const (
	// Transcript truncation limit for API responses
	TranscriptPreviewLimit = 2000

	// Per-connection message rate limiting
	RateLimitMessages = 20          // Max messages per connection per window
	RateLimitWindow   = time.Second // Sliding window duration

	// WriteTimeout bounds a single outbound WebSocket write.
	WriteTimeout = 5 * time.Second
)
