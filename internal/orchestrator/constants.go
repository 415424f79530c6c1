package orchestrator

import "time"

// Orchestrator configuration constants
const (
	// DefaultMinTurn is the short-turn guard floor: stop-intents arriving
	// earlier than this into a turn are treated as accidental double-taps.
	DefaultMinTurn = time.Second

	// DefaultGraceWindow is how long to wait after a stop-intent for
	// trailing partial-to-final transcript fragments before closing the
	// streaming channel.
	DefaultGraceWindow = 400 * time.Millisecond

	// StreamDrainTimeout bounds waiting for the streaming channel to drain
	// after CloseSend.
	StreamDrainTimeout = 4 * time.Second
)
