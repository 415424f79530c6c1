// Package capture defines the continuous-recording component contract and
// the guard that keeps conversations from stopping it prematurely.
package capture

import (
	"context"
	"time"
)

// State is the capture component lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
)

// Callbacks are the component's lifecycle signals. All are optional.
type Callbacks struct {
	OnReadyToStart   func()
	OnStarted        func()
	OnStopped        func()
	OnUploadComplete func(artifactLocation string, duration time.Duration)
}

// Component is the continuous recorder. From its point of view a
// conversation is one uninterrupted recording: the orchestrator never stops
// it between segments, only at the very end.
type Component interface {
	Start(ctx context.Context) error
	Stop() error
	Elapsed() time.Duration
	State() State

	// Frames emits captured PCM (16-bit little-endian mono) while recording.
	Frames() <-chan []byte
}
