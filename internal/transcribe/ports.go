// Package transcribe defines the duplex streaming speech-to-text contract
// and its provider adapters.
package transcribe

import "context"

// Event is one incremental transcription result.
type Event struct {
	Text    string
	IsFinal bool
}

// StreamConfig describes provider-agnostic streaming settings.
type StreamConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// Session is an open duplex transcription channel. The caller sends binary
// audio chunks at a fixed interval while the channel is open and a periodic
// keep-alive to prevent idle timeout; events arrive asynchronously until the
// channel drains after CloseSend.
type Session interface {
	SendAudio(chunk []byte) error
	KeepAlive() error
	CloseSend() error
	Events() <-chan Event
	Wait() error
	Close() error
}

// Provider opens streaming transcription sessions.
type Provider interface {
	Open(ctx context.Context, cfg StreamConfig) (Session, error)
}
