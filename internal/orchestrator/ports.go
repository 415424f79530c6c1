// Package orchestrator drives the multi-turn interview loop over one
// continuous recording.
package orchestrator

import (
	"context"
	"time"

	"github.com/probewise/interview/internal/decision"
	"github.com/probewise/interview/internal/session"
)

// UISink receives the abstract display signals the orchestrator emits.
// Sink failures must never affect orchestration state; implementations are
// expected to swallow their own errors.
type UISink interface {
	ShowQuestion(text string)
	ShowProcessing()
	HideProcessing()
	ShowComplete()
	ResetControl()
}

// Capture is the orchestrator's view of the continuous recorder: elapsed
// time for segment offsets, the frame feed for transcription, and the
// guarded force-stop used only once the conversation has ended.
type Capture interface {
	Elapsed() time.Duration
	Frames() <-chan []byte
	ForceStop() error
}

// Decider asks whether to probe further. Implementations never return an
// error; failures arrive as degrade-to-stop decisions.
type Decider interface {
	Decide(ctx context.Context, cfg session.Config, probeCount, maxProbes int, history []session.ThreadEntry) decision.Decision
}

// RecordSink persists the completed session record.
type RecordSink interface {
	SaveCompleted(ctx context.Context, sess *session.Session) error
}

// NopUISink discards all signals.
type NopUISink struct{}

func (NopUISink) ShowQuestion(string) {}
func (NopUISink) ShowProcessing()     {}
func (NopUISink) HideProcessing()     {}
func (NopUISink) ShowComplete()       {}
func (NopUISink) ResetControl()       {}
