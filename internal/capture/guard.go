package capture

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/probewise/interview/internal/errors"
)

// Guarded composes a Component with the conversation-active predicate.
// While the predicate holds, Stop is refused: the only legitimate path to a
// real stop is the orchestrator calling ForceStop once the conversation has
// ended. The override is an injected collaborator, not a mutation of the
// component's own stop entry point.
type Guarded struct {
	inner  Component
	active func() bool
}

// NewGuarded wraps a component with the active-conversation stop guard.
func NewGuarded(inner Component, active func() bool) *Guarded {
	return &Guarded{inner: inner, active: active}
}

// Start delegates to the wrapped component.
func (g *Guarded) Start(ctx context.Context) error { return g.inner.Start(ctx) }

// Stop refuses while a conversation is active.
func (g *Guarded) Stop() error {
	if g.active() {
		slog.Warn("capture stop blocked: conversation still active")
		return apperrors.New(apperrors.CodeStopBlocked, "stop refused while conversation is active")
	}
	return g.inner.Stop()
}

// ForceStop bypasses the guard. Reserved for the orchestrator's
// end-of-conversation sequence, after conversation-active flags are cleared.
func (g *Guarded) ForceStop() error { return g.inner.Stop() }

// Elapsed delegates to the wrapped component.
func (g *Guarded) Elapsed() time.Duration { return g.inner.Elapsed() }

// State delegates to the wrapped component.
func (g *Guarded) State() State { return g.inner.State() }

// Frames delegates to the wrapped component.
func (g *Guarded) Frames() <-chan []byte { return g.inner.Frames() }
