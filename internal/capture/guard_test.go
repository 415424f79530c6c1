package capture

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/probewise/interview/internal/errors"
)

type fakeComponent struct {
	starts int
	stops  int
	state  State
}

func (f *fakeComponent) Start(context.Context) error {
	f.starts++
	f.state = StateRecording
	return nil
}

func (f *fakeComponent) Stop() error {
	f.stops++
	f.state = StateStopped
	return nil
}

func (f *fakeComponent) Elapsed() time.Duration { return 3 * time.Second }
func (f *fakeComponent) State() State           { return f.state }
func (f *fakeComponent) Frames() <-chan []byte  { return nil }

func TestGuardedStopBlockedWhileActive(t *testing.T) {
	inner := &fakeComponent{state: StateRecording}
	g := NewGuarded(inner, func() bool { return true })

	err := g.Stop()
	if !apperrors.IsCode(err, apperrors.CodeStopBlocked) {
		t.Errorf("Stop() = %v, want stop_blocked", err)
	}
	if inner.stops != 0 {
		t.Errorf("inner stops = %d, want 0", inner.stops)
	}
}

func TestGuardedStopAllowedWhenInactive(t *testing.T) {
	inner := &fakeComponent{state: StateRecording}
	g := NewGuarded(inner, func() bool { return false })

	if err := g.Stop(); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
	if inner.stops != 1 {
		t.Errorf("inner stops = %d, want 1", inner.stops)
	}
}

func TestGuardedForceStopBypassesGuard(t *testing.T) {
	inner := &fakeComponent{state: StateRecording}
	g := NewGuarded(inner, func() bool { return true })

	if err := g.ForceStop(); err != nil {
		t.Errorf("ForceStop() = %v, want nil", err)
	}
	if inner.stops != 1 {
		t.Errorf("inner stops = %d, want 1", inner.stops)
	}
}

func TestGuardedDelegates(t *testing.T) {
	inner := &fakeComponent{}
	g := NewGuarded(inner, func() bool { return false })

	if err := g.Start(context.Background()); err != nil || inner.starts != 1 {
		t.Errorf("Start() = %v, starts = %d", err, inner.starts)
	}
	if g.Elapsed() != 3*time.Second {
		t.Errorf("Elapsed() = %v", g.Elapsed())
	}
	if g.State() != StateRecording {
		t.Errorf("State() = %s", g.State())
	}
}
