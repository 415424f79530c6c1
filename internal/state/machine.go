// Package state implements the authoritative session state machine.
package state

import (
	"log/slog"
	"sync"
	"time"
)

// State is the session lifecycle value.
type State string

const (
	Initializing            State = "initializing"
	Ready                   State = "ready"
	Recording               State = "recording"
	AwaitingFinalTranscript State = "awaiting-final-transcript"
	Deciding                State = "ai-deciding"
	ConversationActive      State = "conversation-active"
	Errored                 State = "error"
	Complete                State = "complete"
)

// IsTerminal reports whether the state has no outgoing transitions.
func (s State) IsTerminal() bool { return s == Complete || s == Errored }

// Flags are derived booleans recomputed on every transition. They are never
// settable independently, which is what keeps them from diverging from the
// authoritative state.
type Flags struct {
	IsRecording          bool
	IsConversationActive bool
	IsProcessing         bool
	HasError             bool
}

func deriveFlags(s State) Flags {
	return Flags{
		IsRecording:          s == Recording,
		IsConversationActive: s == Recording || s == AwaitingFinalTranscript || s == Deciding || s == ConversationActive,
		IsProcessing:         s == AwaitingFinalTranscript || s == Deciding,
		HasError:             s == Errored,
	}
}

// Transition records one committed state change.
type Transition struct {
	From    State
	To      State
	At      time.Time
	Payload any
}

// Observer receives committed transitions. A failing observer is isolated:
// its panic is recovered and logged, and the remaining observers still run.
type Observer interface {
	OnStateChange(from, to State, payload any)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(from, to State, payload any)

// OnStateChange implements Observer.
func (f ObserverFunc) OnStateChange(from, to State, payload any) { f(from, to, payload) }

// HistoryCap bounds the diagnostic transition history.
const HistoryCap = 50

// Machine holds one authoritative state value per session. Transitions and
// their observer notifications are serialized: observers only ever see the
// latest committed state, never a torn intermediate one.
type Machine struct {
	// transitionMu serializes whole transitions (commit + notification) so
	// notification order always matches commit order. Observers must not
	// call Transition re-entrantly.
	transitionMu sync.Mutex

	mu        sync.Mutex
	current   State
	flags     Flags
	history   []Transition
	observers []Observer
}

// NewMachine creates a machine in the Initializing state.
func NewMachine() *Machine {
	return &Machine{
		current: Initializing,
		flags:   deriveFlags(Initializing),
	}
}

// Subscribe registers an observer for committed transitions.
func (m *Machine) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Transition commits a state change and synchronously notifies observers.
// Transitions out of a terminal state are dropped with a diagnostic log;
// Reset is the only way back out of Complete or Errored.
func (m *Machine) Transition(to State, payload any) {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	m.mu.Lock()
	from := m.current
	if from.IsTerminal() && to != from {
		m.mu.Unlock()
		slog.Debug("transition from terminal state ignored", "from", from, "to", to)
		return
	}

	m.current = to
	m.flags = deriveFlags(to)
	m.history = append(m.history, Transition{From: from, To: to, At: time.Now(), Payload: payload})
	if len(m.history) > HistoryCap {
		m.history = m.history[len(m.history)-HistoryCap:]
	}
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, o := range observers {
		notify(o, from, to, payload)
	}
}

func notify(o Observer, from, to State, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("state observer panicked", "from", from, "to", to, "panic", r)
		}
	}()
	o.OnStateChange(from, to, payload)
}

// Current returns the committed state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Flags returns the derived flags for the committed state.
func (m *Machine) Flags() Flags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

// History returns a copy of the bounded transition history.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// Reset reinitializes the machine. Intended for test harnesses; production
// sessions are single-use.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Initializing
	m.flags = deriveFlags(Initializing)
	m.history = nil
}
