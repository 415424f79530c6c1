package state

import (
	"fmt"
	"testing"
)

func TestDeriveFlags(t *testing.T) {
	tests := []struct {
		state State
		want  Flags
	}{
		{Initializing, Flags{}},
		{Ready, Flags{}},
		{Recording, Flags{IsRecording: true, IsConversationActive: true}},
		{AwaitingFinalTranscript, Flags{IsConversationActive: true, IsProcessing: true}},
		{Deciding, Flags{IsConversationActive: true, IsProcessing: true}},
		{ConversationActive, Flags{IsConversationActive: true}},
		{Errored, Flags{HasError: true}},
		{Complete, Flags{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			m := NewMachine()
			m.Transition(tt.state, nil)
			if got := m.Flags(); got != tt.want {
				t.Errorf("Flags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTransitionRecordsHistory(t *testing.T) {
	m := NewMachine()
	m.Transition(Ready, nil)
	m.Transition(Recording, "q1")

	hist := m.History()
	if len(hist) != 2 {
		t.Fatalf("len(History()) = %d, want 2", len(hist))
	}
	if hist[0].From != Initializing || hist[0].To != Ready {
		t.Errorf("hist[0] = %s->%s, want initializing->ready", hist[0].From, hist[0].To)
	}
	if hist[1].Payload != "q1" {
		t.Errorf("hist[1].Payload = %v, want q1", hist[1].Payload)
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	for _, terminal := range []State{Complete, Errored} {
		m := NewMachine()
		m.Transition(terminal, nil)
		m.Transition(Recording, nil)

		if got := m.Current(); got != terminal {
			t.Errorf("Current() after transition out of %s = %s, want %s", terminal, got, terminal)
		}
	}
}

func TestTerminalSelfTransitionAllowed(t *testing.T) {
	m := NewMachine()
	m.Transition(Complete, "first")
	m.Transition(Complete, "second")

	if len(m.History()) != 2 {
		t.Errorf("len(History()) = %d, want 2", len(m.History()))
	}
}

func TestHistoryCap(t *testing.T) {
	m := NewMachine()
	for i := 0; i < HistoryCap*2; i++ {
		m.Transition(Ready, i)
	}

	hist := m.History()
	if len(hist) != HistoryCap {
		t.Fatalf("len(History()) = %d, want %d", len(hist), HistoryCap)
	}
	if hist[len(hist)-1].Payload != HistoryCap*2-1 {
		t.Errorf("last payload = %v, want %d", hist[len(hist)-1].Payload, HistoryCap*2-1)
	}
}

func TestObserversSeeCommittedState(t *testing.T) {
	m := NewMachine()
	var seen []State
	m.Subscribe(ObserverFunc(func(_, to State, _ any) {
		seen = append(seen, to)
		// The committed state must already be visible inside the callback.
		if cur := m.Current(); cur != to {
			t.Errorf("Current() inside observer = %s, want %s", cur, to)
		}
	}))

	m.Transition(Ready, nil)
	m.Transition(Recording, nil)

	if len(seen) != 2 || seen[0] != Ready || seen[1] != Recording {
		t.Errorf("seen = %v, want [ready recording]", seen)
	}
}

func TestObserverPanicIsolated(t *testing.T) {
	m := NewMachine()
	m.Subscribe(ObserverFunc(func(_, _ State, _ any) {
		panic("observer bug")
	}))
	var called bool
	m.Subscribe(ObserverFunc(func(_, _ State, _ any) {
		called = true
	}))

	m.Transition(Ready, nil)

	if !called {
		t.Error("second observer not called after first panicked")
	}
	if m.Current() != Ready {
		t.Errorf("Current() = %s, want ready", m.Current())
	}
}

func TestReset(t *testing.T) {
	m := NewMachine()
	m.Transition(Complete, nil)
	m.Reset()

	if m.Current() != Initializing {
		t.Errorf("Current() = %s, want initializing", m.Current())
	}
	if len(m.History()) != 0 {
		t.Errorf("len(History()) = %d, want 0", len(m.History()))
	}
	m.Transition(Ready, nil)
	if m.Current() != Ready {
		t.Error("machine not usable after Reset")
	}
}

func TestConcurrentTransitions(t *testing.T) {
	m := NewMachine()
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				m.Transition(Ready, fmt.Sprintf("g%d", n))
				m.Flags()
				m.Current()
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	if m.Current() != Ready {
		t.Errorf("Current() = %s, want ready", m.Current())
	}
}
