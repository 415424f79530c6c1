package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(Config{Threshold: 3, ResetTimeout: time.Minute})
	fail := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = b.Execute(func() error { return fail })
	}

	if b.State() != Open {
		t.Errorf("State() = %s, want open", b.State())
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("Execute() = %v, want ErrOpen", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(Config{Threshold: 3, ResetTimeout: time.Minute})
	fail := errors.New("boom")

	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return fail })

	if b.State() != Closed {
		t.Errorf("State() = %s, want closed", b.State())
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := NewBreaker(Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 2})
	_ = b.Execute(func() error { return errors.New("boom") })
	if b.State() != Open {
		t.Fatalf("State() = %s, want open", b.State())
	}

	time.Sleep(5 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after reset timeout = %v, want nil", err)
	}
	if b.State() != HalfOpen {
		t.Fatalf("State() = %s, want half-open", b.State())
	}

	b.Success()
	b.Success()
	if b.State() != Closed {
		t.Errorf("State() = %s, want closed after half-open successes", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 2})
	_ = b.Execute(func() error { return errors.New("boom") })
	time.Sleep(5 * time.Millisecond)
	_ = b.Allow()

	b.Failure()
	if b.State() != Open {
		t.Errorf("State() = %s, want open", b.State())
	}
}

func TestBreakerReset(t *testing.T) {
	b := NewBreaker(Config{Threshold: 1, ResetTimeout: time.Minute})
	_ = b.Execute(func() error { return errors.New("boom") })
	b.Reset()
	if b.State() != Closed {
		t.Errorf("State() = %s, want closed", b.State())
	}
}

func TestBreakerHook(t *testing.T) {
	var transitions []string
	b := NewBreaker(Config{Threshold: 1, ResetTimeout: time.Minute}).
		WithHook(func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		})

	_ = b.Execute(func() error { return errors.New("boom") })

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBreaker(Config{Threshold: 1, ResetTimeout: time.Minute})

	v, err := ExecuteWithResult(b, func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Errorf("ExecuteWithResult() = %d, %v", v, err)
	}

	_, err = ExecuteWithResult(b, func() (int, error) { return 0, errors.New("boom") })
	if err == nil {
		t.Fatal("ExecuteWithResult() = nil, want error")
	}
	if b.State() != Open {
		t.Errorf("State() = %s, want open", b.State())
	}
	if _, err := ExecuteWithResult(b, func() (int, error) { return 1, nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("ExecuteWithResult() while open = %v, want ErrOpen", err)
	}
}
