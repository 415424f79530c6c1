package registry

import "testing"

type closer struct {
	closed *[]string
	name   string
}

func (c *closer) Close() error {
	*c.closed = append(*c.closed, c.name)
	return nil
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	r.Register(CapDecision, "decider")

	got, err := Resolve[string](r, CapDecision)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "decider" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestResolveMissing(t *testing.T) {
	r := New()
	if _, err := Resolve[string](r, "absent"); err == nil {
		t.Error("Resolve(absent) = nil error")
	}
}

func TestResolveWrongType(t *testing.T) {
	r := New()
	r.Register(CapCapture, 42)
	if _, err := Resolve[string](r, CapCapture); err == nil {
		t.Error("Resolve with wrong type = nil error")
	}
}

func TestRebindReplaces(t *testing.T) {
	r := New()
	r.Register(CapUISink, "first")
	r.Register(CapUISink, "second")

	got, err := Resolve[string](r, CapUISink)
	if err != nil || got != "second" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
}

func TestCloseReverseOrder(t *testing.T) {
	var closed []string
	r := New()
	r.Register("a", &closer{closed: &closed, name: "a"})
	r.Register("b", &closer{closed: &closed, name: "b"})
	r.Register("plain", "not a closer")
	r.Register("c", &closer{closed: &closed, name: "c"})

	r.Close()

	if len(closed) != 3 || closed[0] != "c" || closed[1] != "b" || closed[2] != "a" {
		t.Errorf("closed = %v, want [c b a]", closed)
	}
	if _, ok := r.Lookup("a"); ok {
		t.Error("Lookup after Close returned a binding")
	}
}

func TestMustResolvePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustResolve did not panic for missing capability")
		}
	}()
	MustResolve[string](New(), "absent")
}
