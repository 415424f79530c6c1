package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(10)
	if got := g.Get(); got != 10 {
		t.Errorf("Get() = %d, want 10", got)
	}
	g.Set(20)
	if got := g.Get(); got != 20 {
		t.Errorf("Get() = %d, want 20", got)
	}
}

func TestGuardWrite(t *testing.T) {
	type snapshot struct {
		count int
		label string
	}
	g := NewGuard(snapshot{})
	g.Write(func(s *snapshot) {
		s.count = 3
		s.label = "ready"
	})
	if got := g.Get(); got.count != 3 || got.label != "ready" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestGuardSwap(t *testing.T) {
	g := NewGuard("old")
	if old := g.Swap("new"); old != "old" {
		t.Errorf("Swap() = %q, want old", old)
	}
	if got := g.Get(); got != "new" {
		t.Errorf("Get() = %q, want new", got)
	}
}

func TestGuardReadUpdate(t *testing.T) {
	g := NewGuard(5)
	doubled := g.Read(func(v int) any { return v * 2 })
	if doubled != 10 {
		t.Errorf("Read() = %v, want 10", doubled)
	}
	prev := g.Update(func(v *int) any {
		old := *v
		*v++
		return old
	})
	if prev != 5 || g.Get() != 6 {
		t.Errorf("Update() = %v, Get() = %d", prev, g.Get())
	}
}

func TestGuardConcurrent(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g.Write(func(v *int) { *v++ })
			}
		}()
	}
	wg.Wait()

	if got := g.Get(); got != 1000 {
		t.Errorf("Get() = %d, want 1000", got)
	}
}
