// Package registry is a process-wide container binding named capabilities
// so collaborators depend on lookups, not concrete instances.
package registry

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Well-known capability names.
const (
	CapCapture       = "capture"
	CapTranscription = "transcription"
	CapDecision      = "decision"
	CapUISink        = "ui-sink"
	CapRecordStore   = "record-store"
)

// Registry binds capability names to instances and closes them in reverse
// registration order on shutdown.
type Registry struct {
	mu       sync.RWMutex
	services map[string]any
	order    []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{services: make(map[string]any)}
}

// Register binds a capability. Rebinding a name replaces the previous
// instance without closing it.
func (r *Registry) Register(name string, svc any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[name]; !exists {
		r.order = append(r.order, name)
	}
	r.services[name] = svc
}

// Lookup returns the capability bound to name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	return svc, ok
}

// Resolve returns the capability bound to name with its concrete type.
func Resolve[T any](r *Registry, name string) (T, error) {
	var zero T
	svc, ok := r.Lookup(name)
	if !ok {
		return zero, fmt.Errorf("capability %q not registered", name)
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("capability %q has type %T, not %T", name, svc, zero)
	}
	return typed, nil
}

// MustResolve resolves or panics. For wiring code that runs before serving.
func MustResolve[T any](r *Registry, name string) T {
	typed, err := Resolve[T](r, name)
	if err != nil {
		panic(err)
	}
	return typed
}

// Close shuts down every registered capability that is an io.Closer, in
// reverse registration order.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if closer, ok := r.services[name].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("capability close failed", "capability", name, "error", err)
			}
		}
	}
	r.services = make(map[string]any)
	r.order = nil
}
