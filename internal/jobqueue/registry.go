package jobqueue

import (
	"context"
	"fmt"

	"github.com/vk/modforge/internal/ctxlog"
)

// Factory describes one registered backend: a constructor plus a probe
// that checks whether the backend can actually be used in the current
// environment (required binaries, endpoint configuration, credentials).
type Factory struct {
	New    func(ctx context.Context) (Server, error)
	Usable func() bool
}

// Registry maps backend names to factories. Backends self-declare at
// startup through Register; selection is by explicit name or by first
// usable entry in a preference order. No runtime discovery happens.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named backend factory. Registering the same name twice
// is a startup bug.
func (r *Registry) Register(name string, f Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("job backend %q already registered", name))
	}
	r.factories[name] = f
}

// Names returns the registered backend names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Select constructs the backend with the given name. An unregistered or
// unusable backend is a *SelectionError.
func (r *Registry) Select(ctx context.Context, name string) (Server, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &SelectionError{Backend: name, Reason: "not registered"}
	}
	if f.Usable != nil && !f.Usable() {
		return nil, &SelectionError{Backend: name, Reason: "not usable in this environment"}
	}
	ctxlog.FromContext(ctx).Debug("Job backend selected.", "backend", name)
	return f.New(ctx)
}

// Preferred constructs the first usable backend in the given preference
// order.
func (r *Registry) Preferred(ctx context.Context, order []string) (Server, error) {
	for _, name := range order {
		f, ok := r.factories[name]
		if !ok {
			continue
		}
		if f.Usable != nil && !f.Usable() {
			continue
		}
		ctxlog.FromContext(ctx).Debug("Job backend selected by preference.", "backend", name)
		return f.New(ctx)
	}
	return nil, &SelectionError{
		Backend: fmt.Sprintf("%v", order),
		Reason:  "no usable backend among preferred",
	}
}
